package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// CreateTransferRequest represents a request to move money between wallets.
type CreateTransferRequest struct {
	FromWalletID string          `json:"from_wallet_id"`
	ToWalletID   string          `json:"to_wallet_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
	Reference    *string         `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input. Unknown currency codes become
// CurrencyUnspecified and are reported by validation.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		FromWalletID: r.FromWalletID,
		ToWalletID:   r.ToWalletID,
		Amount:       r.Amount,
		Currency:     parseCurrency(r.Currency),
		Description:  r.Description,
		Reference:    r.Reference,
	}
}

// AddBalanceRequest represents a credit to a wallet. The wallet comes from the path.
type AddBalanceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   *string         `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AddBalanceRequest) ToUseCaseInput(walletID string) usecase.AddBalanceInput {
	return usecase.AddBalanceInput{
		WalletID:    walletID,
		Amount:      r.Amount,
		Description: r.Description,
		Reference:   r.Reference,
	}
}

// CreateWalletRequest represents a request to open a wallet.
type CreateWalletRequest struct {
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Currency    string  `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWalletRequest) ToUseCaseInput() usecase.CreateWalletInput {
	return usecase.CreateWalletInput{
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		Currency:    parseCurrency(r.Currency),
	}
}

// UpdateWalletStatusRequest switches a wallet between active and inactive.
type UpdateWalletStatusRequest struct {
	Status string `json:"status"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateWalletStatusRequest) ToUseCaseInput(walletID string) usecase.UpdateWalletStatusInput {
	status, _ := domain.ParseWalletStatus(r.Status)
	return usecase.UpdateWalletStatusInput{
		WalletID: walletID,
		Status:   status,
	}
}

// CreateUserRequest represents a sign-up.
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateUserRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.LoginInput {
	return usecase.LoginInput{Email: r.Email, Password: r.Password}
}

func parseCurrency(code string) domain.Currency {
	c, err := domain.ParseCurrency(code)
	if err != nil {
		return domain.CurrencyUnspecified
	}
	return c
}
