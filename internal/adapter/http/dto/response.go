package dto

import (
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// ErrorResponse represents an error response. Fields is set for validation failures.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// TransferResponse represents a completed transfer.
type TransferResponse struct {
	Reference         string    `json:"reference"`
	FromWalletID      string    `json:"from_wallet_id"`
	ToWalletID        string    `json:"to_wallet_id"`
	FromTransactionID string    `json:"from_transaction_id"`
	ToTransactionID   string    `json:"to_transaction_id"`
	Amount            string    `json:"amount"`
	Currency          string    `json:"currency"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"created_at"`
}

// TransferFromResult converts a use case result to response.
func TransferFromResult(r *usecase.TransferResult) TransferResponse {
	return TransferResponse{
		Reference:         r.Reference,
		FromWalletID:      r.FromWalletID,
		ToWalletID:        r.ToWalletID,
		FromTransactionID: r.FromTransactionID,
		ToTransactionID:   r.ToTransactionID,
		Amount:            r.Amount.StringFixed(domain.MoneyScale),
		Currency:          r.Currency.String(),
		Description:       r.Description,
		CreatedAt:         r.CreatedAt,
	}
}

// AddBalanceResponse represents a credit applied to a wallet.
type AddBalanceResponse struct {
	TransactionID string    `json:"transaction_id"`
	WalletID      string    `json:"wallet_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	NewBalance    string    `json:"new_balance"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// AddBalanceFromResult converts a use case result to response.
func AddBalanceFromResult(r *usecase.AddBalanceResult) AddBalanceResponse {
	return AddBalanceResponse{
		TransactionID: r.TransactionID,
		WalletID:      r.WalletID,
		Amount:        r.Amount.StringFixed(domain.MoneyScale),
		Currency:      r.Currency.String(),
		NewBalance:    r.NewBalance.StringFixed(domain.MoneyScale),
		Description:   r.Description,
		CreatedAt:     r.CreatedAt,
	}
}

// BalanceResponse represents a wallet balance.
type BalanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// BalanceFromResult converts a use case result to response.
func BalanceFromResult(b *usecase.WalletBalance) BalanceResponse {
	return BalanceResponse{
		WalletID: b.WalletID,
		Balance:  b.Balance.StringFixed(domain.MoneyScale),
		Currency: b.Currency.String(),
		Status:   b.Status.String(),
	}
}

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Balance     string    `json:"balance"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to response.
func WalletFromDomain(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:          w.ID,
		UserID:      w.UserID,
		Name:        w.Name,
		Description: w.Description,
		Balance:     w.Balance.Amount().StringFixed(domain.MoneyScale),
		Currency:    w.Currency().String(),
		Status:      w.Status.String(),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// WalletsFromDomain converts a slice of domain wallets to response.
func WalletsFromDomain(wallets []*domain.Wallet) []WalletResponse {
	result := make([]WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// TransactionResponse represents one ledger movement.
type TransactionResponse struct {
	ID          string     `json:"id"`
	WalletID    string     `json:"wallet_id"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	Reference   *string    `json:"reference,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Amount:      t.Amount.Amount().StringFixed(domain.MoneyScale),
		Currency:    t.Amount.Currency().String(),
		Type:        t.Type.String(),
		Status:      t.Status.String(),
		Description: t.Description,
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
		ProcessedAt: t.ProcessedAt,
	}
}

// TransactionsFromDomain converts a slice of domain transactions to response.
func TransactionsFromDomain(transactions []*domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// UserResponse represents a user without credentials.
type UserResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts a domain user to response.
func UserFromDomain(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName(),
		Email:     u.Email,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// CreateUserResponse is returned after sign-up with the default wallets.
type CreateUserResponse struct {
	UserResponse
	Wallets []WalletResponse `json:"wallets"`
}

// CreateUserFromResult converts a use case result to response.
func CreateUserFromResult(r *usecase.CreateUserResult) CreateUserResponse {
	return CreateUserResponse{
		UserResponse: UserFromDomain(r.User),
		Wallets:      WalletsFromDomain(r.Wallets),
	}
}

// LoginResponse represents a login response
type LoginResponse struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFromResult converts a use case result to response.
func LoginFromResult(r *usecase.LoginResult) LoginResponse {
	return LoginResponse{
		UserID:    r.UserID,
		FullName:  r.FullName,
		Email:     r.Email,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
	}
}

// ReconciliationResponse reports whether a wallet matches its ledger.
type ReconciliationResponse struct {
	WalletID          string    `json:"wallet_id"`
	Currency          string    `json:"currency"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	IsReconciled      bool      `json:"is_reconciled"`
	CheckedAt         time.Time `json:"checked_at"`
}

// ReconciliationFromResult converts a use case result to response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) ReconciliationResponse {
	return ReconciliationResponse{
		WalletID:          r.WalletID,
		Currency:          r.Currency.String(),
		RecordedBalance:   r.RecordedBalance.StringFixed(domain.MoneyScale),
		CalculatedBalance: r.CalculatedBalance.StringFixed(domain.MoneyScale),
		Difference:        r.Difference.StringFixed(domain.MoneyScale),
		IsReconciled:      r.IsReconciled,
		CheckedAt:         r.CheckedAt,
	}
}
