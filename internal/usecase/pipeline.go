package usecase

import (
	"context"

	"github.com/iho/gowallet/internal/domain"
)

// Handler is one request/response operation.
type Handler[In, Out any] func(ctx context.Context, in In) (Out, error)

// Validator checks an input against the rule set registered for its type.
type Validator interface {
	Validate(in any) error
}

// WithValidation composes validate and next. Rule violations return before
// next runs.
func WithValidation[In, Out any](v Validator, next Handler[In, Out]) Handler[In, Out] {
	return func(ctx context.Context, in In) (Out, error) {
		if err := v.Validate(in); err != nil {
			var zero Out
			return zero, err
		}
		return next(ctx, in)
	}
}

// Pipelines is the static table from request type to its validated handler.
// It is built once at startup.
type Pipelines struct {
	CreateTransfer        Handler[CreateTransferInput, *TransferResult]
	AddBalance            Handler[AddBalanceInput, *AddBalanceResult]
	GetWalletBalance      Handler[GetWalletBalanceInput, *WalletBalance]
	CreateWallet          Handler[CreateWalletInput, *domain.Wallet]
	UpdateWalletStatus    Handler[UpdateWalletStatusInput, *domain.Wallet]
	GetUserWallets        Handler[GetUserWalletsInput, []*domain.Wallet]
	CreateUser            Handler[CreateUserInput, *CreateUserResult]
	GetUserByID           Handler[GetUserByIDInput, *domain.User]
	Login                 Handler[LoginInput, *LoginResult]
	GetUserTransactions   Handler[GetUserTransactionsInput, []*domain.Transaction]
	GetWalletTransactions Handler[GetWalletTransactionsInput, []*domain.Transaction]
	GetTransaction        Handler[GetTransactionInput, *domain.Transaction]
	ReconcileWallet       Handler[ReconcileWalletInput, *ReconciliationResult]
}

// NewPipelines wires every operation behind v.
func NewPipelines(
	v Validator,
	transfers *TransferUseCase,
	balances *BalanceUseCase,
	wallets *WalletUseCase,
	users *UserUseCase,
	transactions *TransactionQueryUseCase,
	reconciliation *ReconciliationUseCase,
) *Pipelines {
	return &Pipelines{
		CreateTransfer:        WithValidation(v, transfers.CreateTransfer),
		AddBalance:            WithValidation(v, balances.AddBalance),
		GetWalletBalance:      WithValidation(v, balances.GetWalletBalance),
		CreateWallet:          WithValidation(v, wallets.CreateWallet),
		UpdateWalletStatus:    WithValidation(v, wallets.UpdateWalletStatus),
		GetUserWallets:        WithValidation(v, wallets.GetUserWallets),
		CreateUser:            WithValidation(v, users.CreateUser),
		GetUserByID:           WithValidation(v, users.GetUserByID),
		Login:                 WithValidation(v, users.Login),
		GetUserTransactions:   WithValidation(v, transactions.GetUserTransactions),
		GetWalletTransactions: WithValidation(v, transactions.GetWalletTransactions),
		GetTransaction:        WithValidation(v, transactions.GetTransaction),
		ReconcileWallet:       WithValidation(v, reconciliation.ReconcileWallet),
	}
}
