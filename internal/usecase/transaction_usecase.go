package usecase

import (
	"context"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// TransactionQueryUseCase serves read-only views of the ledger.
type TransactionQueryUseCase struct {
	txRepo     TransactionRepository
	walletRepo WalletRepository
	userRepo   UserRepository
}

// NewTransactionQueryUseCase creates a new TransactionQueryUseCase.
func NewTransactionQueryUseCase(txRepo TransactionRepository, walletRepo WalletRepository, userRepo UserRepository) *TransactionQueryUseCase {
	return &TransactionQueryUseCase{
		txRepo:     txRepo,
		walletRepo: walletRepo,
		userRepo:   userRepo,
	}
}

// GetUserTransactionsInput filters a user's transactions by processed time.
// The date rules live in the validator's struct-level check.
type GetUserTransactionsInput struct {
	UserID    string `validate:"required,uuid"`
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int `validate:"gte=0,lte=500"`
	Offset    int `validate:"gte=0"`
}

// GetUserTransactions lists transactions across all of a user's wallets,
// newest first.
func (uc *TransactionQueryUseCase) GetUserTransactions(ctx context.Context, input GetUserTransactionsInput) ([]*domain.Transaction, error) {
	exists, err := uc.userRepo.Exists(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	return nonNil(uc.txRepo.ListByUser(ctx, input.UserID, TransactionFilter{
		From:   input.StartDate,
		To:     input.EndDate,
		Limit:  clampLimit(input.Limit),
		Offset: input.Offset,
	}))
}

// GetWalletTransactionsInput represents input for a wallet statement.
type GetWalletTransactionsInput struct {
	WalletID string `validate:"required,uuid"`
	Limit    int    `validate:"gte=0,lte=500"`
	Offset   int    `validate:"gte=0"`
}

// GetWalletTransactions lists one wallet's transactions, newest first.
func (uc *TransactionQueryUseCase) GetWalletTransactions(ctx context.Context, input GetWalletTransactionsInput) ([]*domain.Transaction, error) {
	if _, err := uc.walletRepo.GetByID(ctx, input.WalletID); err != nil {
		return nil, err
	}

	return nonNil(uc.txRepo.ListByWallet(ctx, input.WalletID, TransactionFilter{
		Limit:  clampLimit(input.Limit),
		Offset: input.Offset,
	}))
}

// GetTransactionInput represents input for a single transaction lookup.
type GetTransactionInput struct {
	TransactionID string `validate:"required,uuid"`
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionQueryUseCase) GetTransaction(ctx context.Context, input GetTransactionInput) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, input.TransactionID)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func nonNil(transactions []*domain.Transaction, err error) ([]*domain.Transaction, error) {
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	return transactions, nil
}
