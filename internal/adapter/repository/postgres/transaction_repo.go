package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row)
}

// Create inserts a transaction within tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	return insertTransaction(ctx, queriesFor(tx), t)
}

// CreateMany inserts transactions in order within tx.
func (r *TransactionRepository) CreateMany(ctx context.Context, tx usecase.Transaction, transactions []*domain.Transaction) error {
	queries := queriesFor(tx)
	for _, t := range transactions {
		if err := insertTransaction(ctx, queries, t); err != nil {
			return err
		}
	}
	return nil
}

func insertTransaction(ctx context.Context, queries *generated.Queries, t *domain.Transaction) error {
	return queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Amount:      decimalToNumeric(t.Amount.Amount()),
		Currency:    int16(t.Amount.Currency()),
		Type:        int16(t.Type),
		Description: t.Description,
		Reference:   optionalText(t.Reference),
		Status:      int16(t.Status),
		CreatedAt:   timeToPgTimestamptz(t.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(t.UpdatedAt),
		ProcessedAt: optionalTimestamptz(t.ProcessedAt),
	})
}

// ListByWallet lists one wallet's transactions, newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByWallet(ctx, generated.ListTransactionsByWalletParams{
		WalletID: walletID,
		From:     optionalTimestamptz(filter.From),
		To:       optionalTimestamptz(filter.To),
		Limit:    int32(filter.Limit),
		Offset:   int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// ListByUser lists transactions across the user's wallets, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, generated.ListTransactionsByUserParams{
		UserID: userID,
		From:   optionalTimestamptz(filter.From),
		To:     optionalTimestamptz(filter.To),
		Limit:  int32(filter.Limit),
		Offset: int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// SumCompletedByWallet totals completed credits and debits.
func (r *TransactionRepository) SumCompletedByWallet(ctx context.Context, walletID string) (decimal.Decimal, decimal.Decimal, error) {
	row, err := r.queries.SumCompletedByWallet(ctx, walletID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(row.Credits), numericToDecimal(row.Debits), nil
}

