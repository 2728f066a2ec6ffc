package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// queriesFor binds the generated queries to the pgx transaction behind tx.
func queriesFor(tx usecase.Transaction) *generated.Queries {
	return generated.New(tx.(*Tx).PgxTx())
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}

func timestamptzPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func optionalText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func rowToWallet(row generated.Wallet) (*domain.Wallet, error) {
	balance, err := domain.NewMoney(numericToDecimal(row.Balance), domain.Currency(row.Currency))
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", row.ID, err)
	}

	return &domain.Wallet{
		ID:          row.ID,
		UserID:      row.UserID,
		Name:        row.Name,
		Description: textPtr(row.Description),
		Balance:     balance,
		Status:      domain.WalletStatus(row.Status),
		Version:     row.Version,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}, nil
}

func rowsToWallets(rows []generated.Wallet) ([]*domain.Wallet, error) {
	wallets := make([]*domain.Wallet, 0, len(rows))
	for _, row := range rows {
		wallet, err := rowToWallet(row)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, nil
}

func rowToTransaction(row generated.Transaction) (*domain.Transaction, error) {
	amount, err := domain.NewMoney(numericToDecimal(row.Amount), domain.Currency(row.Currency))
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", row.ID, err)
	}

	return &domain.Transaction{
		ID:          row.ID,
		WalletID:    row.WalletID,
		Amount:      amount,
		Type:        domain.TransactionType(row.Type),
		Description: row.Description,
		Reference:   textPtr(row.Reference),
		Status:      domain.TransactionStatus(row.Status),
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
		ProcessedAt: timestamptzPtr(row.ProcessedAt),
	}, nil
}

func rowsToTransactions(rows []generated.Transaction) ([]*domain.Transaction, error) {
	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
