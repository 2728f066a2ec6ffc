package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

var transactionColumns = []string{"id", "wallet_id", "amount", "currency", "type", "description", "reference", "status", "created_at", "updated_at", "processed_at"}

func TestTransactionRepositoryCreateMany(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	amount, _ := domain.NewMoney(decimal.NewFromInt(10), domain.CurrencyBRL)
	ref := "TRANSFER-1"
	debit := domain.NewTransaction("t-1", "w-1", amount, domain.TransactionTypeDebit, "out", &ref)
	credit := domain.NewTransaction("t-2", "w-2", amount, domain.TransactionTypeCredit, "in", &ref)

	for _, leg := range []*domain.Transaction{debit, credit} {
		pool.ExpectExec("CreateTransaction :exec").
			WithArgs(leg.ID, leg.WalletID, pgxmock.AnyArg(), int16(domain.CurrencyBRL), int16(leg.Type), leg.Description, pgxmock.AnyArg(), int16(domain.TransactionStatusPending), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	if err := NewTransactionRepository(pool).CreateMany(context.Background(), tx, []*domain.Transaction{debit, credit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	now := time.Now().UTC()

	pool.ExpectQuery("GetTransactionByID :one").
		WithArgs("t-1").
		WillReturnRows(pool.NewRows(transactionColumns).
			AddRow("t-1", "w-1", "42.10", int16(domain.CurrencyUSD), int16(domain.TransactionTypeCredit), "deposit", "ref-1", int16(domain.TransactionStatusCompleted), now, now, now))

	got, err := NewTransactionRepository(pool).GetByID(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsCredit() || got.Status != domain.TransactionStatusCompleted {
		t.Fatalf("unexpected transaction %+v", got)
	}
	if got.Reference == nil || *got.Reference != "ref-1" || got.ProcessedAt == nil {
		t.Fatalf("expected reference and processed time, got %+v", got)
	}
	if got.Amount.String() != "42.10 USD" {
		t.Fatalf("expected 42.10 USD, got %s", got.Amount)
	}

	pool.ExpectQuery("GetTransactionByID :one").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := NewTransactionRepository(pool).GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryListByUser(t *testing.T) {
	pool := newMockPool(t)
	now := time.Now().UTC()
	from := now.Add(-time.Hour)

	pool.ExpectQuery("ListTransactionsByUser :many").
		WithArgs("u-1", pgxmock.AnyArg(), pgxmock.AnyArg(), int32(50), int32(0)).
		WillReturnRows(pool.NewRows(transactionColumns).
			AddRow("t-2", "w-1", "5.00", int16(domain.CurrencyBRL), int16(domain.TransactionTypeDebit), "coffee", nil, int16(domain.TransactionStatusCompleted), now, now, now))

	txs, err := NewTransactionRepository(pool).ListByUser(context.Background(), "u-1", usecase.TransactionFilter{From: &from, Limit: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 || !txs[0].IsDebit() || txs[0].Reference != nil {
		t.Fatalf("unexpected result %+v", txs)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositorySumCompletedByWallet(t *testing.T) {
	pool := newMockPool(t)

	pool.ExpectQuery("SumCompletedByWallet :one").
		WithArgs("w-1").
		WillReturnRows(pool.NewRows([]string{"credits", "debits"}).AddRow("150.00", "49.99"))

	credits, debits, err := NewTransactionRepository(pool).SumCompletedByWallet(context.Background(), "w-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if credits.Sub(debits).String() != "100.01" {
		t.Fatalf("expected 100.01, got %s", credits.Sub(debits))
	}

	assertExpectations(t, pool)
}
