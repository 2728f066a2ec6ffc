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

var walletColumns = []string{"id", "user_id", "name", "description", "balance", "currency", "status", "version", "created_at", "updated_at"}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx
}

func TestWalletRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	now := time.Now().UTC()

	pool.ExpectQuery("GetWalletByID :one").
		WithArgs("w-1").
		WillReturnRows(pool.NewRows(walletColumns).
			AddRow("w-1", "u-1", "Main", nil, "125.50", int16(domain.CurrencyBRL), int16(domain.WalletStatusActive), int64(3), now, now))

	wallet, err := NewWalletRepository(pool).GetByID(context.Background(), "w-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !wallet.Balance.Amount().Equal(decimal.RequireFromString("125.50")) {
		t.Fatalf("expected balance 125.50, got %s", wallet.Balance.Amount())
	}
	if wallet.Currency() != domain.CurrencyBRL || wallet.Status != domain.WalletStatusActive {
		t.Fatalf("unexpected wallet %+v", wallet)
	}
	if wallet.Version != 3 || wallet.Description != nil {
		t.Fatalf("unexpected version/description: %d %v", wallet.Version, wallet.Description)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("GetWalletByID :one").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := NewWalletRepository(pool).GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestWalletRepositoryGetByIDsForUpdate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectQuery("GetWalletsByIDsForUpdate :many").
		WithArgs([]string{"w-1", "w-2"}).
		WillReturnRows(pool.NewRows(walletColumns).
			AddRow("w-1", "u-1", "Main", nil, "10.00", int16(domain.CurrencyUSD), int16(domain.WalletStatusActive), int64(0), now, now).
			AddRow("w-2", "u-2", "Other", "savings", "0.00", int16(domain.CurrencyUSD), int16(domain.WalletStatusInactive), int64(1), now, now))

	wallets, err := NewWalletRepository(pool).GetByIDsForUpdate(context.Background(), tx, []string{"w-1", "w-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(wallets))
	}
	if wallets[1].Description == nil || *wallets[1].Description != "savings" || wallets[1].IsActive() {
		t.Fatalf("unexpected second wallet %+v", wallets[1])
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryUpdate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	wallet := domain.NewWallet("w-1", "u-1", "Main", nil, domain.CurrencyBRL)
	wallet.Version = 4

	pool.ExpectExec("UpdateWallet :execrows").
		WithArgs("w-1", "Main", pgxmock.AnyArg(), pgxmock.AnyArg(), int16(domain.WalletStatusActive), pgxmock.AnyArg(), int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := NewWalletRepository(pool).Update(context.Background(), tx, wallet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.Version != 5 {
		t.Fatalf("expected version 5, got %d", wallet.Version)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryUpdateStaleVersion(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	wallet := domain.NewWallet("w-1", "u-1", "Main", nil, domain.CurrencyBRL)

	pool.ExpectExec("UpdateWallet :execrows").
		WithArgs("w-1", "Main", pgxmock.AnyArg(), pgxmock.AnyArg(), int16(domain.WalletStatusActive), pgxmock.AnyArg(), int64(0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewWalletRepository(pool).UpdateMany(context.Background(), tx, []*domain.Wallet{wallet, wallet})
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	if wallet.Version != 0 {
		t.Fatalf("version must not change on conflict, got %d", wallet.Version)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryCreate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	desc := "travel"
	wallet := domain.NewWallet("w-1", "u-1", "Trips", &desc, domain.CurrencyEUR)

	pool.ExpectExec("CreateWallet :exec").
		WithArgs("w-1", "u-1", "Trips", pgxmock.AnyArg(), pgxmock.AnyArg(), int16(domain.CurrencyEUR), int16(domain.WalletStatusActive), int64(0), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := NewWalletRepository(pool).Create(context.Background(), tx, wallet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}
