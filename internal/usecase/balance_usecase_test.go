package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func newBalanceUseCase(f *fixture) *usecase.BalanceUseCase {
	return usecase.NewBalanceUseCase(f.txManager, f.wallets, f.txs, f.outbox, mocks.NewMockRetrier(), f.ids, f.cache, 0, nil)
}

func TestBalanceUseCase_AddBalance(t *testing.T) {
	f := newFixture(fundedWallet(t, "wallet-a", "user-1", "10.00", domain.CurrencyBRL))
	uc := newBalanceUseCase(f)

	ref := "deposit-42"
	result, err := uc.AddBalance(context.Background(), usecase.AddBalanceInput{
		WalletID:    "wallet-a",
		Amount:      decimal.RequireFromString("15.255"),
		Description: "payroll deposit",
		Reference:   &ref,
	})
	require.NoError(t, err)

	// Amounts are rounded to cents.
	assert.Equal(t, "15.26", result.Amount.StringFixed(2))
	assert.Equal(t, "25.26", result.NewBalance.StringFixed(2))
	assert.Equal(t, domain.CurrencyBRL, result.Currency)
	assertBalance(t, f.wallets, "wallet-a", "25.26")

	stored, err := f.txs.GetByID(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCredit, stored.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, stored.Status)
	require.NotNil(t, stored.Reference)
	assert.Equal(t, ref, *stored.Reference)

	require.Len(t, f.outbox.Events, 1)
	assert.Equal(t, domain.EventTypeWalletCredited, f.outbox.Events[0].EventType)
	assert.Contains(t, f.cache.Invalidated, "wallet-a")
}

func TestBalanceUseCase_AddBalance_Errors(t *testing.T) {
	t.Run("non-positive amount", func(t *testing.T) {
		f := newFixture(fundedWallet(t, "wallet-a", "user-1", "10", domain.CurrencyBRL))
		_, err := newBalanceUseCase(f).AddBalance(context.Background(), usecase.AddBalanceInput{
			WalletID:    "wallet-a",
			Amount:      decimal.Zero,
			Description: "nothing at all",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		assert.Empty(t, f.wallets.Calls)
	})

	t.Run("amount rounds to zero", func(t *testing.T) {
		f := newFixture(fundedWallet(t, "wallet-a", "user-1", "10", domain.CurrencyBRL))
		_, err := newBalanceUseCase(f).AddBalance(context.Background(), usecase.AddBalanceInput{
			WalletID:    "wallet-a",
			Amount:      decimal.RequireFromString("0.004"),
			Description: "fraction of a cent",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		assert.Empty(t, f.wallets.Calls)
		assert.Empty(t, f.txs.All())
		assertBalance(t, f.wallets, "wallet-a", "10")
	})

	t.Run("unknown wallet", func(t *testing.T) {
		f := newFixture()
		_, err := newBalanceUseCase(f).AddBalance(context.Background(), usecase.AddBalanceInput{
			WalletID:    "wallet-x",
			Amount:      decimal.NewFromInt(5),
			Description: "top up wallet",
		})
		assert.ErrorIs(t, err, domain.ErrWalletNotFound)
	})

	t.Run("commit failure leaves balance unchanged", func(t *testing.T) {
		f := newFixture(fundedWallet(t, "wallet-a", "user-1", "10", domain.CurrencyBRL))
		f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
			return &mocks.MockTransaction{
				CommitFunc: func(ctx context.Context) error { return errors.New("connection reset") },
			}, nil
		}

		_, err := newBalanceUseCase(f).AddBalance(context.Background(), usecase.AddBalanceInput{
			WalletID:    "wallet-a",
			Amount:      decimal.NewFromInt(5),
			Description: "top up wallet",
		})
		assert.ErrorIs(t, err, domain.ErrPersistence)
		assertBalance(t, f.wallets, "wallet-a", "10")
		assert.Empty(t, f.txs.All())
		assert.Empty(t, f.outbox.Events)
	})
}

func TestBalanceUseCase_GetWalletBalance(t *testing.T) {
	f := newFixture(fundedWallet(t, "wallet-a", "user-1", "42.50", domain.CurrencyEUR))
	uc := newBalanceUseCase(f)
	input := usecase.GetWalletBalanceInput{WalletID: "wallet-a"}

	first, err := uc.GetWalletBalance(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "42.50", first.Balance.StringFixed(2))
	assert.Equal(t, domain.CurrencyEUR, first.Currency)
	assert.Equal(t, domain.WalletStatusActive, first.Status)

	calls := len(f.wallets.Calls)
	second, err := uc.GetWalletBalance(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, f.wallets.Calls, calls, "second read should be served from cache")

	_, err = uc.AddBalance(context.Background(), usecase.AddBalanceInput{
		WalletID:    "wallet-a",
		Amount:      decimal.NewFromInt(1),
		Description: "cache buster",
	})
	require.NoError(t, err)

	third, err := uc.GetWalletBalance(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "43.50", third.Balance.StringFixed(2))
}

func TestBalanceUseCase_GetWalletBalance_CacheErrorFallsThrough(t *testing.T) {
	f := newFixture(fundedWallet(t, "wallet-a", "user-1", "1", domain.CurrencyBRL))
	f.cache.GetFunc = func(ctx context.Context, walletID string) (*usecase.WalletBalance, error) {
		return nil, errors.New("redis down")
	}

	balance, err := newBalanceUseCase(f).GetWalletBalance(context.Background(), usecase.GetWalletBalanceInput{WalletID: "wallet-a"})
	require.NoError(t, err)
	assert.Equal(t, "1.00", balance.Balance.StringFixed(2))
}

func TestBalanceUseCase_GetWalletBalance_NotFound(t *testing.T) {
	f := newFixture()
	_, err := newBalanceUseCase(f).GetWalletBalance(context.Background(), usecase.GetWalletBalanceInput{WalletID: "wallet-x"})
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}
