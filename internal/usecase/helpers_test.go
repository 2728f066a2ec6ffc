package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func money(t *testing.T, amount string, currency domain.Currency) domain.Money {
	t.Helper()
	m, err := domain.NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		t.Fatalf("NewMoney(%s): %v", amount, err)
	}
	return m
}

func fundedWallet(t *testing.T, id, userID, balance string, currency domain.Currency) *domain.Wallet {
	t.Helper()
	w := domain.NewWallet(id, userID, "Main wallet", nil, currency)
	w.Balance = money(t, balance, currency)
	return w
}

type fixture struct {
	txManager *mocks.MockTransactionManager
	wallets   *mocks.MockWalletRepository
	txs       *mocks.MockTransactionRepository
	users     *mocks.MockUserRepository
	outbox    *mocks.MockOutboxRepository
	cache     *mocks.MockBalanceCache
	ids       *mocks.MockIDGenerator
}

func newFixture(wallets ...*domain.Wallet) *fixture {
	return &fixture{
		txManager: mocks.NewMockTransactionManager(),
		wallets:   mocks.NewMockWalletRepository(wallets...),
		txs:       mocks.NewMockTransactionRepository(),
		users:     mocks.NewMockUserRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		cache:     mocks.NewMockBalanceCache(),
		ids:       mocks.NewMockIDGenerator(),
	}
}

func assertBalance(t *testing.T, repo *mocks.MockWalletRepository, id, want string) {
	t.Helper()
	w := repo.Stored(id)
	if w == nil {
		t.Fatalf("wallet %s not stored", id)
	}
	if !w.Balance.Amount().Equal(decimal.RequireFromString(want)) {
		t.Errorf("wallet %s balance = %s, want %s", id, w.Balance.Amount(), want)
	}
}
