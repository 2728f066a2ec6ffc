package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
	"github.com/iho/gowallet/internal/usecase/mocks/mockgen"
)

func newTransferUseCase(f *fixture) *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(
		f.txManager,
		f.wallets,
		f.txs,
		f.outbox,
		mocks.NewMockRetrier(),
		f.ids,
		&mocks.MockIDGenerator{Prefix: "ref-"},
		f.cache,
		nil,
	)
}

func transferInput(from, to, amount string, currency domain.Currency) usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		FromWalletID: from,
		ToWalletID:   to,
		Amount:       decimal.RequireFromString(amount),
		Currency:     currency,
		Description:  "rent split",
	}
}

func TestTransferUseCase_CreateTransfer(t *testing.T) {
	f := newFixture(
		fundedWallet(t, "wallet-a", "user-1", "1000", domain.CurrencyBRL),
		fundedWallet(t, "wallet-b", "user-2", "0", domain.CurrencyBRL),
	)
	uc := newTransferUseCase(f)

	result, err := uc.CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "100", domain.CurrencyBRL))
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	assertBalance(t, f.wallets, "wallet-a", "900")
	assertBalance(t, f.wallets, "wallet-b", "100")

	if !strings.HasPrefix(result.Reference, usecase.TransferReferencePrefix) {
		t.Errorf("Reference = %q, want %s prefix", result.Reference, usecase.TransferReferencePrefix)
	}
	if result.FromTransactionID == result.ToTransactionID {
		t.Error("both legs share a transaction id")
	}

	debit, err := f.txs.GetByID(context.Background(), result.FromTransactionID)
	if err != nil {
		t.Fatalf("debit leg not stored: %v", err)
	}
	credit, err := f.txs.GetByID(context.Background(), result.ToTransactionID)
	if err != nil {
		t.Fatalf("credit leg not stored: %v", err)
	}

	if debit.Type != domain.TransactionTypeDebit || debit.WalletID != "wallet-a" {
		t.Errorf("debit leg = %+v", debit)
	}
	if credit.Type != domain.TransactionTypeCredit || credit.WalletID != "wallet-b" {
		t.Errorf("credit leg = %+v", credit)
	}
	for _, leg := range []*domain.Transaction{debit, credit} {
		if leg.Status != domain.TransactionStatusCompleted {
			t.Errorf("leg %s status = %s, want Completed", leg.ID, leg.Status)
		}
		if leg.ProcessedAt == nil {
			t.Errorf("leg %s has no processed time", leg.ID)
		}
		if leg.Reference == nil || *leg.Reference != result.Reference {
			t.Errorf("leg %s reference = %v, want %s", leg.ID, leg.Reference, result.Reference)
		}
	}
	if debit.Description != "Transfer to wallet wallet-b: rent split" {
		t.Errorf("debit description = %q", debit.Description)
	}
	if credit.Description != "Transfer from wallet wallet-a: rent split" {
		t.Errorf("credit description = %q", credit.Description)
	}

	if len(f.outbox.Events) != 1 || f.outbox.Events[0].EventType != domain.EventTypeTransferCompleted {
		t.Errorf("outbox events = %+v, want one transfer.completed", f.outbox.Events)
	}
	if len(f.cache.Invalidated) != 2 {
		t.Errorf("invalidated = %v, want both wallets", f.cache.Invalidated)
	}
}

func TestTransferUseCase_ConservesTotal(t *testing.T) {
	f := newFixture(
		fundedWallet(t, "wallet-a", "user-1", "250.75", domain.CurrencyUSD),
		fundedWallet(t, "wallet-b", "user-2", "10.10", domain.CurrencyUSD),
	)
	uc := newTransferUseCase(f)

	for _, amount := range []string{"0.01", "100.50", "50"} {
		if _, err := uc.CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", amount, domain.CurrencyUSD)); err != nil {
			t.Fatalf("CreateTransfer(%s) error = %v", amount, err)
		}
	}

	total := f.wallets.Stored("wallet-a").Balance.Amount().Add(f.wallets.Stored("wallet-b").Balance.Amount())
	if !total.Equal(decimal.RequireFromString("260.85")) {
		t.Errorf("total = %s, want 260.85", total)
	}
	assertBalance(t, f.wallets, "wallet-a", "100.24")
}

func TestTransferUseCase_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.CreateTransferInput
		wallets   []*domain.Wallet
		errorType error
		noRepo    bool
	}{
		{
			name:      "same wallet",
			input:     transferInput("wallet-a", "wallet-a", "10", domain.CurrencyBRL),
			errorType: domain.ErrSameWallet,
			noRepo:    true,
		},
		{
			name:      "zero amount",
			input:     transferInput("wallet-a", "wallet-b", "0", domain.CurrencyBRL),
			errorType: domain.ErrInvalidAmount,
			noRepo:    true,
		},
		{
			name:      "amount rounds to zero",
			input:     transferInput("wallet-a", "wallet-b", "0.004", domain.CurrencyBRL),
			errorType: domain.ErrInvalidAmount,
			noRepo:    true,
		},
		{
			name:      "negative amount",
			input:     transferInput("wallet-a", "wallet-b", "-5", domain.CurrencyBRL),
			errorType: domain.ErrInvalidAmount,
			noRepo:    true,
		},
		{
			name:      "missing source",
			input:     transferInput("wallet-x", "wallet-b", "10", domain.CurrencyBRL),
			errorType: domain.ErrFromWalletNotFound,
		},
		{
			name:      "missing destination",
			input:     transferInput("wallet-a", "wallet-x", "10", domain.CurrencyBRL),
			errorType: domain.ErrToWalletNotFound,
		},
		{
			name:      "insufficient funds",
			input:     transferInput("wallet-a", "wallet-b", "1000.01", domain.CurrencyBRL),
			errorType: domain.ErrInsufficientFunds,
		},
		{
			name:  "currency mismatch between wallets",
			input: transferInput("wallet-a", "wallet-e", "10", domain.CurrencyBRL),
			wallets: []*domain.Wallet{
				fundedWallet(t, "wallet-e", "user-3", "0", domain.CurrencyEUR),
			},
			errorType: domain.ErrInvalidCurrency,
		},
		{
			name:      "request currency differs from wallets",
			input:     transferInput("wallet-a", "wallet-b", "10", domain.CurrencyUSD),
			errorType: domain.ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallets := append([]*domain.Wallet{
				fundedWallet(t, "wallet-a", "user-1", "1000", domain.CurrencyBRL),
				fundedWallet(t, "wallet-b", "user-2", "0", domain.CurrencyBRL),
			}, tt.wallets...)
			f := newFixture(wallets...)
			uc := newTransferUseCase(f)

			_, err := uc.CreateTransfer(context.Background(), tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Fatalf("CreateTransfer() error = %v, want %v", err, tt.errorType)
			}
			if !domain.IsBusinessError(err) {
				t.Errorf("error %v is not a business error", err)
			}

			if tt.noRepo && len(f.wallets.Calls) != 0 {
				t.Errorf("repository calls = %v, want none", f.wallets.Calls)
			}
			assertBalance(t, f.wallets, "wallet-a", "1000")
			assertBalance(t, f.wallets, "wallet-b", "0")
			if n := len(f.txs.All()); n != 0 {
				t.Errorf("persisted %d transactions, want 0", n)
			}
			if n := len(f.outbox.Events); n != 0 {
				t.Errorf("persisted %d events, want 0", n)
			}
		})
	}
}

func TestTransferUseCase_InactiveSource(t *testing.T) {
	source := fundedWallet(t, "wallet-a", "user-1", "1000", domain.CurrencyBRL)
	source.Deactivate()
	f := newFixture(source, fundedWallet(t, "wallet-b", "user-2", "0", domain.CurrencyBRL))

	_, err := newTransferUseCase(f).CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "10", domain.CurrencyBRL))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
}

func TestTransferUseCase_CommitFailure(t *testing.T) {
	f := newFixture(
		fundedWallet(t, "wallet-a", "user-1", "1000", domain.CurrencyBRL),
		fundedWallet(t, "wallet-b", "user-2", "0", domain.CurrencyBRL),
	)
	f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		return &mocks.MockTransaction{
			CommitFunc: func(ctx context.Context) error { return errors.New("connection reset") },
		}, nil
	}

	_, err := newTransferUseCase(f).CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "100", domain.CurrencyBRL))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if domain.IsBusinessError(err) {
		t.Errorf("persistence failure reported as business error: %v", err)
	}

	assertBalance(t, f.wallets, "wallet-a", "1000")
	assertBalance(t, f.wallets, "wallet-b", "0")
	if n := len(f.txs.All()); n != 0 {
		t.Errorf("persisted %d transactions, want 0", n)
	}
}

func TestTransferUseCase_WriteFailureRollsBack(t *testing.T) {
	f := newFixture(
		fundedWallet(t, "wallet-a", "user-1", "1000", domain.CurrencyBRL),
		fundedWallet(t, "wallet-b", "user-2", "0", domain.CurrencyBRL),
	)
	f.wallets.UpdateManyFunc = func(ctx context.Context, tx usecase.Transaction, wallets []*domain.Wallet) error {
		return errors.New("disk full")
	}

	_, err := newTransferUseCase(f).CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "100", domain.CurrencyBRL))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}

	if len(f.txManager.Transactions) != 1 {
		t.Fatalf("began %d transactions, want 1", len(f.txManager.Transactions))
	}
	tx := f.txManager.Transactions[0]
	if tx.Committed || !tx.RolledBack {
		t.Errorf("committed=%v rolledBack=%v, want rollback only", tx.Committed, tx.RolledBack)
	}
	if n := len(f.txs.All()); n != 0 {
		t.Errorf("persisted %d transactions, want 0", n)
	}
}

func TestTransferUseCase_RetriesConcurrentUpdate(t *testing.T) {
	f := newFixture(
		fundedWallet(t, "wallet-a", "user-1", "1000", domain.CurrencyBRL),
		fundedWallet(t, "wallet-b", "user-2", "0", domain.CurrencyBRL),
	)
	attempts := 0
	retrier := &mocks.MockRetrier{
		RetryFunc: func(ctx context.Context, operation func() error) error {
			var err error
			for i := 0; i < 3; i++ {
				attempts++
				if err = operation(); !errors.Is(err, domain.ErrConcurrentUpdate) {
					return err
				}
			}
			return err
		},
	}
	failOnce := true
	f.txs.CreateManyFunc = func(ctx context.Context, tx usecase.Transaction, transactions []*domain.Transaction) error {
		if failOnce {
			failOnce = false
			return domain.ErrConcurrentUpdate
		}
		for _, leg := range transactions {
			if err := f.txs.Create(ctx, tx, leg); err != nil {
				return err
			}
		}
		return nil
	}

	uc := usecase.NewTransferUseCase(f.txManager, f.wallets, f.txs, f.outbox, retrier, f.ids, f.ids, nil, nil)
	if _, err := uc.CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "100", domain.CurrencyBRL)); err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	assertBalance(t, f.wallets, "wallet-a", "900")
	assertBalance(t, f.wallets, "wallet-b", "100")
}

func TestTransferUseCase_BeginFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	txManager := mockgen.NewMockTransactionManager(ctrl)
	walletRepo := mockgen.NewMockWalletRepository(ctrl)
	txRepo := mockgen.NewMockTransactionRepository(ctrl)
	outboxRepo := mockgen.NewMockOutboxRepository(ctrl)
	idGen := mockgen.NewMockIDGenerator(ctrl)

	txManager.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("pool exhausted"))

	uc := usecase.NewTransferUseCase(txManager, walletRepo, txRepo, outboxRepo, mocks.NewMockRetrier(), idGen, idGen, nil, nil)
	_, err := uc.CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "100", domain.CurrencyBRL))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
}

func TestTransferUseCase_LocksInSortedOrder(t *testing.T) {
	ctrl := gomock.NewController(t)

	txManager := mockgen.NewMockTransactionManager(ctrl)
	walletRepo := mockgen.NewMockWalletRepository(ctrl)
	tx := mockgen.NewMockTransaction(ctrl)

	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	walletRepo.EXPECT().
		GetByIDsForUpdate(gomock.Any(), tx, []string{"wallet-a", "wallet-z"}).
		Return(nil, nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	uc := usecase.NewTransferUseCase(txManager, walletRepo, nil, nil, mocks.NewMockRetrier(), nil, nil, nil, nil)
	_, err := uc.CreateTransfer(context.Background(), transferInput("wallet-z", "wallet-a", "1", domain.CurrencyBRL))
	if !errors.Is(err, domain.ErrFromWalletNotFound) {
		t.Fatalf("error = %v, want ErrFromWalletNotFound", err)
	}
}

func TestTransferUseCase_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	f := newFixture(
		fundedWallet(t, "wallet-a", "user-1", "10", domain.CurrencyBRL),
		fundedWallet(t, "wallet-b", "user-2", "0", domain.CurrencyBRL),
	)
	uc := usecase.NewTransferUseCase(f.txManager, f.wallets, f.txs, f.outbox, mocks.NewMockRetrier(), f.ids, f.ids, nil, m)

	_, _ = uc.CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "5", domain.CurrencyBRL))
	_, _ = uc.CreateTransfer(context.Background(), transferInput("wallet-a", "wallet-b", "50", domain.CurrencyBRL))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				found[mf.GetName()] += c.GetValue()
			}
		}
	}
	if found["gowallet_transfers_completed_total"] != 1 {
		t.Errorf("transfers completed = %v, want 1", found["gowallet_transfers_completed_total"])
	}
	if found["gowallet_transfer_errors_total"] != 1 {
		t.Errorf("transfer errors = %v, want 1", found["gowallet_transfer_errors_total"])
	}
}
