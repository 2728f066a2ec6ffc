package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// BalanceUseCase credits single wallets and serves balances.
type BalanceUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txRepo     TransactionRepository
	outboxRepo OutboxRepository
	retrier    Retrier
	idGen      IDGenerator
	cache      BalanceCache
	cacheTTL   time.Duration
	metrics    *metrics.Metrics
}

// NewBalanceUseCase creates a new BalanceUseCase. cache and metrics may be nil.
func NewBalanceUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	cache BalanceCache,
	cacheTTL time.Duration,
	metrics *metrics.Metrics,
) *BalanceUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultBalanceCacheTTL
	}
	return &BalanceUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		retrier:    retrier,
		idGen:      idGen,
		cache:      cache,
		cacheTTL:   cacheTTL,
		metrics:    metrics,
	}
}

// AddBalanceInput represents input for crediting a wallet.
type AddBalanceInput struct {
	WalletID    string          `validate:"required,uuid"`
	Amount      decimal.Decimal `validate:"positive_decimal,max_decimals=2"`
	Description string          `validate:"required,min=5,max=1000"`
	Reference   *string         `validate:"omitempty,max=100"`
}

// AddBalanceResult describes a committed credit.
type AddBalanceResult struct {
	TransactionID string
	WalletID      string
	Amount        decimal.Decimal
	Currency      domain.Currency
	NewBalance    decimal.Decimal
	Description   string
	CreatedAt     time.Time
}

// AddBalance applies one credit transaction to a wallet and persists both.
func (uc *BalanceUseCase) AddBalance(ctx context.Context, input AddBalanceInput) (*AddBalanceResult, error) {
	// Checked at the stored scale; 0.004 would be persisted as zero.
	if !input.Amount.Round(domain.MoneyScale).IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var result *AddBalanceResult
	err := uc.retrier.Retry(txCtx, func() error {
		var err error
		result, err = uc.addBalanceOnce(txCtx, input)
		return err
	})
	if err != nil {
		uc.countOperation("add_balance", err)
		return nil, err
	}

	invalidateBalances(ctx, uc.cache, result.WalletID)

	uc.countOperation("add_balance", nil)
	if uc.metrics != nil {
		uc.metrics.WalletCredits.WithLabelValues(result.Currency.String()).Inc()
	}

	return result, nil
}

func (uc *BalanceUseCase) addBalanceOnce(ctx context.Context, input AddBalanceInput) (*AddBalanceResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, input.WalletID)
	if err != nil {
		return nil, persistenceError(err)
	}

	amount, err := domain.NewMoney(input.Amount, wallet.Currency())
	if err != nil || amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	credit := domain.NewTransaction(
		uc.idGen.Generate(),
		wallet.ID,
		amount,
		domain.TransactionTypeCredit,
		input.Description,
		input.Reference,
	)
	if err := wallet.CalculateBalance(credit); err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(ctx, tx, credit); err != nil {
		return nil, persistenceError(err)
	}
	if err := uc.walletRepo.Update(ctx, tx, wallet); err != nil {
		return nil, persistenceError(err)
	}

	event := domain.NewOutboxEvent(
		uc.idGen.Generate(),
		wallet.ID,
		domain.AggregateTypeWallet,
		domain.EventTypeWalletCredited,
		domain.WalletCreditedEvent{
			WalletID:      wallet.ID,
			TransactionID: credit.ID,
			Amount:        amount.Amount().StringFixed(domain.MoneyScale),
			Currency:      amount.Currency().String(),
			NewBalance:    wallet.Balance.Amount().StringFixed(domain.MoneyScale),
		}.Payload(),
	)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, persistenceError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistenceError(err)
	}

	return &AddBalanceResult{
		TransactionID: credit.ID,
		WalletID:      wallet.ID,
		Amount:        amount.Amount(),
		Currency:      amount.Currency(),
		NewBalance:    wallet.Balance.Amount(),
		Description:   credit.Description,
		CreatedAt:     credit.CreatedAt,
	}, nil
}

// GetWalletBalanceInput represents input for reading a balance.
type GetWalletBalanceInput struct {
	WalletID string `validate:"required,uuid"`
}

// WalletBalance is the read model served by GetWalletBalance.
type WalletBalance struct {
	WalletID string
	Balance  decimal.Decimal
	Currency domain.Currency
	Status   domain.WalletStatus
}

// GetWalletBalance reads through the balance cache when one is configured.
func (uc *BalanceUseCase) GetWalletBalance(ctx context.Context, input GetWalletBalanceInput) (*WalletBalance, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, input.WalletID)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("wallet_id", input.WalletID).Msg("balance cache read failed")
		}
		if cached != nil {
			uc.countCache("hit")
			return cached, nil
		}
		uc.countCache("miss")
	}

	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}

	balance := &WalletBalance{
		WalletID: wallet.ID,
		Balance:  wallet.Balance.Amount(),
		Currency: wallet.Currency(),
		Status:   wallet.Status,
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, balance, uc.cacheTTL); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("wallet_id", wallet.ID).Msg("balance cache write failed")
		}
	}

	return balance, nil
}

func (uc *BalanceUseCase) countOperation(operation string, err error) {
	if uc.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = errorLabel(err)
	}
	uc.metrics.WalletOperations.WithLabelValues(operation, outcome).Inc()
}

func (uc *BalanceUseCase) countCache(result string) {
	if uc.metrics != nil {
		uc.metrics.BalanceCache.WithLabelValues(result).Inc()
	}
}
