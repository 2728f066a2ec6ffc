package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// TransferUseCase moves money between two wallets as one unit of work.
type TransferUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txRepo     TransactionRepository
	outboxRepo OutboxRepository
	retrier    Retrier
	idGen      IDGenerator
	refGen     IDGenerator
	cache      BalanceCache
	metrics    *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase. idGen names transactions,
// refGen names transfers. cache and metrics may be nil.
func NewTransferUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	refGen IDGenerator,
	cache BalanceCache,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		retrier:    retrier,
		idGen:      idGen,
		refGen:     refGen,
		cache:      cache,
		metrics:    metrics,
	}
}

// CreateTransferInput represents input for creating a transfer.
type CreateTransferInput struct {
	FromWalletID string          `validate:"required,uuid"`
	ToWalletID   string          `validate:"required,uuid,nefield=FromWalletID"`
	Amount       decimal.Decimal `validate:"positive_decimal,max_decimals=2"`
	Currency     domain.Currency `validate:"currency"`
	Description  string          `validate:"required,min=5,max=255"`
	Reference    *string         `validate:"omitempty,max=100"`
}

// TransferResult describes a committed transfer.
type TransferResult struct {
	FromTransactionID string
	ToTransactionID   string
	FromWalletID      string
	ToWalletID        string
	Reference         string
	Amount            decimal.Decimal
	Currency          domain.Currency
	Description       string
	CreatedAt         time.Time
}

// CreateTransfer debits the source wallet and credits the destination wallet.
// Either both legs and both balances are committed or nothing is.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*TransferResult, error) {
	start := time.Now()

	result, err := uc.createTransfer(ctx, input)

	if uc.metrics != nil {
		if err != nil {
			uc.metrics.TransferErrors.WithLabelValues(errorLabel(err)).Inc()
		} else {
			uc.metrics.TransfersCompleted.Inc()
			uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
			uc.metrics.TransferAmount.WithLabelValues(result.Currency.String()).Observe(result.Amount.InexactFloat64())
		}
	}

	return result, err
}

func (uc *TransferUseCase) createTransfer(ctx context.Context, input CreateTransferInput) (*TransferResult, error) {
	// Checks that need no wallet run before any repository call.
	// Checked at the stored scale; 0.004 would be persisted as zero.
	if !input.Amount.Round(domain.MoneyScale).IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if input.FromWalletID == input.ToWalletID {
		return nil, domain.ErrSameWallet
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var result *TransferResult
	err := uc.retrier.Retry(txCtx, func() error {
		var err error
		result, err = uc.transferOnce(txCtx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidateBalances(ctx, uc.cache, result.FromWalletID, result.ToWalletID)

	return result, nil
}

// transferOnce runs one attempt. Wallets are re-read under lock on every
// attempt, so a retry re-validates against the current balances.
func (uc *TransferUseCase) transferOnce(ctx context.Context, input CreateTransferInput) (*TransferResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	defer tx.Rollback(ctx)

	// Lock in sorted order (DEADLOCK PREVENTION)
	ids := []string{input.FromWalletID, input.ToWalletID}
	sort.Strings(ids)

	wallets, err := uc.walletRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, persistenceError(err)
	}

	from := findWallet(wallets, input.FromWalletID)
	if from == nil {
		return nil, domain.ErrFromWalletNotFound
	}
	to := findWallet(wallets, input.ToWalletID)
	if to == nil {
		return nil, domain.ErrToWalletNotFound
	}

	if from.Currency() != to.Currency() || input.Currency != from.Currency() {
		return nil, domain.ErrInvalidCurrency
	}

	amount, err := domain.NewMoney(input.Amount, from.Currency())
	if err != nil || amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}
	if !from.CanDebit(amount) {
		return nil, domain.ErrInsufficientFunds
	}

	transferID := uc.refGen.Generate()
	reference := TransferReferencePrefix + transferID
	if input.Reference != nil && *input.Reference != "" {
		reference = *input.Reference
	}

	debit := domain.NewTransaction(
		uc.idGen.Generate(),
		from.ID,
		amount,
		domain.TransactionTypeDebit,
		fmt.Sprintf("Transfer to wallet %s: %s", to.ID, input.Description),
		&reference,
	)
	credit := domain.NewTransaction(
		uc.idGen.Generate(),
		to.ID,
		amount,
		domain.TransactionTypeCredit,
		fmt.Sprintf("Transfer from wallet %s: %s", from.ID, input.Description),
		&reference,
	)

	// Both balances change in memory before anything is written.
	if err := from.CalculateBalance(debit); err != nil {
		return nil, err
	}
	if err := to.CalculateBalance(credit); err != nil {
		return nil, err
	}

	if err := uc.txRepo.CreateMany(ctx, tx, []*domain.Transaction{debit, credit}); err != nil {
		return nil, persistenceError(err)
	}
	if err := uc.walletRepo.UpdateMany(ctx, tx, []*domain.Wallet{from, to}); err != nil {
		return nil, persistenceError(err)
	}

	event := domain.NewOutboxEvent(
		uc.refGen.Generate(),
		transferID,
		domain.AggregateTypeTransfer,
		domain.EventTypeTransferCompleted,
		domain.TransferCompletedEvent{
			Reference:         reference,
			FromWalletID:      from.ID,
			ToWalletID:        to.ID,
			FromTransactionID: debit.ID,
			ToTransactionID:   credit.ID,
			Amount:            amount.Amount().StringFixed(domain.MoneyScale),
			Currency:          amount.Currency().String(),
		}.Payload(),
	)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, persistenceError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistenceError(err)
	}

	return &TransferResult{
		FromTransactionID: debit.ID,
		ToTransactionID:   credit.ID,
		FromWalletID:      from.ID,
		ToWalletID:        to.ID,
		Reference:         reference,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
		Description:       input.Description,
		CreatedAt:         debit.CreatedAt,
	}, nil
}

func findWallet(wallets []*domain.Wallet, id string) *domain.Wallet {
	for _, w := range wallets {
		if w != nil && w.ID == id {
			return w
		}
	}
	return nil
}

// persistenceError marks infrastructure failures so they are never mistaken
// for business codes.
func persistenceError(err error) error {
	if domain.IsBusinessError(err) || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

func errorLabel(err error) string {
	if e, ok := domain.AsBusinessError(err); ok {
		return string(e.Code)
	}
	if errors.Is(err, domain.ErrPersistence) {
		return "persistence"
	}
	return "other"
}

// invalidateBalances is best effort; a stale entry expires with its TTL.
func invalidateBalances(ctx context.Context, cache BalanceCache, walletIDs ...string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, walletIDs...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Strs("wallet_ids", walletIDs).Msg("failed to invalidate cached balances")
	}
}
