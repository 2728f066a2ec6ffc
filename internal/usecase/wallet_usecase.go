package usecase

import (
	"context"
	"strings"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// WalletUseCase handles wallet lifecycle operations.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	userRepo   UserRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	cache      BalanceCache
	metrics    *metrics.Metrics
}

// NewWalletUseCase creates a new WalletUseCase. cache and metrics may be nil.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	userRepo UserRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache BalanceCache,
	metrics *metrics.Metrics,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		cache:      cache,
		metrics:    metrics,
	}
}

// CreateWalletInput represents input for creating a wallet.
type CreateWalletInput struct {
	UserID      string          `validate:"required,uuid"`
	Name        string          `validate:"required,min=3,max=200,wallet_name"`
	Description *string         `validate:"omitempty,max=500"`
	Currency    domain.Currency `validate:"currency"`
}

// CreateWallet opens an empty wallet for an existing user.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, input CreateWalletInput) (*domain.Wallet, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, domain.ErrInvalidUserID
	}
	if err := domain.ValidateWalletName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateWalletDescription(input.Description); err != nil {
		return nil, err
	}

	exists, err := uc.userRepo.Exists(ctx, input.UserID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	wallet := domain.NewWallet(uc.idGen.Generate(), input.UserID, strings.TrimSpace(input.Name), input.Description, input.Currency)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, persistenceError(err)
	}
	defer tx.Rollback(txCtx)

	if err := uc.walletRepo.Create(txCtx, tx, wallet); err != nil {
		return nil, persistenceError(err)
	}
	if err := uc.outboxRepo.Create(txCtx, tx, walletCreatedEvent(uc.idGen.Generate(), wallet)); err != nil {
		return nil, persistenceError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, persistenceError(err)
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return wallet, nil
}

// UpdateWalletStatusInput represents an administrative status change.
type UpdateWalletStatusInput struct {
	WalletID string              `validate:"required,uuid"`
	Status   domain.WalletStatus `validate:"wallet_status"`
}

// UpdateWalletStatus activates or deactivates a wallet. Balances are untouched.
func (uc *WalletUseCase) UpdateWalletStatus(ctx context.Context, input UpdateWalletStatusInput) (*domain.Wallet, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, persistenceError(err)
	}
	defer tx.Rollback(txCtx)

	wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, input.WalletID)
	if err != nil {
		return nil, persistenceError(err)
	}

	if wallet.Status == input.Status {
		return wallet, nil
	}
	wallet.UpdateStatus(input.Status)

	if err := uc.walletRepo.Update(txCtx, tx, wallet); err != nil {
		return nil, persistenceError(err)
	}

	event := domain.NewOutboxEvent(
		uc.idGen.Generate(),
		wallet.ID,
		domain.AggregateTypeWallet,
		domain.EventTypeWalletStatusChanged,
		domain.WalletStatusChangedEvent{WalletID: wallet.ID, Status: wallet.Status.String()}.Payload(),
	)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, persistenceError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, persistenceError(err)
	}

	invalidateBalances(ctx, uc.cache, wallet.ID)

	return wallet, nil
}

// GetUserWalletsInput represents input for listing a user's wallets.
type GetUserWalletsInput struct {
	UserID string `validate:"required,uuid"`
}

// GetUserWallets returns the user's wallets, or an empty list.
func (uc *WalletUseCase) GetUserWallets(ctx context.Context, input GetUserWalletsInput) ([]*domain.Wallet, error) {
	wallets, err := uc.walletRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if wallets == nil {
		wallets = []*domain.Wallet{}
	}
	return wallets, nil
}

func walletCreatedEvent(id string, wallet *domain.Wallet) *domain.OutboxEvent {
	return domain.NewOutboxEvent(
		id,
		wallet.ID,
		domain.AggregateTypeWallet,
		domain.EventTypeWalletCreated,
		domain.WalletCreatedEvent{
			WalletID: wallet.ID,
			UserID:   wallet.UserID,
			Name:     wallet.Name,
			Currency: wallet.Currency().String(),
		}.Payload(),
	)
}
