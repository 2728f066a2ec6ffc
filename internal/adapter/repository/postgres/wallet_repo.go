package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	queries *generated.Queries
}

// NewWalletRepository creates a new WalletRepository. db is usually a *pgxpool.Pool.
func NewWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{queries: generated.New(db)}
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row)
}

// GetByUserID lists a user's wallets, oldest first.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	rows, err := r.queries.GetWalletsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return rowsToWallets(rows)
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	row, err := queriesFor(tx).GetWalletByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row)
}

// GetByIDsForUpdate locks the wallets in id order. Missing ids are skipped.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	rows, err := queriesFor(tx).GetWalletsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	return rowsToWallets(rows)
}

// Create inserts a new wallet.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	return queriesFor(tx).CreateWallet(ctx, generated.CreateWalletParams{
		ID:          wallet.ID,
		UserID:      wallet.UserID,
		Name:        wallet.Name,
		Description: optionalText(wallet.Description),
		Balance:     decimalToNumeric(wallet.Balance.Amount()),
		Currency:    int16(wallet.Currency()),
		Status:      int16(wallet.Status),
		Version:     wallet.Version,
		CreatedAt:   timeToPgTimestamptz(wallet.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(wallet.UpdatedAt),
	})
}

// CreateMany inserts wallets in order.
func (r *WalletRepository) CreateMany(ctx context.Context, tx usecase.Transaction, wallets []*domain.Wallet) error {
	for _, wallet := range wallets {
		if err := r.Create(ctx, tx, wallet); err != nil {
			return err
		}
	}
	return nil
}

// Update writes the wallet if its version is unchanged since it was read
// and bumps the version. A stale version yields domain.ErrConcurrentUpdate.
func (r *WalletRepository) Update(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	affected, err := queriesFor(tx).UpdateWallet(ctx, generated.UpdateWalletParams{
		ID:          wallet.ID,
		Name:        wallet.Name,
		Description: optionalText(wallet.Description),
		Balance:     decimalToNumeric(wallet.Balance.Amount()),
		Status:      int16(wallet.Status),
		UpdatedAt:   timeToPgTimestamptz(wallet.UpdatedAt),
		Version:     wallet.Version,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConcurrentUpdate
	}

	wallet.Version++
	return nil
}

// UpdateMany updates wallets in order and stops at the first failure.
func (r *WalletRepository) UpdateMany(ctx context.Context, tx usecase.Transaction, wallets []*domain.Wallet) error {
	for _, wallet := range wallets {
		if err := r.Update(ctx, tx, wallet); err != nil {
			return err
		}
	}
	return nil
}
