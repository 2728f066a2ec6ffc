package usecase

//go:generate mockgen -source=interfaces.go -destination=mocks/mockgen/mock_interfaces.go -package=mockgen

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// WalletRepository defines data access for wallets. Lookups of a missing
// wallet return domain.ErrWalletNotFound.
type WalletRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Wallet, error)
	// GetByIDForUpdate locks the wallet row until tx ends.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	// GetByIDsForUpdate locks the rows in ascending id order and returns
	// only the wallets that exist.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	CreateMany(ctx context.Context, tx Transaction, wallets []*domain.Wallet) error
	Update(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	UpdateMany(ctx context.Context, tx Transaction, wallets []*domain.Wallet) error
}

// TransactionFilter narrows transaction listings. From and To bound the
// processed time and are inclusive.
type TransactionFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// TransactionRepository defines data access for ledger transactions.
// Listings are ordered newest first by processed time.
type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	CreateMany(ctx context.Context, tx Transaction, transactions []*domain.Transaction) error
	ListByWallet(ctx context.Context, walletID string, filter TransactionFilter) ([]*domain.Transaction, error)
	ListByUser(ctx context.Context, userID string, filter TransactionFilter) ([]*domain.Transaction, error)
	// SumCompletedByWallet totals completed credits and debits for reconciliation.
	SumCompletedByWallet(ctx context.Context, walletID string) (credits, debits decimal.Decimal, err error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, tx Transaction, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction is the unit of work. Writes issued with the same Transaction
// become durable together on Commit or not at all.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient concurrency failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// BalanceCache is a read-through cache for wallet balances. A miss returns nil, nil.
type BalanceCache interface {
	Get(ctx context.Context, walletID string) (*WalletBalance, error)
	Set(ctx context.Context, balance *WalletBalance, ttl time.Duration) error
	Invalidate(ctx context.Context, walletIDs ...string) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (token string, expiresAt time.Time, err error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request failed before producing a response.
	Release(ctx context.Context, key string) error
}
