package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// The repositories below keep copies of what they store and hand out copies
// on read, so mutating a loaded aggregate never changes stored state until
// the write is committed through a MockTransaction.

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	c.Transactions = nil
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	return &c
}

// stage defers fn until tx commits when tx is a *MockTransaction.
func stage(tx usecase.Transaction, fn func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.stage(fn)
		return
	}
	fn()
}

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet

	GetByIDFunc           func(ctx context.Context, id string) (*domain.Wallet, error)
	GetByUserIDFunc       func(ctx context.Context, userID string) ([]*domain.Wallet, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error)
	CreateFunc            func(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error
	UpdateFunc            func(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error
	UpdateManyFunc        func(ctx context.Context, tx usecase.Transaction, wallets []*domain.Wallet) error

	Calls []string
}

func NewMockWalletRepository(wallets ...*domain.Wallet) *MockWalletRepository {
	m := &MockWalletRepository{wallets: make(map[string]*domain.Wallet)}
	for _, w := range wallets {
		m.wallets[w.ID] = cloneWallet(w)
	}
	return m
}

func (m *MockWalletRepository) record(call string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()
}

// Stored returns a copy of the committed wallet, or nil.
func (m *MockWalletRepository) Stored(id string) *domain.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[id]; ok {
		return cloneWallet(w)
	}
	return nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	m.record("GetByID")
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if w := m.Stored(id); w != nil {
		return w, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	m.record("GetByUserID")
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var wallets []*domain.Wallet
	for _, w := range m.wallets {
		if w.UserID == userID {
			wallets = append(wallets, cloneWallet(w))
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].CreatedAt.Before(wallets[j].CreatedAt) })
	return wallets, nil
}

func (m *MockWalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	m.record("GetByIDForUpdate")
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	if w := m.Stored(id); w != nil {
		return w, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	m.record("GetByIDsForUpdate")
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	var wallets []*domain.Wallet
	for _, id := range ids {
		if w := m.Stored(id); w != nil {
			wallets = append(wallets, w)
		}
	}
	return wallets, nil
}

func (m *MockWalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	m.record("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, wallet)
	}
	stored := cloneWallet(wallet)
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.wallets[stored.ID] = stored
	})
	return nil
}

func (m *MockWalletRepository) CreateMany(ctx context.Context, tx usecase.Transaction, wallets []*domain.Wallet) error {
	for _, w := range wallets {
		if err := m.Create(ctx, tx, w); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockWalletRepository) Update(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	m.record("Update")
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, wallet)
	}
	stored := cloneWallet(wallet)
	stored.Version++
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.wallets[stored.ID] = stored
	})
	return nil
}

func (m *MockWalletRepository) UpdateMany(ctx context.Context, tx usecase.Transaction, wallets []*domain.Wallet) error {
	m.record("UpdateMany")
	if m.UpdateManyFunc != nil {
		return m.UpdateManyFunc(ctx, tx, wallets)
	}
	for _, w := range wallets {
		stored := cloneWallet(w)
		stored.Version++
		stage(tx, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.wallets[stored.ID] = stored
		})
	}
	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	GetByIDFunc              func(ctx context.Context, id string) (*domain.Transaction, error)
	CreateFunc               func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
	CreateManyFunc           func(ctx context.Context, tx usecase.Transaction, transactions []*domain.Transaction) error
	ListByWalletFunc         func(ctx context.Context, walletID string, filter usecase.TransactionFilter) ([]*domain.Transaction, error)
	ListByUserFunc           func(ctx context.Context, userID string, filter usecase.TransactionFilter) ([]*domain.Transaction, error)
	SumCompletedByWalletFunc func(ctx context.Context, walletID string) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{transactions: make(map[string]*domain.Transaction)}
}

// All returns copies of every committed transaction.
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		out = append(out, cloneTransaction(t))
	}
	return out
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return cloneTransaction(t), nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transaction)
	}
	stored := cloneTransaction(transaction)
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.transactions[stored.ID] = stored
	})
	return nil
}

func (m *MockTransactionRepository) CreateMany(ctx context.Context, tx usecase.Transaction, transactions []*domain.Transaction) error {
	if m.CreateManyFunc != nil {
		return m.CreateManyFunc(ctx, tx, transactions)
	}
	for _, t := range transactions {
		if err := m.Create(ctx, tx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockTransactionRepository) ListByWallet(ctx context.Context, walletID string, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	if m.ListByWalletFunc != nil {
		return m.ListByWalletFunc(ctx, walletID, filter)
	}
	return m.list(func(t *domain.Transaction) bool { return t.WalletID == walletID }, filter), nil
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID string, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *MockTransactionRepository) list(match func(*domain.Transaction) bool, filter usecase.TransactionFilter) []*domain.Transaction {
	var out []*domain.Transaction
	for _, t := range m.All() {
		if !match(t) {
			continue
		}
		if filter.From != nil && (t.ProcessedAt == nil || t.ProcessedAt.Before(*filter.From)) {
			continue
		}
		if filter.To != nil && (t.ProcessedAt == nil || t.ProcessedAt.After(*filter.To)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return processedAt(out[i]).After(processedAt(out[j])) })
	return out
}

func processedAt(t *domain.Transaction) time.Time {
	if t.ProcessedAt != nil {
		return *t.ProcessedAt
	}
	return t.CreatedAt
}

func (m *MockTransactionRepository) SumCompletedByWallet(ctx context.Context, walletID string) (decimal.Decimal, decimal.Decimal, error) {
	if m.SumCompletedByWalletFunc != nil {
		return m.SumCompletedByWalletFunc(ctx, walletID)
	}
	credits, debits := decimal.Zero, decimal.Zero
	for _, t := range m.All() {
		if t.WalletID != walletID || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if t.IsCredit() {
			credits = credits.Add(t.Amount.Amount())
		} else {
			debits = debits.Add(t.Amount.Amount())
		}
	}
	return credits, debits, nil
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, user *domain.User) error
	GetByIDFunc     func(ctx context.Context, id string) (*domain.User, error)
	GetByEmailFunc  func(ctx context.Context, email string) (*domain.User, error)
	ExistsFunc      func(ctx context.Context, id string) (bool, error)
	EmailExistsFunc func(ctx context.Context, email string) (bool, error)
}

func NewMockUserRepository(users ...*domain.User) *MockUserRepository {
	m := &MockUserRepository{users: make(map[string]*domain.User)}
	for _, u := range users {
		c := *u
		m.users[u.ID] = &c
	}
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, user)
	}
	stored := *user
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.users[stored.ID] = &stored
	})
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFunc != nil {
		return m.EmailExistsFunc(ctx, email)
	}
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc  func(ctx context.Context, id string, publishedAt time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Events = append(m.Events, event)
	})
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Events[:0]
	for _, e := range m.Events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu           sync.Mutex
	Transactions []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.Transactions = append(m.Transactions, tx)
	m.mu.Unlock()
	return tx, nil
}

// MockTransaction is a mock implementation of Transaction. Repository writes
// made with it are applied on Commit and dropped otherwise.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	mu         sync.Mutex
	pending    []func()
	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) stage(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, fn)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.Committed = true
	m.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.mu.Lock()
	if !m.Committed {
		m.pending = nil
		m.RolledBack = true
	}
	m.mu.Unlock()

	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockRetrier runs the operation once unless RetryFunc says otherwise.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	Prefix       string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{Prefix: "mock-id-"}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%s%d", m.Prefix, m.counter)
}

// MockBalanceCache is a mock implementation of BalanceCache.
type MockBalanceCache struct {
	mu          sync.Mutex
	data        map[string]*usecase.WalletBalance
	Invalidated []string

	GetFunc func(ctx context.Context, walletID string) (*usecase.WalletBalance, error)
}

func NewMockBalanceCache() *MockBalanceCache {
	return &MockBalanceCache{data: make(map[string]*usecase.WalletBalance)}
}

func (m *MockBalanceCache) Get(ctx context.Context, walletID string) (*usecase.WalletBalance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, walletID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.data[walletID]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (m *MockBalanceCache) Set(ctx context.Context, balance *usecase.WalletBalance, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *balance
	m.data[balance.WalletID] = &c
	return nil
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, walletIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range walletIDs {
		delete(m.data, id)
		m.Invalidated = append(m.Invalidated, id)
	}
	return nil
}

// MockTokenIssuer is a mock implementation of TokenIssuer.
type MockTokenIssuer struct {
	IssueFunc func(user *domain.User) (string, time.Time, error)
}

func (m *MockTokenIssuer) Issue(user *domain.User) (string, time.Time, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(user)
	}
	return "token-" + user.ID, time.Now().Add(time.Hour), nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
