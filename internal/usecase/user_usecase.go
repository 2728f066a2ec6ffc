package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// UserUseCase handles user registration, lookup and login.
type UserUseCase struct {
	txManager  TransactionManager
	userRepo   UserRepository
	walletRepo WalletRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	tokens     TokenIssuer
	hashCost   int
	metrics    *metrics.Metrics
}

// NewUserUseCase creates a new user use case. metrics may be nil.
func NewUserUseCase(
	txManager TransactionManager,
	userRepo UserRepository,
	walletRepo WalletRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	tokens TokenIssuer,
	metrics *metrics.Metrics,
) *UserUseCase {
	return &UserUseCase{
		txManager:  txManager,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		tokens:     tokens,
		hashCost:   bcrypt.DefaultCost,
		metrics:    metrics,
	}
}

// WithPasswordCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (uc *UserUseCase) WithPasswordCost(cost int) *UserUseCase {
	uc.hashCost = cost
	return uc
}

// CreateUserInput represents input for registering a user.
type CreateUserInput struct {
	FirstName string `validate:"required,min=2,max=50,person_name"`
	LastName  string `validate:"required,min=2,max=50,person_name"`
	Email     string `validate:"required,email,max=100"`
	Password  string `validate:"required,min=8,max=32,strong_password"`
}

// CreateUserResult is the new user with the wallets opened for them.
type CreateUserResult struct {
	User    *domain.User
	Wallets []*domain.Wallet
}

// CreateUser registers a user together with a default BRL wallet.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*CreateUserResult, error) {
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	exists, err := uc.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, persistenceError(err)
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	hashedPassword, err := hashPassword(input.Password, uc.hashCost)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(uc.idGen.Generate(), input.FirstName, input.LastName, email, hashedPassword)
	wallet := domain.NewDefaultWallet(uc.idGen.Generate(), user.ID, domain.CurrencyBRL)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, persistenceError(err)
	}
	defer tx.Rollback(txCtx)

	if err := uc.userRepo.Create(txCtx, tx, user); err != nil {
		return nil, persistenceError(err)
	}
	if err := uc.walletRepo.Create(txCtx, tx, wallet); err != nil {
		return nil, persistenceError(err)
	}

	userEvent := domain.NewOutboxEvent(
		uc.idGen.Generate(),
		user.ID,
		domain.AggregateTypeUser,
		domain.EventTypeUserCreated,
		map[string]any{"user_id": user.ID, "email": user.Email},
	)
	for _, event := range []*domain.OutboxEvent{userEvent, walletCreatedEvent(uc.idGen.Generate(), wallet)} {
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, persistenceError(err)
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, persistenceError(err)
	}

	if uc.metrics != nil {
		uc.metrics.UsersCreated.Inc()
		uc.metrics.WalletsCreated.Inc()
	}

	// Don't return hashed password
	user.PasswordHash = ""
	return &CreateUserResult{User: user, Wallets: []*domain.Wallet{wallet}}, nil
}

// GetUserByIDInput represents input for a user lookup.
type GetUserByIDInput struct {
	UserID string `validate:"required,uuid"`
}

// GetUserByID retrieves a user by ID.
func (uc *UserUseCase) GetUserByID(ctx context.Context, input GetUserByIDInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// LoginInput represents login credentials.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginResult carries the issued access token.
type LoginResult struct {
	UserID    string
	FullName  string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and issues a bearer token.
func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	result, err := uc.login(ctx, input)
	if uc.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = errorLabel(err)
		}
		uc.metrics.LoginResults.WithLabelValues(outcome).Inc()
	}
	return result, err
}

func (uc *UserUseCase) login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, domain.ErrInvalidCredentials
	}

	if err := verifyPassword(user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	token, expiresAt, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		UserID:    user.ID,
		FullName:  user.FullName(),
		Email:     user.Email,
		Token:     "Bearer " + token,
		ExpiresAt: expiresAt,
	}, nil
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword verifies a password against a hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
