package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// ReconciliationUseCase checks stored balances against the ledger.
type ReconciliationUseCase struct {
	walletRepo WalletRepository
	txRepo     TransactionRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(walletRepo WalletRepository, txRepo TransactionRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		walletRepo: walletRepo,
		txRepo:     txRepo,
	}
}

// ReconcileWalletInput represents input for reconciling a wallet.
type ReconcileWalletInput struct {
	WalletID string `validate:"required,uuid"`
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	WalletID          string
	Currency          domain.Currency
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	CheckedAt         time.Time
}

// ReconcileWallet recomputes the balance as completed credits minus
// completed debits and compares it with the stored balance.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, input ReconcileWalletInput) (*ReconciliationResult, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}
	return uc.reconcile(ctx, wallet)
}

// ReconcileUserWallets reconciles every wallet the user owns.
func (uc *ReconciliationUseCase) ReconcileUserWallets(ctx context.Context, userID string) ([]*ReconciliationResult, error) {
	wallets, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]*ReconciliationResult, 0, len(wallets))
	for _, wallet := range wallets {
		result, err := uc.reconcile(ctx, wallet)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, wallet *domain.Wallet) (*ReconciliationResult, error) {
	credits, debits, err := uc.txRepo.SumCompletedByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}

	recorded := wallet.Balance.Amount()
	calculated := credits.Sub(debits)
	difference := recorded.Sub(calculated)

	return &ReconciliationResult{
		WalletID:          wallet.ID,
		Currency:          wallet.Currency(),
		RecordedBalance:   recorded,
		CalculatedBalance: calculated,
		Difference:        difference,
		IsReconciled:      difference.IsZero(),
		CheckedAt:         time.Now().UTC(),
	}, nil
}
