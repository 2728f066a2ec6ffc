package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// WalletStatus is the administrative state of a wallet.
type WalletStatus int16

const (
	WalletStatusActive   WalletStatus = 1
	WalletStatusInactive WalletStatus = 2
)

func (s WalletStatus) String() string {
	switch s {
	case WalletStatusActive:
		return "Active"
	case WalletStatusInactive:
		return "Inactive"
	default:
		return fmt.Sprintf("WalletStatus(%d)", int16(s))
	}
}

func (s WalletStatus) IsValid() bool {
	return s == WalletStatusActive || s == WalletStatusInactive
}

// ParseWalletStatus accepts "active" or "inactive" in any case.
func ParseWalletStatus(s string) (WalletStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return WalletStatusActive, true
	case "inactive":
		return WalletStatusInactive, true
	default:
		return 0, false
	}
}

const (
	DefaultWalletName          = "Default Wallet"
	MaxWalletNameLength        = 200
	MaxWalletDescriptionLength = 500
)

// Wallet holds a single-currency balance for one user and the
// transactions applied to it.
type Wallet struct {
	ID           string
	UserID       string
	Name         string
	Description  *string
	Balance      Money
	Status       WalletStatus
	Transactions []*Transaction
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewWallet returns an active wallet with a zero balance in currency.
func NewWallet(id, userID, name string, description *string, currency Currency) *Wallet {
	if id == "" || userID == "" {
		panic("domain: wallet requires an id and a user id")
	}

	createdAt := now()
	return &Wallet{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Description: description,
		Balance:     ZeroMoney(currency),
		Status:      WalletStatusActive,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// NewDefaultWallet is the wallet every new user starts with.
func NewDefaultWallet(id, userID string, currency Currency) *Wallet {
	return NewWallet(id, userID, DefaultWalletName, nil, currency)
}

func (w *Wallet) Currency() Currency { return w.Balance.Currency() }

func (w *Wallet) IsActive() bool { return w.Status == WalletStatusActive }

// CanDebit is false for inactive wallets, short balances and foreign currencies.
func (w *Wallet) CanDebit(amount Money) bool {
	if !w.IsActive() {
		return false
	}
	ok, err := w.Balance.IsGreaterThanOrEqual(amount)
	return err == nil && ok
}

// CalculateBalance applies a pending transaction to the balance and marks it
// completed. On error the wallet and the transaction are left untouched.
func (w *Wallet) CalculateBalance(tx *Transaction) error {
	if tx == nil {
		panic("domain: nil transaction")
	}
	if tx.WalletID != w.ID {
		panic(fmt.Sprintf("domain: transaction %s belongs to wallet %s, not %s", tx.ID, tx.WalletID, w.ID))
	}
	if tx.Status != TransactionStatusPending {
		panic(fmt.Sprintf("domain: transaction %s already %s", tx.ID, tx.Status))
	}

	var (
		balance Money
		err     error
	)
	switch tx.Type {
	case TransactionTypeCredit:
		balance, err = w.Balance.Add(tx.Amount)
	case TransactionTypeDebit:
		if !w.IsActive() {
			return ErrInsufficientFunds
		}
		balance, err = w.Balance.Subtract(tx.Amount)
	default:
		panic(fmt.Sprintf("domain: unknown transaction type %d", tx.Type))
	}
	if err != nil {
		return err
	}

	w.Balance = balance
	tx.MarkCompleted()
	w.Transactions = append(w.Transactions, tx)
	w.touch()
	return nil
}

func (w *Wallet) UpdateStatus(status WalletStatus) {
	if !status.IsValid() {
		panic(fmt.Sprintf("domain: invalid wallet status %d", status))
	}
	w.Status = status
	w.touch()
}

func (w *Wallet) Deactivate() { w.UpdateStatus(WalletStatusInactive) }

func (w *Wallet) Activate() { w.UpdateStatus(WalletStatusActive) }

func (w *Wallet) touch() {
	w.UpdatedAt = now()
}

// ValidateWalletName rejects blank names and names over MaxWalletNameLength characters.
func ValidateWalletName(name string) error {
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) > MaxWalletNameLength {
		return ErrInvalidWalletName
	}
	return nil
}

// ValidateWalletDescription allows a nil description.
func ValidateWalletDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxWalletDescriptionLength {
		return ErrInvalidDescription
	}
	return nil
}
