package domain

import (
	"fmt"
	"time"
)

// TransactionType is the direction of a ledger movement.
type TransactionType int16

const (
	TransactionTypeCredit TransactionType = 1
	TransactionTypeDebit  TransactionType = 2
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeCredit:
		return "Credit"
	case TransactionTypeDebit:
		return "Debit"
	default:
		return fmt.Sprintf("TransactionType(%d)", int16(t))
	}
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus int16

const (
	TransactionStatusPending   TransactionStatus = 1
	TransactionStatusCompleted TransactionStatus = 2
	TransactionStatusFailed    TransactionStatus = 3
	TransactionStatusCancelled TransactionStatus = 4
)

func (s TransactionStatus) String() string {
	switch s {
	case TransactionStatusPending:
		return "Pending"
	case TransactionStatusCompleted:
		return "Completed"
	case TransactionStatusFailed:
		return "Failed"
	case TransactionStatusCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("TransactionStatus(%d)", int16(s))
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// Transaction is one credit or debit against a wallet.
type Transaction struct {
	ID          string
	WalletID    string
	Amount      Money
	Type        TransactionType
	Description string
	Reference   *string
	Status      TransactionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
}

// NewTransaction returns a pending transaction. Empty ids are programmer errors.
func NewTransaction(id, walletID string, amount Money, typ TransactionType, description string, reference *string) *Transaction {
	if id == "" || walletID == "" {
		panic("domain: transaction requires an id and a wallet id")
	}

	createdAt := now()
	return &Transaction{
		ID:          id,
		WalletID:    walletID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		Reference:   reference,
		Status:      TransactionStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func (t *Transaction) IsCredit() bool { return t.Type == TransactionTypeCredit }

func (t *Transaction) IsDebit() bool { return t.Type == TransactionTypeDebit }

func (t *Transaction) MarkCompleted() { t.transition(TransactionStatusCompleted) }

func (t *Transaction) MarkFailed() { t.transition(TransactionStatusFailed) }

func (t *Transaction) MarkCancelled() { t.transition(TransactionStatusCancelled) }

// transition moves a pending transaction to a terminal status exactly once.
func (t *Transaction) transition(to TransactionStatus) {
	if t.Status != TransactionStatusPending {
		panic(fmt.Sprintf("domain: transaction %s cannot move from %s to %s", t.ID, t.Status, to))
	}

	processedAt := now()
	t.Status = to
	t.ProcessedAt = &processedAt
	t.UpdatedAt = processedAt
}

// now is swapped in tests that need fixed timestamps.
var now = func() time.Time {
	return time.Now().UTC()
}
