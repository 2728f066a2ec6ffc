package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newPending(t *testing.T, typ TransactionType) *Transaction {
	t.Helper()
	amount, err := NewMoney(decimal.NewFromInt(10), CurrencyBRL)
	if err != nil {
		t.Fatalf("NewMoney: %v", err)
	}
	return NewTransaction("tx-1", "wallet-1", amount, typ, "deposit", nil)
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	fn()
}

func TestNewTransaction_StartsPending(t *testing.T) {
	tx := newPending(t, TransactionTypeCredit)

	if tx.Status != TransactionStatusPending {
		t.Fatalf("expected Pending, got %s", tx.Status)
	}
	if tx.ProcessedAt != nil {
		t.Fatal("expected ProcessedAt to be unset")
	}
	if !tx.IsCredit() || tx.IsDebit() {
		t.Fatal("expected a credit")
	}
}

func TestTransaction_TerminalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		mark   func(*Transaction)
		status TransactionStatus
	}{
		{"completed", (*Transaction).MarkCompleted, TransactionStatusCompleted},
		{"failed", (*Transaction).MarkFailed, TransactionStatusFailed},
		{"cancelled", (*Transaction).MarkCancelled, TransactionStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newPending(t, TransactionTypeDebit)
			tt.mark(tx)

			if tx.Status != tt.status {
				t.Fatalf("expected %s, got %s", tt.status, tx.Status)
			}
			if tx.ProcessedAt == nil {
				t.Fatal("expected ProcessedAt to be set")
			}
			if !tx.Status.IsTerminal() {
				t.Fatal("expected terminal status")
			}
		})
	}
}

func TestTransaction_NoTransitionAfterTerminal(t *testing.T) {
	marks := []func(*Transaction){
		(*Transaction).MarkCompleted,
		(*Transaction).MarkFailed,
		(*Transaction).MarkCancelled,
	}

	for _, first := range marks {
		for _, second := range marks {
			tx := newPending(t, TransactionTypeCredit)
			first(tx)
			status := tx.Status
			expectPanic(t, func() { second(tx) })
			if tx.Status != status {
				t.Fatalf("status changed after panic: %s -> %s", status, tx.Status)
			}
		}
	}
}

func TestNewTransaction_RequiresIDs(t *testing.T) {
	expectPanic(t, func() {
		NewTransaction("", "wallet-1", ZeroMoney(CurrencyBRL), TransactionTypeCredit, "x", nil)
	})
	expectPanic(t, func() {
		NewTransaction("tx-1", "", ZeroMoney(CurrencyBRL), TransactionTypeCredit, "x", nil)
	})
}
