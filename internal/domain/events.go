package domain

import "time"

// Event types
const (
	EventTypeWalletCreated       = "wallet.created"
	EventTypeWalletCredited      = "wallet.credited"
	EventTypeWalletStatusChanged = "wallet.status_changed"
	EventTypeTransferCompleted   = "transfer.completed"
	EventTypeUserCreated         = "user.created"
)

// Aggregate types
const (
	AggregateTypeWallet   = "wallet"
	AggregateTypeTransfer = "transfer"
	AggregateTypeUser     = "user"
)

// OutboxEvent is written in the same unit of work as the change it describes
// and published later by the event publisher.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewOutboxEvent stamps CreatedAt.
func NewOutboxEvent(id, aggregateID, aggregateType, eventType string, payload map[string]any) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now(),
	}
}

// TransferCompletedEvent payload
type TransferCompletedEvent struct {
	Reference         string `json:"reference"`
	FromWalletID      string `json:"from_wallet_id"`
	ToWalletID        string `json:"to_wallet_id"`
	FromTransactionID string `json:"from_transaction_id"`
	ToTransactionID   string `json:"to_transaction_id"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
}

// Payload flattens the event for the outbox.
func (e TransferCompletedEvent) Payload() map[string]any {
	return map[string]any{
		"reference":           e.Reference,
		"from_wallet_id":      e.FromWalletID,
		"to_wallet_id":        e.ToWalletID,
		"from_transaction_id": e.FromTransactionID,
		"to_transaction_id":   e.ToTransactionID,
		"amount":              e.Amount,
		"currency":            e.Currency,
	}
}

// WalletCreditedEvent payload
type WalletCreditedEvent struct {
	WalletID      string `json:"wallet_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	NewBalance    string `json:"new_balance"`
}

func (e WalletCreditedEvent) Payload() map[string]any {
	return map[string]any{
		"wallet_id":      e.WalletID,
		"transaction_id": e.TransactionID,
		"amount":         e.Amount,
		"currency":       e.Currency,
		"new_balance":    e.NewBalance,
	}
}

// WalletCreatedEvent payload
type WalletCreatedEvent struct {
	WalletID string `json:"wallet_id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (e WalletCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"wallet_id": e.WalletID,
		"user_id":   e.UserID,
		"name":      e.Name,
		"currency":  e.Currency,
	}
}

// WalletStatusChangedEvent payload
type WalletStatusChangedEvent struct {
	WalletID string `json:"wallet_id"`
	Status   string `json:"status"`
}

func (e WalletStatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"wallet_id": e.WalletID,
		"status":    e.Status,
	}
}
