package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultBalanceCacheTTL bounds how long a cached balance may be served.
	DefaultBalanceCacheTTL = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// TransferReferencePrefix prefixes generated transfer references.
	TransferReferencePrefix = "TRANSFER-"

	defaultListLimit = 50
	maxListLimit     = 500
)
