package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// BalanceCache implements usecase.BalanceCache using Redis.
type BalanceCache struct {
	client *redis.Client
	prefix string
}

type balanceRecord struct {
	WalletID string          `json:"wallet_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency domain.Currency `json:"currency"`
	Status   int16           `json:"status"`
}

// NewBalanceCache creates a new BalanceCache.
func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "wallet:balance:",
	}
}

// Get returns the cached balance or nil on a miss.
func (c *BalanceCache) Get(ctx context.Context, walletID string) (*usecase.WalletBalance, error) {
	raw, err := c.client.Get(ctx, c.prefix+walletID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec balanceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Treat undecodable entries as misses; the next Set overwrites them.
		return nil, nil
	}

	return &usecase.WalletBalance{
		WalletID: rec.WalletID,
		Balance:  rec.Balance,
		Currency: rec.Currency,
		Status:   domain.WalletStatus(rec.Status),
	}, nil
}

// Set stores a balance with TTL.
func (c *BalanceCache) Set(ctx context.Context, balance *usecase.WalletBalance, ttl time.Duration) error {
	raw, err := json.Marshal(balanceRecord{
		WalletID: balance.WalletID,
		Balance:  balance.Balance,
		Currency: balance.Currency,
		Status:   int16(balance.Status),
	})
	if err != nil {
		return fmt.Errorf("encode balance: %w", err)
	}

	return c.client.Set(ctx, c.prefix+balance.WalletID, raw, ttl).Err()
}

// Invalidate drops the cached balances of the given wallets.
func (c *BalanceCache) Invalidate(ctx context.Context, walletIDs ...string) error {
	if len(walletIDs) == 0 {
		return nil
	}

	keys := make([]string, len(walletIDs))
	for i, id := range walletIDs {
		keys[i] = c.prefix + id
	}

	return c.client.Del(ctx, keys...).Err()
}
