package redis

import (
	"context"
	"testing"
	"time"
)

const transferKey = "POST:/api/transaction/transfer:7f3c"

func TestIdempotencyStore_ReplaysStoredResponse(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	stored := `{"status":201,"body":{"from_transaction_id":"tx-1"}}`
	if err := client.Set(ctx, store.prefix+transferKey, stored, time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, transferKey, nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !exists || string(resp) != stored {
		t.Fatalf("expected stored response, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_ClaimsNewKey(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, transferKey, nil, 30*time.Second)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := mr.Get(idempotencyPrefix + transferKey)
	if err != nil || val != pendingMarker {
		t.Fatalf("expected pending marker, got val=%s err=%v", val, err)
	}
	if ttl := mr.TTL(idempotencyPrefix + transferKey); ttl != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %v", ttl)
	}
}

func TestIdempotencyStore_ClaimWithResponse(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if exists, _, err := store.CheckAndSet(ctx, "credit-1", []byte("done"), time.Minute); err != nil || exists {
		t.Fatalf("first claim should succeed, got exists=%v err=%v", exists, err)
	}
	if val, _ := mr.Get(store.prefix + "credit-1"); val != "done" {
		t.Fatalf("expected response stored on claim, got %q", val)
	}
}

func TestIdempotencyStore_DuplicateWhileInFlight(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if exists, _, err := store.CheckAndSet(ctx, transferKey, nil, time.Minute); err != nil || exists {
		t.Fatalf("first claim should succeed, got exists=%v err=%v", exists, err)
	}

	exists, resp, err := store.CheckAndSet(ctx, transferKey, nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !exists || string(resp) != pendingMarker {
		t.Fatalf("expected pending marker, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_UpdateStoresResponse(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, transferKey, nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Update(ctx, transferKey, []byte("done"), time.Hour); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := mr.Get(store.prefix + transferKey)
	if err != nil || val != "done" {
		t.Fatalf("expected stored response, got val=%s err=%v", val, err)
	}
	if ttl := mr.TTL(store.prefix + transferKey); ttl != time.Hour {
		t.Fatalf("expected ttl refreshed to 1h, got %v", ttl)
	}
}

func TestIdempotencyStore_ReleaseFreesPendingClaim(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, transferKey, nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Release(ctx, transferKey); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if mr.Exists(store.prefix + transferKey) {
		t.Fatalf("expected key to be released")
	}

	exists, _, err := store.CheckAndSet(ctx, transferKey, nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected key to be claimable again, got exists=%v err=%v", exists, err)
	}
}

func TestIdempotencyStore_ReleaseKeepsStoredResponse(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := store.Update(ctx, transferKey, []byte("done"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := store.Release(ctx, transferKey); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if val, _ := mr.Get(store.prefix + transferKey); val != "done" {
		t.Fatalf("stored response must survive release, got %q", val)
	}

	if err := store.Release(ctx, "never-claimed"); err != nil {
		t.Fatalf("release of unknown key failed: %v", err)
	}
}

func TestIdempotencyStore_Unavailable(t *testing.T) {
	store := NewIdempotencyStore(newUnreachableRedisClient(t))
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, transferKey, nil, time.Minute); err == nil {
		t.Fatalf("expected claim error from unreachable redis")
	}
	if err := store.Update(ctx, transferKey, []byte("done"), time.Minute); err == nil {
		t.Fatalf("expected update error from unreachable redis")
	}
	if err := store.Release(ctx, transferKey); err == nil {
		t.Fatalf("expected release error from unreachable redis")
	}
}
