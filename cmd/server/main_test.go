package main

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/eventpublisher"
)

func TestListenAddr(t *testing.T) {
	if got := listenAddr(&config.Config{HTTPPort: "8080"}); got != ":8080" {
		t.Fatalf("expected :8080, got %s", got)
	}
}

func TestTokenSecret(t *testing.T) {
	if got := tokenSecret(&config.Config{JWTSecret: "configured"}); got != "configured" {
		t.Fatalf("expected configured secret, got %s", got)
	}

	first := tokenSecret(&config.Config{})
	second := tokenSecret(&config.Config{})
	if first == "" || first == second {
		t.Fatalf("expected random non-empty secrets, got %q and %q", first, second)
	}
}

func TestNewEventSink(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if _, ok := newEventSink(&config.Config{}, client, zerolog.Nop()).(*eventpublisher.LogPublisher); !ok {
		t.Fatalf("expected log sink without a stream name")
	}

	if _, ok := newEventSink(&config.Config{EventStream: "wallet-events"}, nil, zerolog.Nop()).(*eventpublisher.LogPublisher); !ok {
		t.Fatalf("expected log sink without a redis client")
	}

	if _, ok := newEventSink(&config.Config{EventStream: "wallet-events"}, client, zerolog.Nop()).(*eventpublisher.RedisStreamPublisher); !ok {
		t.Fatalf("expected redis stream sink")
	}
}
