package eventpublisher

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

// EventPublisher drains the outbox into a Publisher.
type EventPublisher struct {
	outboxRepo      usecase.OutboxRepository
	publisher       Publisher
	metrics         *metrics.Metrics
	batchSize       int
	interval        time.Duration
	maxRetries      uint64
	retention       time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
	now             func() time.Time
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Metrics    *metrics.Metrics
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	// MaxRetries bounds publish attempts per event within one pass.
	MaxRetries uint64
	// Retention deletes published events older than this. Zero keeps them.
	Retention       time.Duration
	CleanupInterval time.Duration
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Hour
	}

	return &EventPublisher{
		outboxRepo:      cfg.OutboxRepo,
		publisher:       cfg.Publisher,
		metrics:         cfg.Metrics,
		batchSize:       cfg.BatchSize,
		interval:        cfg.Interval,
		maxRetries:      cfg.MaxRetries,
		retention:       cfg.Retention,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
	}
}

// Start polls the outbox until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	if err := ep.processEvents(ctx); err != nil {
		logger.Error().Err(err).Msg("error processing events on start")
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.processEvents(ctx); err != nil {
				logger.Error().Err(err).Msg("error processing events")
			}
		}
	}
}

// processEvents publishes one batch. A failed event stays unpublished and is
// picked up by a later pass.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if len(events) > 0 {
		logger.Debug().Int("count", len(events)).Msg("processing events")
	}

	for _, event := range events {
		if err := ep.publishEvent(ctx, event); err != nil {
			ep.countError()
			logger.Error().Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			ep.countError()
			logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark event as published")
			continue
		}

		if ep.metrics != nil {
			ep.metrics.EventsPublished.WithLabelValues(event.EventType).Inc()
		}
	}

	ep.cleanup(ctx)

	return nil
}

func (ep *EventPublisher) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = ep.interval

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := ep.publisher.Publish(ctx, event); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).
				Str("event_id", event.ID).
				Int("attempt", attempt).
				Msg("publish attempt failed")
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, ep.maxRetries), ctx))
}

func (ep *EventPublisher) cleanup(ctx context.Context) {
	if ep.retention <= 0 {
		return
	}

	now := ep.now()
	if !ep.lastCleanup.IsZero() && now.Sub(ep.lastCleanup) < ep.cleanupInterval {
		return
	}
	ep.lastCleanup = now

	if err := ep.outboxRepo.DeletePublished(ctx, now.Add(-ep.retention)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to delete published events")
	}
}

func (ep *EventPublisher) countError() {
	if ep.metrics != nil {
		ep.metrics.OutboxErrors.Inc()
	}
}
