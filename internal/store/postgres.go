package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cuemby/reflex-dispatch/internal/dispatcherr"
	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/notify"
	"github.com/cuemby/reflex-dispatch/internal/resilience"
	"github.com/cuemby/reflex-dispatch/internal/store/sqlc"
)

// Config holds the retry/backoff knobs assigned to the store.
type Config struct {
	MaxAttempts           int
	RetryBaseDelaySeconds float64
	RetryMaxDelaySeconds  float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, RetryBaseDelaySeconds: 1, RetryMaxDelaySeconds: 60}
}

// Postgres is the reference Store implementation: pgx over the events
// table, guarded by a circuit breaker so a flapping database surfaces as
// STORE_UNAVAILABLE instead of hammering a dying connection pool.
type Postgres struct {
	pool    *pgxpool.Pool
	queries *sqlc.Queries
	channel notify.Channel
	cfg     Config
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewPostgres constructs a Postgres store. channel is used to emit a
// wake-up notification after every successful publish.
func NewPostgres(pool *pgxpool.Pool, channel notify.Channel, cfg Config, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		pool:    pool,
		queries: sqlc.New(pool),
		channel: channel,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker("event-store", resilience.DefaultCircuitBreakerConfig(), logger),
		logger:  logger,
	}
}

func (s *Postgres) guarded(ctx context.Context, fn func() error) error {
	err := s.breaker.Execute(ctx, fn)
	if errors.Is(err, resilience.ErrOpen) {
		return dispatcherr.NewWithCause(dispatcherr.CodeStoreUnavailable, "event store circuit breaker open", err)
	}
	return err
}

// Publish implements Store.
func (s *Postgres) Publish(ctx context.Context, e event.Event) error {
	payload, err := event.Marshal(e)
	if err != nil {
		return dispatcherr.NewWithCause(dispatcherr.CodeSchemaError, "failed to serialize event", err)
	}

	err = s.guarded(ctx, func() error {
		return s.queries.InsertEvent(ctx, sqlc.InsertEventParams{
			ID:        e.ID,
			Type:      e.Type,
			Source:    e.Source,
			Timestamp: e.Timestamp,
			Payload:   string(payload),
		})
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return dispatcherr.NewWithCause(dispatcherr.CodeDuplicateEvent, "event already published: "+e.ID, err)
		}
		return err
	}

	if s.channel != nil {
		s.channel.Emit(ctx, e.ID)
	}
	return nil
}

// Claim implements Store.
func (s *Postgres) Claim(ctx context.Context, eventTypes []string, batchSize int) ([]Claim, error) {
	var rows []sqlc.ClaimedEvent
	err := s.guarded(ctx, func() error {
		var err error
		rows, err = s.queries.ClaimPending(ctx, eventTypes, int32(batchSize))
		return err
	})
	if err != nil {
		return nil, err
	}

	claims := make([]Claim, 0, len(rows))
	for _, r := range rows {
		e, err := event.Parse([]byte(r.Payload))
		if err != nil {
			s.logger.Warn("store: unparseable payload, dead-lettering without retry", "id", r.ID, "error", err)
			if dlqErr := s.guarded(ctx, func() error {
				return s.queries.DeadLetterEvent(ctx, r.ID, err.Error())
			}); dlqErr != nil {
				s.logger.Error("store: failed to dead-letter unparseable row", "id", r.ID, "error", dlqErr)
			}
			continue
		}
		claims = append(claims, Claim{Event: e, Token: Token(r.ID)})
	}
	return claims, nil
}

// Ack implements Store.
func (s *Postgres) Ack(ctx context.Context, token Token) error {
	return s.guarded(ctx, func() error {
		return s.queries.AckEvent(ctx, string(token))
	})
}

// Nack implements Store.
func (s *Postgres) Nack(ctx context.Context, token Token, handlerErr error) error {
	var errMsg *string
	if handlerErr != nil {
		msg := handlerErr.Error()
		errMsg = &msg
	}
	return s.guarded(ctx, func() error {
		return s.queries.NackEvent(ctx, sqlc.NackEventParams{
			ID:          string(token),
			Error:       errMsg,
			MaxAttempts: int32(s.cfg.MaxAttempts),
			BaseDelay:   s.cfg.RetryBaseDelaySeconds,
			MaxDelay:    s.cfg.RetryMaxDelaySeconds,
		})
	})
}

// Replay implements Store.
func (s *Postgres) Replay(ctx context.Context, start, end time.Time, eventTypes []string) ([]event.Event, error) {
	var endPtr *time.Time
	if !end.IsZero() {
		endPtr = &end
	}

	var payloads []string
	err := s.guarded(ctx, func() error {
		var err error
		payloads, err = s.queries.ReplayEvents(ctx, start, endPtr, eventTypes)
		return err
	})
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(payloads))
	for _, p := range payloads {
		e, err := event.Parse([]byte(p))
		if err != nil {
			s.logger.Warn("store: failed to parse replayed payload", "error", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// DLQList implements Store.
func (s *Postgres) DLQList(ctx context.Context, limit int) ([]DLQEntry, error) {
	var rows []sqlc.DLQEvent
	err := s.guarded(ctx, func() error {
		var err error
		rows, err = s.queries.ListDLQ(ctx, int32(limit))
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]DLQEntry, 0, len(rows))
	for _, r := range rows {
		e, err := event.Parse([]byte(r.Payload))
		if err != nil {
			s.logger.Warn("store: failed to parse dlq payload", "id", r.ID, "error", err)
			continue
		}
		var errStr string
		if r.Error != nil {
			errStr = *r.Error
		}
		entries = append(entries, DLQEntry{
			Event:     e,
			Error:     errStr,
			Attempts:  int(r.Attempts),
			CreatedAt: r.CreatedAt,
		})
	}
	return entries, nil
}

// DLQRetry implements Store.
func (s *Postgres) DLQRetry(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.guarded(ctx, func() error {
		var err error
		ok, err = s.queries.RetryDLQ(ctx, id)
		return err
	})
	return ok, err
}

// DLQRetryAll implements Store.
func (s *Postgres) DLQRetryAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.guarded(ctx, func() error {
		var err error
		n, err = s.queries.RetryAllDLQ(ctx)
		return err
	})
	return n, err
}

// ReapStaleProcessing implements Store.
func (s *Postgres) ReapStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.guarded(ctx, func() error {
		var err error
		n, err = s.queries.ReapStaleProcessing(ctx, olderThan)
		return err
	})
	return n, err
}

// Close implements Store.
func (s *Postgres) Close(context.Context) error {
	if s.channel != nil {
		return s.channel.Close(context.Background())
	}
	return nil
}
