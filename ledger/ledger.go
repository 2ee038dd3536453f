// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/dummy-evm/clock"
	"github.com/danielhkuo/dummy-evm/db"
	"github.com/danielhkuo/dummy-evm/metrics"
	"github.com/danielhkuo/dummy-evm/models"
)

var ErrNotFound = errors.New("race not found")

// PersistenceError reports an increment that could not be made durable.
// The counter is unchanged when one is returned.
type PersistenceError struct {
	Key      models.RaceKey
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to record vote for %s after %d attempt(s): %v", e.Key, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store performs a single atomic increment. It returns ErrNotFound when
// the key names no counter.
type Store interface {
	Increment(ctx context.Context, key models.RaceKey) (int64, error)
}

// SQLStore keeps counters on the candidate and panel_seat rows
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Increment adds one vote in a single statement; the database serializes
// concurrent updates to the same row.
func (s *SQLStore) Increment(ctx context.Context, key models.RaceKey) (int64, error) {
	var votes int64
	var err error

	if key.Seat == models.SeatSingle {
		err = s.db.QueryRowContext(ctx, `
			UPDATE candidate SET votes = votes + 1, updated_at = $1
			WHERE id = $2
			RETURNING votes
		`, time.Now().UTC(), key.RaceID).Scan(&votes)
	} else {
		err = s.db.QueryRowContext(ctx, `
			UPDATE panel_seat SET votes = votes + 1
			WHERE panel_id = $1 AND seat = $2
			RETURNING votes
		`, key.RaceID, string(key.Seat)).Scan(&votes)
	}

	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return votes, nil
}

// RetryPolicy bounds how transient store failures are retried.
// Backoff doubles from BaseDelay and is capped at MaxDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts:  3,
	BaseDelay: 50 * time.Millisecond,
	MaxDelay:  time.Second,
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// Ledger is the durable vote counter
type Ledger struct {
	store   Store
	clock   clock.Clock
	retry   RetryPolicy
	metrics *metrics.Metrics
}

type Option func(*Ledger)

func WithClock(c clock.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(l *Ledger) {
		if p.Attempts < 1 {
			p.Attempts = 1
		}
		l.retry = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		clock: clock.Real(),
		retry: DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Increment adds exactly one vote to the counter named by key and returns
// the new count. Each successful call observes a distinct count.
//
// Transient failures are retried with backoff. ErrNotFound is returned
// as is; any other failure comes back as a *PersistenceError.
func (l *Ledger) Increment(ctx context.Context, key models.RaceKey) (int64, error) {
	start := l.clock.Now()

	var lastErr error
	attempt := 0
retry:
	for attempt < l.retry.Attempts {
		attempt++

		votes, err := l.store.Increment(ctx, key)
		if err == nil {
			l.metrics.ObserveLedger(l.clock.Now().Sub(start), nil)
			return votes, nil
		}
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}

		lastErr = err
		if !db.IsTransient(err) || attempt == l.retry.Attempts {
			break
		}

		wait := l.retry.delay(attempt)
		slog.Warn("ledger increment failed, retrying", "race", key.String(), "attempt", attempt,
			"backoff", wait, "error", err)
		l.metrics.LedgerRetry()

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-l.clock.After(wait):
		}
	}

	l.metrics.ObserveLedger(l.clock.Now().Sub(start), lastErr)
	slog.Error("ledger increment failed", "race", key.String(), "attempts", attempt, "error", lastErr)
	return 0, &PersistenceError{Key: key, Attempts: attempt, Err: lastErr}
}
