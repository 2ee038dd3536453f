// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package guard

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/dummy-evm/models"
)

// Mark records that a voter has cast a vote for one seat of a race
type Mark struct {
	VoterToken string
	Key        models.RaceKey
}

// Decision is the outcome of CheckAndMark. Created reports whether this
// call wrote the mark, which is what a rollback must undo.
type Decision struct {
	Allowed bool
	Created bool
}

// Store persists marks. MarkOnce must be atomic: of any number of
// concurrent calls for the same mark, exactly one returns true.
type Store interface {
	MarkOnce(ctx context.Context, m Mark) (bool, error)
	Unmark(ctx context.Context, m Mark) error
	Reset(ctx context.Context, raceID string) (int64, error)
}

// StoreError reports a mark store that could not be reached. The
// voter may try again once it is back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s vote mark: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Guard decides whether a voter may vote in a race
type Guard struct {
	store Store
}

func New(store Store) *Guard {
	return &Guard{store: store}
}

// CheckAndMark allows the first vote per voter per seat and records it.
// When multipleVotes is set every attempt is allowed; the mark is still
// recorded so a later switch of the flag sees the history.
func (g *Guard) CheckAndMark(ctx context.Context, m Mark, multipleVotes bool) (Decision, error) {
	created, err := g.store.MarkOnce(ctx, m)
	if err != nil {
		return Decision{}, &StoreError{Op: "check", Err: err}
	}

	if multipleVotes {
		return Decision{Allowed: true, Created: created}, nil
	}
	if !created {
		slog.Info("duplicate vote refused", "race", m.Key.String())
	}
	return Decision{Allowed: created, Created: created}, nil
}

// Unmark removes a mark so the voter may try again. Only call it for a
// mark this voter's own cast created.
func (g *Guard) Unmark(ctx context.Context, m Mark) error {
	if err := g.store.Unmark(ctx, m); err != nil {
		return &StoreError{Op: "roll back", Err: err}
	}
	return nil
}

// Reset clears every mark for a race. Operator action only.
func (g *Guard) Reset(ctx context.Context, raceID string) (int64, error) {
	n, err := g.store.Reset(ctx, raceID)
	if err != nil {
		return 0, &StoreError{Op: "reset", Err: err}
	}
	slog.Info("vote marks reset", "race_id", raceID, "cleared", n)
	return n, nil
}

// SQLStore keeps marks in the vote_mark table. The composite primary key
// makes the insert the decision.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) MarkOnce(ctx context.Context, m Mark) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO vote_mark (voter_token, race_id, seat, marked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, m.VoterToken, m.Key.RaceID, string(m.Key.Seat), time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) Unmark(ctx context.Context, m Mark) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM vote_mark WHERE voter_token = $1 AND race_id = $2 AND seat = $3
	`, m.VoterToken, m.Key.RaceID, string(m.Key.Seat))
	return err
}

func (s *SQLStore) Reset(ctx context.Context, raceID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vote_mark WHERE race_id = $1`, raceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
