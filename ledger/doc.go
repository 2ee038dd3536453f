// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger holds the durable vote counters.

A counter is addressed by a models.RaceKey: a candidate ID with seat
SINGLE, or a panel ID with seat A, B or ADHYAKSH. Each seat of a panel
counts independently.

	l := ledger.New(ledger.NewSQLStore(db))
	votes, err := l.Increment(ctx, models.RaceKey{RaceID: id, Seat: models.SeatSingle})

Increment is a single UPDATE ... RETURNING statement, so concurrent
increments never lose an update and every caller sees a distinct count.

# Failures

An unknown race returns ErrNotFound. Transient store errors (dropped
connections, lock contention) are retried with exponential backoff on
the injected clock; anything else, or exhausting the attempts, returns
a *PersistenceError and leaves the counter unchanged.
*/
package ledger
