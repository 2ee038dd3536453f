// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session runs the vote flow behind each EVM button press.

A Controller belongs to one voter token. Every (race, seat) it touches
has its own state machine:

	Idle -> Checking -> Submitting -> Confirming -> Settled
	           |             |
	           v             v
	     AlreadyVoted     Failed -> (cast again)

Checking asks the guard whether this voter may vote. Submitting makes
the ledger increment. Once the count is durable the controller emits a
confirmed event (beep and light) and Cast returns; the revealed event
with the new count follows after the settle delay (3s for a single
race, 2.5s for a panel seat). Until then Visible reports the count from
before the vote.

If the ledger fails, the guard mark this cast created is rolled back,
the seat is Failed, and the next cast behaves like a first attempt.

When every eligible seat of a race has settled, a single thank-you
event fires for that race.

Close stops pending reveals and silences the session. Counts already
recorded are never rolled back.

The Manager maps voter tokens to controllers for the HTTP layer.
*/
package session
