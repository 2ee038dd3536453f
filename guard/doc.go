// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package guard prevents a voter from voting twice for the same seat.

A mark is (voter token, race ID, seat). CheckAndMark writes the mark and
allows the vote only if the mark was new; the check and the write are
one atomic store operation, so concurrent casts by the same voter
produce exactly one Allowed decision. Races registered with
multipleVotes always allow.

Two stores are available:

  - SQLStore: INSERT ... ON CONFLICT DO NOTHING into vote_mark
  - RedisStore: SETNX on evm:mark:{race}:{seat}:{token}

Marks never expire. Unmark rolls back a mark after a failed vote, and
Reset clears a whole race on operator request.
*/
package guard
