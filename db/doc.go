// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Open picks the driver from the configured type:

	conn, err := db.Open("sqlite", "file:dummy-evm.db")     // modernc.org/sqlite
	conn, err := db.Open("postgres", "postgres://...")      // github.com/lib/pq

SQLite connections get busy_timeout, foreign_keys and (for files) WAL
pragmas, and the pool is capped at one connection.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Statements use $N placeholders, which both drivers accept.

# Tables

  - candidate: single-race contestants and their counters
  - panel: panel metadata
  - panel_seat: three seats per panel, each with a counter
  - voter_session: server-issued voter tokens
  - vote_mark: duplicate-vote guard markers

# Constraints

	candidate  UNIQUE (constituency, ward_no, serial_no)
	panel_seat UNIQUE (constituency, ward_no, seat, serial_no)
	vote_mark  PRIMARY KEY (voter_token, race_id, seat)

The vote_mark key is what makes check-and-mark atomic.

# Error Classification

	db.IsUniqueViolation(err)  // duplicate serial, existing marker
	db.IsTransient(err)        // worth retrying (lost connection, lock contention)
*/
package db
