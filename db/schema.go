// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL sticks to the subset SQLite and PostgreSQL share.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Candidates (single-candidate races, one race per constituency + ward)
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    symbol_name TEXT NOT NULL,
    party TEXT NOT NULL,
    constituency TEXT NOT NULL,
    ward_no TEXT NOT NULL,
    serial_no INTEGER NOT NULL CHECK (serial_no >= 1 AND serial_no <= 19),
    multiple_votes BOOLEAN NOT NULL DEFAULT FALSE,
    photo TEXT NOT NULL,
    symbol_image TEXT NOT NULL,
    poster TEXT,
    votes BIGINT NOT NULL DEFAULT 0 CHECK (votes >= 0),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (constituency, ward_no, serial_no)
);

CREATE INDEX IF NOT EXISTS idx_candidate_race ON candidate(constituency, ward_no);

-- Panels
CREATE TABLE IF NOT EXISTS panel (
    id TEXT PRIMARY KEY,
    constituency TEXT NOT NULL,
    ward_no TEXT NOT NULL,
    multiple_votes BOOLEAN NOT NULL DEFAULT FALSE,
    poster TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Panel seats, each with its own counter
CREATE TABLE IF NOT EXISTS panel_seat (
    panel_id TEXT NOT NULL REFERENCES panel(id) ON DELETE CASCADE,
    seat TEXT NOT NULL CHECK (seat IN ('A', 'B', 'ADHYAKSH')),
    constituency TEXT NOT NULL,
    ward_no TEXT NOT NULL,
    name TEXT NOT NULL,
    serial_no INTEGER NOT NULL CHECK (serial_no >= 1 AND serial_no <= 50),
    party TEXT NOT NULL,
    symbol_name TEXT NOT NULL,
    photo TEXT NOT NULL,
    symbol_image TEXT NOT NULL,
    votes BIGINT NOT NULL DEFAULT 0 CHECK (votes >= 0),
    PRIMARY KEY (panel_id, seat),
    UNIQUE (constituency, ward_no, seat, serial_no)
);

-- Voting sessions (server-issued voter tokens)
CREATE TABLE IF NOT EXISTS voter_session (
    token TEXT PRIMARY KEY,
    ip_hash TEXT,
    user_agent TEXT,
    poster_shown BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    closed_at TIMESTAMP
);

-- Duplicate-vote guard markers
CREATE TABLE IF NOT EXISTS vote_mark (
    voter_token TEXT NOT NULL,
    race_id TEXT NOT NULL,
    seat TEXT NOT NULL,
    marked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (voter_token, race_id, seat)
);

CREATE INDEX IF NOT EXISTS idx_vote_mark_race ON vote_mark(race_id);
`
