// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the dummy EVM API server.

The dummy EVM is a mock electronic voting machine for voter education.
Operators register single candidates and three-seat panels; voters open
a session, press a candidate's button, and watch the machine confirm
and then reveal the new count.

# Starting the Server

The server reads a .env file if present, then environment variables or
CLI flags:

	ADMIN_KEY=... IP_HASH_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-key ... -ip-salt ...

# Configuration

Required settings:

  - ADMIN_KEY (-admin-key): Key for registration and guard reset routes
  - IP_HASH_SALT (-ip-salt): Salt for hashing voter IPs and tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: file:dummy-evm.db)
  - MEDIA_DIR (-media): Upload directory (default: ./media)
  - MAX_UPLOAD_BYTES: Per-file upload limit (default: 10 MiB)
  - SETTLE_DELAY (-settle), PANEL_SETTLE_DELAY (-panel-settle): Reveal delays
  - LEDGER_RETRIES (-ledger-retries): Attempts per increment (default: 3)
  - GUARD_BACKEND (-guard), REDIS_URL (-redis): sql or redis guard
  - KAFKA_BROKERS (-kafka), KAFKA_TOPIC (-kafka-topic): Vote event stream
  - ALLOWED_ORIGINS (-origins): Extra origin hosts allowed to open websockets

# Architecture

  - handlers: HTTP request handlers (registration, sessions, voting, live)
  - router: Route definitions using Go 1.22+ routing
  - registry: Candidate and panel records, ballot layout
  - ledger: Atomic vote counters with retry
  - guard: One-vote-per-session marks (SQL or Redis)
  - session: Per-voter vote state machine and reveal timers
  - pubsub: Websocket fan-out of session events and tallies
  - events: Kafka vote event stream
  - media: Uploaded image storage
  - metrics: Prometheus counters
  - middleware: CORS, logging, admin check, JSON envelope
  - auth, db, cliparse, clock, models: Supporting packages

See package documentation for each component.
*/
package main
