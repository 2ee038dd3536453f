// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

main loads a .env file (if present) before parsing, so every setting
below can also live there.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: connection string (default for sqlite: file:dummy-evm.db)
  - AdminKey: shared secret for registration routes (required)
  - IPHashSalt: salt for hashing voter IPs (required)
  - MediaDir: where uploaded photos and symbols are stored (default: ./media)
  - SettleDelay / PanelSettleDelay: pause before a cast vote is revealed
    (default: 3s / 2.5s)
  - LedgerRetries: attempts for a counter increment (default: 3)
  - GuardBackend: sql or redis (default: sql)
  - KafkaBrokers / KafkaTopic: vote event stream (disabled when empty)

# CLI Flags

	-p              Server port
	-d              Database URL
	-t              Database type
	--media         Media directory
	--admin-key     Admin key
	--ip-salt       IP hash salt
	--settle        Single race settle delay
	--panel-settle  Panel settle delay
	--ledger-retries Ledger attempts
	--guard         Guard backend
	--redis         Redis URL
	--kafka         Kafka brokers
	--kafka-topic   Kafka topic

# Environment Variables

Flags fall back to environment variables:

	PORT, DATABASE_URL, DATABASE_TYPE, MEDIA_DIR, MAX_UPLOAD_BYTES,
	ADMIN_KEY, IP_HASH_SALT, SETTLE_DELAY, PANEL_SETTLE_DELAY,
	LEDGER_RETRIES, GUARD_BACKEND, REDIS_URL, KAFKA_BROKERS, KAFKA_TOPIC

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - ADMIN_KEY and IP_HASH_SALT must be provided
  - postgres requires DATABASE_URL
  - the redis guard requires REDIS_URL
*/
package cliparse
