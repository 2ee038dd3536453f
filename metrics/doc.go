// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes Prometheus counters for the voting path.

	m := metrics.New()
	mux.Handle("GET /metrics", m.Handler())

Counters are labelled by race type (candidate, panel) and seat:

  - evm_votes_cast_total: durable increments
  - evm_votes_duplicate_total: casts the guard refused
  - evm_votes_failed_total: casts that failed to persist

evm_ledger_increment_seconds tracks ledger latency with retries
included, and evm_open_sessions tracks live session controllers.

A nil *Metrics is valid and records nothing.
*/
package metrics
