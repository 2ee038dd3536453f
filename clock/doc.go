// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package clock abstracts timers so settle delays and retry backoff can be
// tested without sleeping. Production code uses Real(); tests use Fake()
// and call Advance.
package clock
