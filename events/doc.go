// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events publishes a VoteEvent for every durable vote.

With KAFKA_BROKERS set, events go to a Kafka topic (default evm-votes)
through a kafka-go writer: keyed by race ID with the Hash balancer so a
race stays on one partition, acknowledged by all in-sync replicas, and
Snappy compressed. Without brokers the Nop publisher is used.

Async wraps a publisher with a bounded queue so voting never waits on
the broker.
*/
package events
