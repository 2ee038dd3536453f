// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/danielhkuo/dummy-evm/models"
)

// Publisher emits durable vote events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, ev models.VoteEvent) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes vote events keyed by race ID, so every event of
// a race lands on the same partition in order.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  5,
		Compression:  kafka.Snappy,
	}
	return &KafkaPublisher{writer: w, topic: topic}
}

// NewKafkaPublisherWithWriter wraps an existing writer
func NewKafkaPublisherWithWriter(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

func (kp *KafkaPublisher) Publish(ctx context.Context, ev models.VoteEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal vote event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.RaceID),
		Value: value,
		Time:  ev.Timestamp,
		Headers: []kafka.Header{
			{Key: "race_type", Value: []byte(ev.RaceType)},
			{Key: "seat", Value: []byte(ev.Seat)},
		},
	}

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func (kp *KafkaPublisher) Close() error {
	if err := kp.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// Nop discards events; used when no brokers are configured
type Nop struct{}

func (Nop) Publish(context.Context, models.VoteEvent) error { return nil }
func (Nop) Close() error                                    { return nil }

// Async publishes in the background so a slow broker never delays a
// voter. Events are dropped, with a log line, when the queue is full.
type Async struct {
	next  Publisher
	queue chan models.VoteEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

const publishTimeout = 10 * time.Second

func NewAsync(next Publisher, size int) *Async {
	a := &Async{
		next:  next,
		queue: make(chan models.VoteEvent, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := a.next.Publish(ctx, ev); err != nil {
			slog.Error("failed to publish vote event", "race_id", ev.RaceID, "seat", ev.Seat, "error", err)
		}
		cancel()
	}
}

func (a *Async) Publish(ctx context.Context, ev models.VoteEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		slog.Warn("vote event publisher closed, dropping event", "race_id", ev.RaceID, "seat", ev.Seat)
		return nil
	}
	select {
	case a.queue <- ev:
	default:
		slog.Warn("vote event queue full, dropping event", "race_id", ev.RaceID, "seat", ev.Seat)
	}
	return nil
}

// Close drains the queue and closes the underlying publisher
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
