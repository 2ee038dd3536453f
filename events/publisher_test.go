// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/danielhkuo/dummy-evm/models"
)

type memWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *memWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func sampleEvent() models.VoteEvent {
	return models.VoteEvent{
		RaceID:    "panel-1",
		Seat:      models.SeatB,
		RaceType:  models.RacePanel,
		Votes:     12,
		VoterHash: "abc",
		Timestamp: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &memWriter{}
	p := NewKafkaPublisherWithWriter(w, "evm-votes")

	if err := p.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	msgs := w.written()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if string(msgs[0].Key) != "panel-1" {
		t.Errorf("message key = %q, want race id", msgs[0].Key)
	}

	var got models.VoteEvent
	if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if got.Votes != 12 || got.Seat != models.SeatB {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	cause := errors.New("broker down")
	p := NewKafkaPublisherWithWriter(&memWriter{err: cause}, "evm-votes")

	if err := p.Publish(context.Background(), sampleEvent()); !errors.Is(err, cause) {
		t.Errorf("expected wrapped broker error, got %v", err)
	}
}

func TestAsync_DrainsOnClose(t *testing.T) {
	w := &memWriter{}
	a := NewAsync(NewKafkaPublisherWithWriter(w, "evm-votes"), 8)

	for i := 0; i < 5; i++ {
		a.Publish(context.Background(), sampleEvent())
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if n := len(w.written()); n != 5 {
		t.Errorf("expected 5 messages after drain, got %d", n)
	}
	if !w.closed {
		t.Error("underlying writer should be closed")
	}
}

func TestAsync_PublishErrorIsLoggedNotReturned(t *testing.T) {
	a := NewAsync(NewKafkaPublisherWithWriter(&memWriter{err: errors.New("broker down")}, "t"), 1)
	if err := a.Publish(context.Background(), sampleEvent()); err != nil {
		t.Errorf("async publish should not fail the caller: %v", err)
	}
	a.Close()
}

func TestAsync_PublishAfterClose(t *testing.T) {
	w := &memWriter{}
	a := NewAsync(NewKafkaPublisherWithWriter(w, "evm-votes"), 4)
	a.Close()

	if err := a.Publish(context.Background(), sampleEvent()); err != nil {
		t.Errorf("publish after close should drop quietly: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
	if n := len(w.written()); n != 0 {
		t.Errorf("expected nothing written, got %d", n)
	}
}
