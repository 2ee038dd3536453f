// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"testing"
	"time"

	"github.com/danielhkuo/dummy-evm/metrics"
	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/testutil"
)

func TestManager_OpenIsIdempotent(t *testing.T) {
	f := newFixture(t)
	m := NewManager(f.ledger, f.guard, f.clock, f.events, DefaultConfig, metrics.New())

	a := m.Open("voter-1")
	b := m.Open("voter-1")
	if a != b {
		t.Error("Open should return the existing controller")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	if got, ok := m.Get("voter-1"); !ok || got != a {
		t.Error("Get should find the open controller")
	}
	if _, ok := m.Get("voter-2"); ok {
		t.Error("Get should not find an unknown token")
	}
}

func TestManager_Close(t *testing.T) {
	f := newFixture(t)
	id := testutil.CreateTestCandidate(t, f.conn, "Pune", "1", 2, false)
	m := NewManager(f.ledger, f.guard, f.clock, f.events, DefaultConfig, nil)

	ctrl := m.Open("voter-1")
	ctrl.Cast(context.Background(), single(id, false))

	if !m.Close("voter-1") {
		t.Fatal("Close should report the session was open")
	}
	if m.Close("voter-1") {
		t.Error("second Close should report nothing to close")
	}
	if !ctrl.Closed() {
		t.Error("controller should be closed")
	}

	f.clock.Advance(5 * time.Second)
	if f.events.count(models.EventRevealed) != 0 {
		t.Error("closed session must not reveal")
	}

	// Reopening gives a fresh controller; the guard still remembers the vote
	out, err := m.Open("voter-1").Cast(context.Background(), single(id, false))
	if err != nil || out.State != AlreadyVoted {
		t.Errorf("reopened session: %+v %v", out, err)
	}
}

func TestManager_CloseAll(t *testing.T) {
	f := newFixture(t)
	m := NewManager(f.ledger, f.guard, f.clock, f.events, DefaultConfig, nil)

	ctrls := []*Controller{m.Open("a"), m.Open("b"), m.Open("c")}
	m.CloseAll()

	if m.Len() != 0 {
		t.Errorf("Len = %d after CloseAll", m.Len())
	}
	for _, c := range ctrls {
		if !c.Closed() {
			t.Errorf("controller %s still open", c.Token())
		}
	}
}
