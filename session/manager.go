// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"log/slog"
	"sync"

	"github.com/danielhkuo/dummy-evm/clock"
	"github.com/danielhkuo/dummy-evm/metrics"
)

// Manager owns the live controller of every open voter session
type Manager struct {
	ledger  Ledger
	guard   Guard
	clock   clock.Clock
	notify  Notifier
	cfg     Config
	metrics *metrics.Metrics

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewManager(l Ledger, g Guard, c clock.Clock, n Notifier, cfg Config, m *metrics.Metrics) *Manager {
	return &Manager{
		ledger:      l,
		guard:       g,
		clock:       c,
		notify:      n,
		cfg:         cfg,
		metrics:     m,
		controllers: make(map[string]*Controller),
	}
}

// Open returns the controller for token, creating it if needed
func (m *Manager) Open(token string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctrl, ok := m.controllers[token]; ok {
		return ctrl
	}
	ctrl := NewController(token, m.ledger, m.guard, m.clock, m.notify, m.cfg)
	m.controllers[token] = ctrl
	m.metrics.SessionOpened()
	return ctrl
}

func (m *Manager) Get(token string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.controllers[token]
	return ctrl, ok
}

// Close tears down one session. Reports whether it was open.
func (m *Manager) Close(token string) bool {
	m.mu.Lock()
	ctrl, ok := m.controllers[token]
	delete(m.controllers, token)
	m.mu.Unlock()

	if !ok {
		return false
	}
	ctrl.Close()
	m.metrics.SessionClosed()
	return true
}

// CloseAll tears down every session, e.g. on shutdown
func (m *Manager) CloseAll() {
	m.mu.Lock()
	controllers := m.controllers
	m.controllers = make(map[string]*Controller)
	m.mu.Unlock()

	for _, ctrl := range controllers {
		ctrl.Close()
		m.metrics.SessionClosed()
	}
	if len(controllers) > 0 {
		slog.Info("closed voter sessions", "count", len(controllers))
	}
}

// Len reports how many sessions are open
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}
