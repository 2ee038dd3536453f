// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/dummy-evm/clock"
	"github.com/danielhkuo/dummy-evm/guard"
	"github.com/danielhkuo/dummy-evm/ledger"
	"github.com/danielhkuo/dummy-evm/models"
)

var (
	ErrBusy   = errors.New("a vote for this seat is already in progress")
	ErrClosed = errors.New("session is closed")
)

// State is where one seat of one race stands within a session
type State int

const (
	Idle State = iota
	Checking
	Submitting
	Confirming
	Settled
	AlreadyVoted
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Checking:
		return "checking"
	case Submitting:
		return "submitting"
	case Confirming:
		return "confirming"
	case Settled:
		return "settled"
	case AlreadyVoted:
		return "already_voted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// inFlight reports states that reject a new cast for the same seat
func (s State) inFlight() bool {
	return s == Checking || s == Submitting || s == Confirming
}

// Ledger is the part of *ledger.Ledger a controller uses
type Ledger interface {
	Increment(ctx context.Context, key models.RaceKey) (int64, error)
}

// Guard is the part of *guard.Guard a controller uses
type Guard interface {
	CheckAndMark(ctx context.Context, m guard.Mark, multipleVotes bool) (guard.Decision, error)
	Unmark(ctx context.Context, m guard.Mark) error
}

// Notifier receives the events a session emits, in order per seat
type Notifier interface {
	Notify(token string, ev models.SessionEvent)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(token string, ev models.SessionEvent)

func (f NotifierFunc) Notify(token string, ev models.SessionEvent) { f(token, ev) }

type discard struct{}

func (discard) Notify(string, models.SessionEvent) {}

// Ballot is one press of a vote button
type Ballot struct {
	Key           models.RaceKey
	MultipleVotes bool
	// Eligible lists the seats of Key.RaceID this session is expected to
	// vote; the thank-you event fires once all of them have settled.
	// Empty means just Key.Seat.
	Eligible []models.Seat
}

// Outcome is what Cast reports back to the caller
type Outcome struct {
	Allowed bool
	Votes   int64
	State   State
}

// Config holds the reveal delays
type Config struct {
	SettleDelay      time.Duration
	PanelSettleDelay time.Duration
}

var DefaultConfig = Config{
	SettleDelay:      3 * time.Second,
	PanelSettleDelay: 2500 * time.Millisecond,
}

func (c Config) delay(seat models.Seat) time.Duration {
	if seat == models.SeatSingle {
		return c.SettleDelay
	}
	return c.PanelSettleDelay
}

// rollbackTimeout bounds the guard rollback after a failed increment,
// which runs even when the request context is gone.
const rollbackTimeout = 5 * time.Second

type seatState struct {
	state   State
	visible int64
	votes   int64
	known   bool
	// settled stays set once a vote for the seat has been revealed,
	// whatever later presses do to state
	settled bool
	timer   *clock.Timer
}

type raceProgress struct {
	eligible map[models.Seat]bool
	thanked  bool
}

// Controller runs the vote flow for one voter token. Each seat moves
// through its own state machine; seats never block each other.
type Controller struct {
	token  string
	ledger Ledger
	guard  Guard
	clock  clock.Clock
	notify Notifier
	cfg    Config

	mu     sync.Mutex
	closed bool
	seats  map[models.RaceKey]*seatState
	races  map[string]*raceProgress
}

func NewController(token string, l Ledger, g Guard, c clock.Clock, n Notifier, cfg Config) *Controller {
	if n == nil {
		n = discard{}
	}
	return &Controller{
		token:  token,
		ledger: l,
		guard:  g,
		clock:  c,
		notify: n,
		cfg:    cfg,
		seats:  make(map[models.RaceKey]*seatState),
		races:  make(map[string]*raceProgress),
	}
}

func (c *Controller) Token() string { return c.token }

func (c *Controller) seat(key models.RaceKey) *seatState {
	s, ok := c.seats[key]
	if !ok {
		s = &seatState{}
		c.seats[key] = s
	}
	return s
}

func (c *Controller) track(b Ballot) {
	race, ok := c.races[b.Key.RaceID]
	if !ok {
		race = &raceProgress{eligible: make(map[models.Seat]bool)}
		c.races[b.Key.RaceID] = race
	}
	if len(b.Eligible) == 0 {
		race.eligible[b.Key.Seat] = true
	}
	for _, seat := range b.Eligible {
		race.eligible[seat] = true
	}
}

func (c *Controller) setState(key models.RaceKey, st State) {
	c.mu.Lock()
	c.seat(key).state = st
	c.mu.Unlock()
}

func (c *Controller) event(typ string, key models.RaceKey, votes int64) models.SessionEvent {
	return models.SessionEvent{
		Type:   typ,
		RaceID: key.RaceID,
		Seat:   key.Seat,
		Votes:  votes,
		At:     c.clock.Now().UTC(),
	}
}

// Cast runs one vote: guard check, durable increment, then the delayed
// reveal. It returns as soon as the count is durable.
//
// A seat already checking, submitting or confirming returns ErrBusy.
// A duplicate vote returns Outcome{State: AlreadyVoted} and a nil error.
// A ledger failure rolls back this cast's mark and returns the error;
// the seat is left Failed and may be cast again.
func (c *Controller) Cast(ctx context.Context, b Ballot) (Outcome, error) {
	key := b.Key

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	s := c.seat(key)
	if s.state.inFlight() {
		c.mu.Unlock()
		return Outcome{State: s.state}, ErrBusy
	}
	s.state = Checking
	c.track(b)
	c.mu.Unlock()

	mark := guard.Mark{VoterToken: c.token, Key: key}
	decision, err := c.guard.CheckAndMark(ctx, mark, b.MultipleVotes)
	if err != nil {
		c.setState(key, Failed)
		c.emit(c.event(models.EventFailed, key, 0))
		return Outcome{State: Failed}, err
	}
	if !decision.Allowed {
		c.setState(key, AlreadyVoted)
		return Outcome{State: AlreadyVoted}, nil
	}

	c.setState(key, Submitting)
	votes, err := c.ledger.Increment(ctx, key)
	if err != nil {
		if decision.Created {
			c.rollback(mark)
		}
		c.setState(key, Failed)
		c.emit(c.event(models.EventFailed, key, 0))
		return Outcome{State: Failed}, err
	}

	c.mu.Lock()
	s = c.seat(key)
	s.state = Confirming
	s.visible = votes - 1
	s.votes = votes
	s.known = true
	if !c.closed {
		s.timer = c.clock.AfterFunc(c.cfg.delay(key.Seat), func() { c.reveal(key, votes) })
	}
	c.mu.Unlock()

	slog.Debug("vote confirmed", "race", key.String(), "votes", votes)
	c.emit(c.event(models.EventConfirmed, key, 0))
	return Outcome{Allowed: true, Votes: votes, State: Confirming}, nil
}

// emit delivers events unless the session has been closed
func (c *Controller) emit(events ...models.SessionEvent) {
	if c.Closed() {
		return
	}
	for _, ev := range events {
		c.notify.Notify(c.token, ev)
	}
}

func (c *Controller) rollback(mark guard.Mark) {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()
	if err := c.guard.Unmark(ctx, mark); err != nil {
		slog.Error("failed to roll back vote mark", "race", mark.Key.String(), "error", err)
	}
}

// reveal settles a seat once its delay has passed
func (c *Controller) reveal(key models.RaceKey, votes int64) {
	c.mu.Lock()
	s := c.seat(key)
	if c.closed || s.state != Confirming || s.votes != votes {
		c.mu.Unlock()
		return
	}
	s.state = Settled
	s.settled = true
	s.visible = votes
	s.timer = nil

	events := []models.SessionEvent{c.event(models.EventRevealed, key, votes)}
	if race := c.races[key.RaceID]; race != nil && !race.thanked && c.allSettled(key.RaceID, race) {
		race.thanked = true
		events = append(events, c.event(models.EventThankYou, models.RaceKey{RaceID: key.RaceID}, 0))
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.notify.Notify(c.token, ev)
	}
}

func (c *Controller) allSettled(raceID string, race *raceProgress) bool {
	for seat := range race.eligible {
		s, ok := c.seats[models.RaceKey{RaceID: raceID, Seat: seat}]
		if !ok || !s.settled {
			return false
		}
	}
	return true
}

// State returns the state of one seat; seats never cast are Idle
func (c *Controller) State(key models.RaceKey) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.seats[key]; ok {
		return s.state
	}
	return Idle
}

// Visible returns the count the display may show for a seat. While a
// vote is confirming this is the count before the vote. ok is false
// until this session has cast for the seat.
func (c *Controller) Visible(key models.RaceKey) (votes int64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, exists := c.seats[key]
	if !exists || !s.known {
		return 0, false
	}
	return s.visible, true
}

// Close stops pending reveals and suppresses further notifications.
// Counts already recorded stay recorded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, s := range c.seats {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var (
	_ Ledger = (*ledger.Ledger)(nil)
	_ Guard  = (*guard.Guard)(nil)
)
