package models

import (
	"strings"
	"time"
)

// Seat identifies one contestable position. A single-candidate race has
// exactly one seat; a panel has three.
type Seat string

const (
	SeatSingle   Seat = "SINGLE"
	SeatA        Seat = "A"
	SeatB        Seat = "B"
	SeatAdhyaksh Seat = "ADHYAKSH"
)

// PanelSeats lists panel seats in ballot order
var PanelSeats = []Seat{SeatA, SeatB, SeatAdhyaksh}

// ParseSeat accepts panel seat names case-insensitively
func ParseSeat(s string) (Seat, bool) {
	switch Seat(strings.ToUpper(strings.TrimSpace(s))) {
	case SeatA:
		return SeatA, true
	case SeatB:
		return SeatB, true
	case SeatAdhyaksh:
		return SeatAdhyaksh, true
	}
	return "", false
}

// Serial number bounds per race type
const (
	MaxSingleSerial   = 19
	MaxWardSeatSerial = 50
	MaxAdhyakshSerial = 20
)

// MaxSerial returns the highest serial number allowed for a seat
func MaxSerial(seat Seat) int {
	switch seat {
	case SeatA, SeatB:
		return MaxWardSeatSerial
	case SeatAdhyaksh:
		return MaxAdhyakshSerial
	}
	return MaxSingleSerial
}

// RaceKey addresses one counter: a candidate (seat SINGLE) or one seat of a panel
type RaceKey struct {
	RaceID string `json:"raceId"`
	Seat   Seat   `json:"seat"`
}

func (k RaceKey) String() string {
	return k.RaceID + "/" + string(k.Seat)
}

// Race types
const (
	RaceCandidate = "candidate"
	RacePanel     = "panel"
)

// Vote results
const (
	ResultAllowed      = "allowed"
	ResultAlreadyVoted = "already_voted"
)

// Session event types
const (
	EventConfirmed = "confirmed"
	EventRevealed  = "revealed"
	EventThankYou  = "thank_you"
	EventFailed    = "failed"
)

// Domain types

type Candidate struct {
	ID            string    `json:"id"`
	Name          string    `json:"candidateName"`
	SymbolName    string    `json:"symbolName"`
	Party         string    `json:"party"`
	Constituency  string    `json:"constituency"`
	WardNo        string    `json:"wardNo"`
	SerialNo      int       `json:"serialNo"`
	MultipleVotes bool      `json:"multipleVotes"`
	Photo         string    `json:"candidatePhoto"`
	SymbolImage   string    `json:"symbolImage"`
	Poster        *string   `json:"candidatePoster,omitempty"`
	Votes         int64     `json:"votes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type PanelSeat struct {
	Seat        Seat   `json:"seat"`
	Name        string `json:"name"`
	SerialNo    int    `json:"serialNo"`
	Party       string `json:"party"`
	SymbolName  string `json:"symbolName"`
	Photo       string `json:"photo"`
	SymbolImage string `json:"symbolImage"`
	Votes       int64  `json:"votes"`
}

type Panel struct {
	ID            string      `json:"id"`
	Constituency  string      `json:"constituency"`
	WardNo        string      `json:"wardNo"`
	MultipleVotes bool        `json:"multipleVotes"`
	Poster        *string     `json:"candidatePoster,omitempty"`
	IsActive      bool        `json:"isActive"`
	Seats         []PanelSeat `json:"seats"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Seat returns the named seat or nil
func (p *Panel) Seat(seat Seat) *PanelSeat {
	for i := range p.Seats {
		if p.Seats[i].Seat == seat {
			return &p.Seats[i]
		}
	}
	return nil
}

// Parties returns the distinct parties on the panel, Adhyaksh first,
// ignoring case and blanks.
func (p *Panel) Parties() []string {
	order := []Seat{SeatAdhyaksh, SeatA, SeatB}
	seen := make(map[string]bool)
	var out []string
	for _, s := range order {
		seat := p.Seat(s)
		if seat == nil {
			continue
		}
		party := strings.TrimSpace(seat.Party)
		key := strings.ToLower(party)
		if party == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, party)
	}
	return out
}

// Ballot layout

type BallotEntry struct {
	ID          string `json:"id"`
	Seat        Seat   `json:"seat"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	SymbolName  string `json:"symbolName"`
	Photo       string `json:"photo"`
	SymbolImage string `json:"symbolImage"`
	Votes       int64  `json:"votes"`
}

// BallotRow is one button row on the EVM; Entry is nil for empty rows
type BallotRow struct {
	SerialNo int          `json:"serialNo"`
	Entry    *BallotEntry `json:"entry,omitempty"`
}

type RaceBallot struct {
	Candidates []Candidate `json:"candidates"`
	Rows       []BallotRow `json:"rows"`
	TotalVotes int64       `json:"totalVotes"`
	Poster     *string     `json:"candidatePoster,omitempty"`
}

type PanelBallot struct {
	Panel      Panel                `json:"panel"`
	Parties    []string             `json:"parties"`
	Rows       map[Seat][]BallotRow `json:"rows"`
	TotalVotes int64                `json:"totalVotes"`
}

// Request types

// VoteRequest is accepted for client compatibility; Votes is ignored
// because the server increments atomically.
type VoteRequest struct {
	Votes *int64 `json:"votes,omitempty"`
}

// Response types

// APIResponse is the envelope for every JSON response
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type OpenSessionResponse struct {
	VoterToken string `json:"voter_token"`
}

type SessionInfo struct {
	PosterShown bool      `json:"poster_shown"`
	CreatedAt   time.Time `json:"created_at"`
}

type VoteResponse struct {
	RaceID string `json:"raceId"`
	Seat   Seat   `json:"seat"`
	Result string `json:"result"`
	Votes  int64  `json:"votes"`
	State  string `json:"state"`
}

type GuardResetResponse struct {
	Cleared int64 `json:"cleared"`
}

// Events

// SessionEvent is delivered to the voting screen of one session
type SessionEvent struct {
	Type   string    `json:"type"`
	RaceID string    `json:"raceId"`
	Seat   Seat      `json:"seat,omitempty"`
	Votes  int64     `json:"votes,omitempty"`
	At     time.Time `json:"at"`
}

// TallyUpdate is broadcast to everyone watching a race once a vote settles
type TallyUpdate struct {
	RaceID string `json:"raceId"`
	Seat   Seat   `json:"seat"`
	Votes  int64  `json:"votes"`
}

// VoteEvent is published to the event stream after a durable increment
type VoteEvent struct {
	RaceID    string    `json:"race_id"`
	Seat      Seat      `json:"seat"`
	RaceType  string    `json:"race_type"`
	Votes     int64     `json:"votes"`
	VoterHash string    `json:"voter_hash"`
	Timestamp time.Time `json:"timestamp"`
}
