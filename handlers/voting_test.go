// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/testutil"
)

func TestCastCandidate(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, false)

	w := env.castCandidate(token, id)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VoteResponse
	testutil.DecodeData(t, w, &resp)
	if resp.Result != models.ResultAllowed || resp.Votes != 1 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if resp.State != "confirming" {
		t.Errorf("Expected state confirming, got %s", resp.State)
	}
	if votes := testutil.Votes(t, env.db, id, "SINGLE"); votes != 1 {
		t.Errorf("Expected 1 vote stored, got %d", votes)
	}

	published := env.events.published()
	if len(published) != 1 {
		t.Fatalf("Expected 1 vote event, got %d", len(published))
	}
	ev := published[0]
	if ev.RaceID != id || ev.RaceType != models.RaceCandidate || ev.Votes != 1 {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if ev.VoterHash == "" || ev.VoterHash == token {
		t.Error("Expected the voter token hashed in the event")
	}

	// Busy until the reveal settles, then refused as a duplicate
	testutil.AssertStatus(t, env.castCandidate(token, id), http.StatusTooManyRequests)
	env.clock.Advance(env.cfg.SettleDelay)
	testutil.AssertStatus(t, env.castCandidate(token, id), http.StatusConflict)

	if votes := testutil.Votes(t, env.db, id, "SINGLE"); votes != 1 {
		t.Errorf("Expected duplicate to leave 1 vote, got %d", votes)
	}
}

func TestCastCandidate_MultipleVotes(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, true)

	for i := int64(1); i <= 3; i++ {
		w := env.castCandidate(token, id)
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.VoteResponse
		testutil.DecodeData(t, w, &resp)
		if resp.Votes != i {
			t.Errorf("Vote %d: expected count %d, got %d", i, i, resp.Votes)
		}
		env.clock.Advance(env.cfg.SettleDelay)
	}
}

func TestCastCandidate_Errors(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, false)

	tests := []struct {
		name           string
		token          string
		raceID         string
		body           string
		expectedStatus int
	}{
		{
			name:           "missing token",
			raceID:         id,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown token",
			token:          mustToken(t),
			raceID:         id,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown candidate",
			token:          token,
			raceID:         "no-such-candidate",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid JSON",
			token:          token,
			raceID:         id,
			body:           "{votes:",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/candidates/vote/"+tt.raceID, strings.NewReader(tt.body))
			req.SetPathValue("id", tt.raceID)
			if tt.token != "" {
				req.Header.Set(middleware.VoterTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()
			env.votes.CastCandidate(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	if votes := testutil.Votes(t, env.db, id, "SINGLE"); votes != 0 {
		t.Errorf("Expected no votes stored, got %d", votes)
	}
}

func TestCastCandidate_ClientCountIgnored(t *testing.T) {
	env := newTestEnv(t)
	// A session row without a live controller, as after a restart
	token := testutil.CreateTestSession(t, env.db)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, false)

	var votes int64 = 999
	req := testutil.MakeRequest("PATCH", "/candidates/vote/"+id, models.VoteRequest{Votes: &votes},
		map[string]string{middleware.VoterTokenHeader: token})
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	env.votes.CastCandidate(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VoteResponse
	testutil.DecodeData(t, w, &resp)
	if resp.Votes != 1 {
		t.Errorf("Expected server count 1, got %d", resp.Votes)
	}
}

func TestCastCandidate_GuardUnavailable(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, false)

	if _, err := env.db.Exec(`DROP TABLE vote_mark`); err != nil {
		t.Fatalf("Failed to drop vote_mark: %v", err)
	}

	w := env.castCandidate(token, id)
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)

	var resp models.APIResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Success || !strings.Contains(resp.Message, "try again") {
		t.Errorf("Expected retry message, got %+v", resp)
	}
	if got := promtest.ToFloat64(env.metrics.VotesFailed.WithLabelValues(models.RaceCandidate, "SINGLE")); got != 1 {
		t.Errorf("Expected 1 failed vote recorded, got %v", got)
	}
	if votes := testutil.Votes(t, env.db, id, "SINGLE"); votes != 0 {
		t.Errorf("Expected no votes stored, got %d", votes)
	}
}

func TestLiveController_SessionClosedAfterCheck(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	env.sessions.Close(token)
	before := promtest.ToFloat64(env.metrics.Sessions)

	// The row is closed after the caller's check but before the
	// controller is fetched
	if _, err := env.db.Exec(`UPDATE voter_session SET closed_at = $1 WHERE token = $2`,
		time.Now().UTC(), token); err != nil {
		t.Fatalf("Failed to close session row: %v", err)
	}

	if _, err := liveController(context.Background(), env.db, env.sessions, token); err != errNoSession {
		t.Fatalf("Expected errNoSession, got %v", err)
	}
	if _, ok := env.sessions.Get(token); ok {
		t.Error("Expected no controller left for a closed session")
	}
	if got := promtest.ToFloat64(env.metrics.Sessions); got != before {
		t.Errorf("Expected open sessions gauge %v, got %v", before, got)
	}
}

func TestCastPanel(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	id := testutil.CreateTestPanel(t, env.db, false)

	testutil.AssertStatus(t, env.castPanel(token, id, "C"), http.StatusBadRequest)

	for _, seat := range []string{"a", "B", "adhyaksh"} {
		w := env.castPanel(token, id, seat)
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.VoteResponse
		testutil.DecodeData(t, w, &resp)
		if resp.Votes != 1 {
			t.Errorf("Seat %s: expected 1 vote, got %d", seat, resp.Votes)
		}
	}

	env.clock.Advance(env.cfg.PanelSettleDelay)
	testutil.AssertStatus(t, env.castPanel(token, id, "A"), http.StatusConflict)

	for _, seat := range []string{"A", "B", "ADHYAKSH"} {
		if votes := testutil.Votes(t, env.db, id, seat); votes != 1 {
			t.Errorf("Seat %s: expected 1 vote stored, got %d", seat, votes)
		}
	}

	for _, ev := range env.events.published() {
		if ev.RaceType != models.RacePanel {
			t.Errorf("Expected panel race type, got %s", ev.RaceType)
		}
	}
}

// TestConcurrentVoters verifies that simultaneous votes from different
// sessions are all counted
func TestConcurrentVoters(t *testing.T) {
	env := newTestEnv(t)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, false)

	numVoters := 10
	tokens := make([]string, numVoters)
	for i := range tokens {
		tokens[i] = env.openSession(t)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			if env.castCandidate(token, id).Code == http.StatusOK {
				successCount.Add(1)
			}
		}(tokens[i])
	}
	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, successCount.Load())
	}
	if votes := testutil.Votes(t, env.db, id, "SINGLE"); votes != int64(numVoters) {
		t.Errorf("Expected %d votes stored, got %d", numVoters, votes)
	}

	// Every count from 1 to numVoters handed out exactly once
	seen := make(map[int64]bool)
	for _, ev := range env.events.published() {
		if seen[ev.Votes] {
			t.Errorf("Count %d returned twice", ev.Votes)
		}
		seen[ev.Votes] = true
	}
}

// TestConcurrentSameVoter verifies that a burst of presses from one
// session records a single vote
func TestConcurrentSameVoter(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, false)

	numPresses := 8
	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numPresses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch env.castCandidate(token, id).Code {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusTooManyRequests, http.StatusConflict:
			default:
				t.Error("Unexpected status for a repeated press")
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful press, got %d", successCount.Load())
	}
	if votes := testutil.Votes(t, env.db, id, "SINGLE"); votes != 1 {
		t.Errorf("Expected 1 vote stored, got %d", votes)
	}
}

func TestResetGuard(t *testing.T) {
	env := newTestEnv(t)
	token := env.openSession(t)
	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "3", 1, false)

	testutil.AssertStatus(t, env.castCandidate(token, id), http.StatusOK)
	env.clock.Advance(3 * time.Second)
	testutil.AssertStatus(t, env.castCandidate(token, id), http.StatusConflict)

	req := httptest.NewRequest("DELETE", "/guard/"+id, nil)
	req.SetPathValue("raceID", id)
	w := httptest.NewRecorder()
	env.votes.ResetGuard(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.GuardResetResponse
	testutil.DecodeData(t, w, &resp)
	if resp.Cleared != 1 {
		t.Errorf("Expected 1 mark cleared, got %d", resp.Cleared)
	}

	testutil.AssertStatus(t, env.castCandidate(token, id), http.StatusOK)
	if votes := testutil.Votes(t, env.db, id, "SINGLE"); votes != 2 {
		t.Errorf("Expected 2 votes after reset, got %d", votes)
	}
}
