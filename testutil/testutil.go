// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/dummy-evm/auth"
	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/db"
)

// TestAdminKey is the admin key in GetTestConfig
const TestAdminKey = "test-admin-key"

// SetupTestDB creates a fresh in-memory SQLite database with the full schema.
// Every call gets its own database, so tests can run in parallel.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := db.Open("sqlite", url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseType:     "sqlite",
		DatabaseURL:      "file::memory:",
		AdminKey:         TestAdminKey,
		IPHashSalt:       "test-ip-salt",
		MaxUploadBytes:   1 << 20,
		SettleDelay:      3 * time.Second,
		PanelSettleDelay: 2500 * time.Millisecond,
		LedgerRetries:    3,
		GuardBackend:     "sql",
		KafkaTopic:       "evm-votes",
	}
}

// CreateTestCandidate inserts a candidate and returns its ID
func CreateTestCandidate(t *testing.T, conn *sql.DB, constituency, wardNo string, serialNo int, multipleVotes bool) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, name, symbol_name, party, constituency, ward_no, serial_no,
			multiple_votes, photo, symbol_image, votes, created_at, updated_at)
		VALUES ($1, $2, 'Lamp', 'Test Party', $3, $4, $5, $6, '/media/photo.png', '/media/symbol.png', 0, $7, $8)
	`, id, fmt.Sprintf("Candidate %d", serialNo), constituency, wardNo, serialNo, multipleVotes, now, now)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return id
}

// CreateTestPanel inserts a panel with seats A, B and ADHYAKSH and returns its ID
func CreateTestPanel(t *testing.T, conn *sql.DB, multipleVotes bool) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	// Unique per panel so multiple panels never collide on serials
	ward := "ward-" + id[:8]

	_, err := conn.Exec(`
		INSERT INTO panel (id, constituency, ward_no, multiple_votes, is_active, created_at, updated_at)
		VALUES ($1, 'Testnagar', $2, $3, $4, $5, $6)
	`, id, ward, multipleVotes, true, now, now)
	if err != nil {
		t.Fatalf("Failed to create test panel: %v", err)
	}

	serials := map[string]int{"A": 4, "B": 12, "ADHYAKSH": 7}
	for _, seat := range []string{"A", "B", "ADHYAKSH"} {
		_, err := conn.Exec(`
			INSERT INTO panel_seat (panel_id, seat, constituency, ward_no, name, serial_no,
				party, symbol_name, photo, symbol_image, votes)
			VALUES ($1, $2, 'Testnagar', $3, $4, $5, 'Test Party', 'Lamp', '/media/p.png', '/media/s.png', 0)
		`, id, seat, ward, "Seat "+seat, serials[seat])
		if err != nil {
			t.Fatalf("Failed to create test panel seat %s: %v", seat, err)
		}
	}

	return id
}

// CreateTestSession opens a voter session directly in the database and
// returns its token
func CreateTestSession(t *testing.T, conn *sql.DB) string {
	t.Helper()

	token, _ := auth.GenerateVoterToken()
	_, err := conn.Exec(`
		INSERT INTO voter_session (token, poster_shown, created_at)
		VALUES ($1, $2, $3)
	`, token, false, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return token
}

// Votes reads a counter straight from the database
func Votes(t *testing.T, conn *sql.DB, raceID, seat string) int64 {
	t.Helper()

	var votes int64
	var err error
	if seat == "SINGLE" {
		err = conn.QueryRow(`SELECT votes FROM candidate WHERE id = $1`, raceID).Scan(&votes)
	} else {
		err = conn.QueryRow(`SELECT votes FROM panel_seat WHERE panel_id = $1 AND seat = $2`, raceID, seat).Scan(&votes)
	}
	if err != nil {
		t.Fatalf("Failed to read votes: %v", err)
	}
	return votes
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// DecodeData decodes an APIResponse envelope and unmarshals its data field into v
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("Expected success envelope, got message %q", env.Message)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}
