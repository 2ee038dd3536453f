// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/dummy-evm/clock"
	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/events"
	"github.com/danielhkuo/dummy-evm/guard"
	"github.com/danielhkuo/dummy-evm/ledger"
	"github.com/danielhkuo/dummy-evm/media"
	"github.com/danielhkuo/dummy-evm/metrics"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/pubsub"
	"github.com/danielhkuo/dummy-evm/registry"
	"github.com/danielhkuo/dummy-evm/session"
	"github.com/danielhkuo/dummy-evm/testutil"
)

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// testEnv wires the handlers to a fresh database and a fake clock
type testEnv struct {
	db       *sql.DB
	cfg      cliparse.Config
	clock    *clock.FakeClock
	media    *media.Store
	mediaDir string
	metrics  *metrics.Metrics
	sessions *session.Manager
	hub      *pubsub.Hub
	events   *recordingPublisher

	candidates *CandidateHandler
	panels     *PanelHandler
	votes      *VoteHandler
	voters     *SessionHandler
	live       *LiveHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	cfg := testutil.GetTestConfig()
	clk := clock.Fake(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))
	m := metrics.New()

	dir := t.TempDir()
	store, err := media.NewStore(dir, cfg.MaxUploadBytes)
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}

	reg := registry.New(conn)
	g := guard.New(guard.NewSQLStore(conn))
	l := ledger.New(ledger.NewSQLStore(conn), ledger.WithClock(clk), ledger.WithMetrics(m))
	hub := pubsub.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	sessions := session.NewManager(l, g, clk, hub, session.Config{
		SettleDelay:      cfg.SettleDelay,
		PanelSettleDelay: cfg.PanelSettleDelay,
	}, m)
	t.Cleanup(sessions.CloseAll)

	pub := &recordingPublisher{}

	return &testEnv{
		db:         conn,
		cfg:        cfg,
		clock:      clk,
		media:      store,
		mediaDir:   dir,
		metrics:    m,
		sessions:   sessions,
		hub:        hub,
		events:     pub,
		candidates: NewCandidateHandler(reg, store, cfg),
		panels:     NewPanelHandler(reg, store, cfg),
		votes:      NewVoteHandler(conn, cfg, reg, g, sessions, pub, m),
		voters:     NewSessionHandler(conn, cfg, sessions),
		live:       NewLiveHandler(conn, hub),
	}
}

// recordingPublisher keeps published vote events in memory
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.VoteEvent
}

var _ events.Publisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(_ context.Context, ev models.VoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []models.VoteEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.VoteEvent(nil), p.events...)
}

// openSession opens a voter session through the handler and returns its token
func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()

	req := httptest.NewRequest("POST", "/sessions", nil)
	w := httptest.NewRecorder()
	e.voters.Open(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.OpenSessionResponse
	testutil.DecodeData(t, w, &resp)
	if resp.VoterToken == "" {
		t.Fatal("Expected non-empty voter_token")
	}
	return resp.VoterToken
}

// castCandidate votes for a candidate as token
func (e *testEnv) castCandidate(token, id string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/candidates/vote/"+id, nil,
		map[string]string{middleware.VoterTokenHeader: token})
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	e.votes.CastCandidate(w, req)
	return w
}

// castPanel votes for one seat of a panel as token
func (e *testEnv) castPanel(token, id, seat string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/panel/vote/"+id+"/"+seat, nil,
		map[string]string{middleware.VoterTokenHeader: token})
	req.SetPathValue("id", id)
	req.SetPathValue("seat", seat)
	w := httptest.NewRecorder()
	e.votes.CastPanel(w, req)
	return w
}

// storedFiles counts files in the media directory
func (e *testEnv) storedFiles(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.mediaDir)
	if err != nil {
		t.Fatalf("Failed to read media dir: %v", err)
	}
	return len(entries)
}

// form builds a multipart body from text fields and image files
type form struct {
	fields map[string]string
	files  map[string][]byte
}

func (f form) request(t *testing.T, path string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range f.fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field %s: %v", k, err)
		}
	}
	for k, content := range f.files {
		fw, err := mw.CreateFormFile(k, k+".png")
		if err != nil {
			t.Fatalf("Failed to create form file %s: %v", k, err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.AdminKeyHeader, testutil.TestAdminKey)
	return req
}

func candidateForm(serial string) form {
	return form{
		fields: map[string]string{
			"candidateName": "Asha Patil",
			"symbolName":    "Lamp",
			"party":         "Lok Janata",
			"constituency":  "Testnagar",
			"wardNo":        "7",
			"serialNo":      serial,
		},
		files: map[string][]byte{
			"candidatePhoto": pngHeader,
			"symbolImage":    pngHeader,
		},
	}
}

func panelForm() form {
	f := form{
		fields: map[string]string{
			"constituency": "Testnagar",
			"wardNo":       "9",
		},
		files: map[string][]byte{"candidatePoster": pngHeader},
	}
	serials := map[models.Seat]string{models.SeatA: "3", models.SeatB: "21", models.SeatAdhyaksh: "5"}
	for _, seat := range models.PanelSeats {
		prefix := registry.SeatFieldPrefix(seat)
		f.fields[prefix+"Name"] = "Seat " + string(seat)
		f.fields[prefix+"SerialNo"] = serials[seat]
		f.fields[prefix+"Party"] = "Lok Janata"
		f.fields[prefix+"SymbolName"] = "Lamp"
		f.files[prefix+"Photo"] = pngHeader
		f.files[prefix+"SymbolImage"] = pngHeader
	}
	return f
}
