// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/testutil"
)

func TestRegisterCandidate(t *testing.T) {
	env := newTestEnv(t)

	f := candidateForm("3")
	f.fields["multipleVotes"] = "on"
	f.files["candidatePoster"] = pngHeader
	w := httptest.NewRecorder()
	env.candidates.Register(w, f.request(t, "/candidates"))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var c models.Candidate
	testutil.DecodeData(t, w, &c)
	if c.ID == "" {
		t.Fatal("Expected candidate id")
	}
	if c.SerialNo != 3 || !c.MultipleVotes {
		t.Errorf("Unexpected candidate: serial %d multiple %v", c.SerialNo, c.MultipleVotes)
	}
	if !strings.HasPrefix(c.Photo, "/media/") || !strings.HasPrefix(c.SymbolImage, "/media/") {
		t.Errorf("Expected media references, got %q and %q", c.Photo, c.SymbolImage)
	}
	if c.Poster == nil {
		t.Error("Expected poster reference")
	}
	if n := env.storedFiles(t); n != 3 {
		t.Errorf("Expected 3 stored files, got %d", n)
	}
}

func TestRegisterCandidate_Rejected(t *testing.T) {
	tests := []struct {
		name           string
		edit           func(f form)
		expectedStatus int
	}{
		{
			name:           "serial above ballot",
			edit:           func(f form) { f.fields["serialNo"] = "20" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "serial not a number",
			edit:           func(f form) { f.fields["serialNo"] = "three" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			edit:           func(f form) { delete(f.fields, "candidateName") },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing photo",
			edit:           func(f form) { delete(f.files, "candidatePhoto") },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "photo not an image",
			edit:           func(f form) { f.files["candidatePhoto"] = []byte("plain text, not a picture") },
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			f := candidateForm("3")
			tt.edit(f)
			w := httptest.NewRecorder()
			env.candidates.Register(w, f.request(t, "/candidates"))
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if n := env.storedFiles(t); n != 0 {
				t.Errorf("Expected uploads to be discarded, %d files left", n)
			}
		})
	}
}

func TestRegisterCandidate_DuplicateSerial(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.candidates.Register(w, candidateForm("5").request(t, "/candidates"))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	env.candidates.Register(w, candidateForm("5").request(t, "/candidates"))
	testutil.AssertStatus(t, w, http.StatusConflict)

	if n := env.storedFiles(t); n != 2 {
		t.Errorf("Expected only the first candidate's 2 files, got %d", n)
	}
}

func TestCandidateRace(t *testing.T) {
	env := newTestEnv(t)

	id := testutil.CreateTestCandidate(t, env.db, "Testnagar", "4", 2, false)
	testutil.CreateTestCandidate(t, env.db, "Testnagar", "4", 6, false)
	testutil.CreateTestCandidate(t, env.db, "Testnagar", "5", 1, false)

	req := httptest.NewRequest("GET", "/candidates/"+id+"/race", nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	env.candidates.Race(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var ballot models.RaceBallot
	testutil.DecodeData(t, w, &ballot)
	if len(ballot.Candidates) != 2 {
		t.Errorf("Expected 2 candidates in the ward, got %d", len(ballot.Candidates))
	}
	if len(ballot.Rows) != 11 {
		t.Errorf("Expected 11 ballot rows, got %d", len(ballot.Rows))
	}
	if ballot.Rows[1].Entry == nil || ballot.Rows[1].Entry.ID != id {
		t.Error("Expected candidate on row 2")
	}
	if ballot.Rows[0].Entry != nil {
		t.Error("Expected row 1 to be empty")
	}
}

func TestCandidateGetAndDelete(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.candidates.Register(w, candidateForm("8").request(t, "/candidates"))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var c models.Candidate
	testutil.DecodeData(t, w, &c)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/candidates/"+c.ID, nil)
		req.SetPathValue("id", c.ID)
		w := httptest.NewRecorder()
		env.candidates.Get(w, req)
		return w
	}
	testutil.AssertStatus(t, get(), http.StatusOK)

	req := httptest.NewRequest("DELETE", "/candidates/"+c.ID, nil)
	req.SetPathValue("id", c.ID)
	w = httptest.NewRecorder()
	env.candidates.Delete(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	testutil.AssertStatus(t, get(), http.StatusNotFound)
	if n := env.storedFiles(t); n != 0 {
		t.Errorf("Expected media removed with candidate, %d files left", n)
	}
}

func TestListCandidates(t *testing.T) {
	env := newTestEnv(t)

	testutil.CreateTestCandidate(t, env.db, "Testnagar", "1", 1, false)
	testutil.CreateTestCandidate(t, env.db, "Testnagar", "2", 1, true)

	w := httptest.NewRecorder()
	env.candidates.List(w, httptest.NewRequest("GET", "/candidates", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var list []models.Candidate
	testutil.DecodeData(t, w, &list)
	if len(list) != 2 {
		t.Errorf("Expected 2 candidates, got %d", len(list))
	}
}
