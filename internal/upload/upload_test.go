package upload

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeServer records ingest requests and serves a small catalog.
type fakeServer struct {
	mu       sync.Mutex
	requests []ingestRequest
	failures int
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/poses", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]poseEntry{
			{Name: "Tree", Difficulty: "BEGINNER"},
			{Name: "Lotus", Difficulty: "ADVANCED"},
		})
	})
	mux.HandleFunc("POST /api/v1/ingest/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "k" {
			t.Errorf("missing api key header")
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		f.requests = append(f.requests, req)
		json.NewEncoder(w).Encode(IngestResult{Received: len(req.Sessions), Inserted: len(req.Sessions)})
	})
	return mux
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestUploader(t *testing.T, serverURL, root string, dryRun bool) *Uploader {
	t.Helper()
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	t.Cleanup(func() { state.Close() })

	client := NewClient(serverURL, "k")
	client.backoff = time.Millisecond
	return New(client, state, root, "alice", dryRun, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestParseSessions verifies single-object, array and empty files.
func TestParseSessions(t *testing.T) {
	one, err := ParseSessions([]byte(`{"pose_name":"Tree","average_accuracy":81}`))
	if err != nil || len(one) != 1 || one[0].PoseName != "Tree" {
		t.Errorf("single = %+v, %v", one, err)
	}
	many, err := ParseSessions([]byte(` [{"pose_name":"Tree"},{"pose_name":"Lotus"}]`))
	if err != nil || len(many) != 2 {
		t.Errorf("array = %+v, %v", many, err)
	}
	none, err := ParseSessions([]byte("  \n"))
	if err != nil || len(none) != 0 {
		t.Errorf("empty = %+v, %v", none, err)
	}
	if _, err := ParseSessions([]byte("{not json")); err == nil {
		t.Error("expected error for malformed file")
	}
}

// TestRunUploadsAndSkips verifies unknown poses are rejected, valid sessions are
// sent once, and a second run skips files already recorded.
func TestRunUploadsAndSkips(t *testing.T) {
	fake := &fakeServer{}
	ts := httptest.NewServer(fake.handler(t))
	defer ts.Close()

	root := t.TempDir()
	writeFile(t, root, "2026-03-01/a.json", `{"pose_name":"Tree","average_accuracy":81,"duration_seconds":40}`)
	writeFile(t, root, "2026-03-01/b.json", `[{"pose_name":"Lotus","average_accuracy":66},{"pose_name":"Handstand","average_accuracy":50}]`)
	writeFile(t, root, "notes.txt", "ignored")
	writeFile(t, root, "broken.json", "{")

	u := newTestUploader(t, ts.URL, root, false)
	stats, err := u.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.FilesTotal != 3 || stats.FilesUploaded != 2 || stats.FilesErrored != 1 {
		t.Errorf("file stats = %+v", stats)
	}
	if stats.SessionsSent != 2 || stats.SessionsInserted != 2 || stats.SessionsRejected != 1 {
		t.Errorf("session stats = %+v", stats)
	}
	if len(stats.UnknownPoses) != 1 || stats.UnknownPoses[0] != "Handstand" {
		t.Errorf("unknown poses = %v", stats.UnknownPoses)
	}
	if len(fake.requests) != 1 || fake.requests[0].Login != "alice" {
		t.Fatalf("requests = %+v", fake.requests)
	}
	for _, s := range fake.requests[0].Sessions {
		if s.ID == nil {
			t.Errorf("session %s sent without id", s.PoseName)
		}
	}

	// Second run with a fresh uploader sharing the state DB.
	u2 := New(u.client, u.state, root, "alice", false, 10, u.log)
	stats, err = u2.Run()
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.FilesSkipped != 2 || stats.SessionsSent != 0 {
		t.Errorf("second run stats = %+v", stats)
	}
	files, sessions, err := u.state.Totals()
	if err != nil || files != 2 || sessions != 2 {
		t.Errorf("totals = %d files, %d sessions, %v", files, sessions, err)
	}
}

// TestStableSessionIDs verifies IDs derive from file content, so re-sending
// an unchanged file reuses them.
func TestStableSessionIDs(t *testing.T) {
	u := newTestUploader(t, "http://unused", t.TempDir(), true)
	in := []Session{{PoseName: "Tree", AverageAccuracy: 70}, {PoseName: "Tree", AverageAccuracy: 71}}

	a := u.filter("x.json", "abc", in, nil)
	b := u.filter("y.json", "abc", in, nil)
	if *a[0].ID != *b[0].ID {
		t.Error("same content produced different ids")
	}
	if *a[0].ID == *a[1].ID {
		t.Error("sessions in one file share an id")
	}
}

// TestSessionIDsScopedToLogin verifies two users uploading the same file get
// different session IDs.
func TestSessionIDsScopedToLogin(t *testing.T) {
	alice := newTestUploader(t, "http://unused", t.TempDir(), true)
	bob := newTestUploader(t, "http://unused", t.TempDir(), true)
	bob.login = "bob"
	in := []Session{{PoseName: "Tree", AverageAccuracy: 70}}

	a := alice.filter("x.json", "abc", in, nil)
	b := bob.filter("x.json", "abc", in, nil)
	if *a[0].ID == *b[0].ID {
		t.Error("different logins produced the same id")
	}
}

// TestDryRunSendsNothing verifies dry-run parses without contacting the server
// or recording state.
func TestDryRunSendsNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.json", `{"pose_name":"Anything","average_accuracy":50}`)

	u := newTestUploader(t, "http://127.0.0.1:1", root, true)
	stats, err := u.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.SessionsSent != 1 || stats.FilesUploaded != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if files, _, _ := u.state.Totals(); files != 0 {
		t.Errorf("dry-run recorded %d files", files)
	}
}

// TestSendSessionsRetries verifies 5xx responses are retried.
func TestSendSessionsRetries(t *testing.T) {
	fake := &fakeServer{failures: 2}
	ts := httptest.NewServer(fake.handler(t))
	defer ts.Close()

	c := NewClient(ts.URL, "k")
	c.backoff = time.Millisecond
	res, err := c.SendSessions("alice", []Session{{PoseName: "Tree", AverageAccuracy: 90}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", res.Inserted)
	}
}

// TestSendSessionsClientError verifies 4xx responses are not retried.
func TestSendSessionsClientError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "k")
	c.backoff = time.Millisecond
	if _, err := c.SendSessions("ghost", nil); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
