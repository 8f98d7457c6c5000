package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/marloch/vinyl/internal/library"
)

func testStore(t *testing.T) *library.Store {
	t.Helper()
	store, err := library.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type capture struct {
	mu       sync.Mutex
	received []feedbackPayload
}

func (c *capture) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p feedbackPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			c.mu.Lock()
			c.received = append(c.received, p)
			c.mu.Unlock()
		}
		w.WriteHeader(status)
	}
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestSubmitDeliversImmediately(t *testing.T) {
	store := testStore(t)
	var rec capture
	srv := httptest.NewServer(rec.handler(http.StatusCreated))
	defer srv.Close()

	svc := NewService(nil, store, srv.URL, time.Second)
	fb, err := svc.Submit(context.Background(), "  skip button is tiny  ", "me@example.com")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if fb.Message != "skip button is tiny" {
		t.Errorf("Message = %q, want trimmed text", fb.Message)
	}
	if fb.SentAt == nil {
		t.Error("SentAt = nil after successful upload")
	}
	if rec.count() != 1 {
		t.Errorf("server received %d payloads, want 1", rec.count())
	}

	pending, err := svc.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("Pending() = %d rows, want 0", len(pending))
	}
}

func TestSubmitKeepsMessageWhenUploadFails(t *testing.T) {
	store := testStore(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(nil, store, srv.URL, time.Second)
	fb, err := svc.Submit(context.Background(), "crashes on FLAC", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if fb.SentAt != nil {
		t.Error("SentAt set even though upload failed")
	}

	pending, err := svc.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("Pending() = %d rows, want 1", len(pending))
	}
	if pending[0].Message != "crashes on FLAC" {
		t.Errorf("pending message = %q", pending[0].Message)
	}
}

func TestSubmitRejectsEmptyMessage(t *testing.T) {
	svc := NewService(nil, testStore(t), "", time.Second)
	if _, err := svc.Submit(context.Background(), "   ", ""); err == nil {
		t.Error("Submit() with blank message = nil, want error")
	}
}

func TestFlushRetriesUnsent(t *testing.T) {
	store := testStore(t)
	svc := NewService(nil, store, "", time.Second)

	for _, msg := range []string{"first", "second"} {
		if _, err := svc.Submit(context.Background(), msg, ""); err != nil {
			t.Fatalf("Submit(%q) error = %v", msg, err)
		}
	}
	if pending, _ := svc.Pending(); len(pending) != 2 {
		t.Fatalf("Pending() = %d rows, want 2 with no endpoint", len(pending))
	}

	var rec capture
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	svc.baseURL = srv.URL
	sent, err := svc.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if sent != 2 {
		t.Errorf("Flush() sent = %d, want 2", sent)
	}
	if rec.count() != 2 {
		t.Errorf("server received %d payloads, want 2", rec.count())
	}
	if pending, _ := svc.Pending(); len(pending) != 0 {
		t.Errorf("Pending() = %d rows after flush, want 0", len(pending))
	}
}

func TestFlushStopsAtFirstError(t *testing.T) {
	store := testStore(t)
	svc := NewService(nil, store, "", time.Second)
	for _, msg := range []string{"first", "second", "third"} {
		if _, err := svc.Submit(context.Background(), msg, ""); err != nil {
			t.Fatal(err)
		}
	}

	var rec capture
	var fails int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fails++
		failNow := fails > 1
		mu.Unlock()
		if failNow {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		rec.handler(http.StatusOK)(w, r)
	}))
	defer srv.Close()

	svc.baseURL = srv.URL
	sent, err := svc.Flush(context.Background())
	if err == nil {
		t.Fatal("Flush() error = nil, want upload failure")
	}
	if sent != 1 {
		t.Errorf("Flush() sent = %d, want 1", sent)
	}
	if pending, _ := svc.Pending(); len(pending) != 2 {
		t.Errorf("Pending() = %d rows, want 2 still queued", len(pending))
	}
}
