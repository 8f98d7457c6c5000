package promo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marloch/vinyl/internal/overlay"
)

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var re *overlay.ReasonError
	if !errors.As(err, &re) {
		t.Fatalf("error %v is not a ReasonError", err)
	}
	return re.Reason
}

func TestLoadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"promo-9","title":"Go Premium","body":"No more cards.","action_url":"https://example.com"}`))
	}))
	defer srv.Close()

	p := NewProvider(nil, srv.URL, 0)
	ad, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ad.ID != "promo-9" || ad.Title != "Go Premium" {
		t.Errorf("Load() = %+v, want promo-9", ad)
	}
}

func TestLoadNoFill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewProvider(nil, srv.URL, 0)
	_, err := p.Load(context.Background())
	if got := reasonOf(t, err); got != ReasonNoFill {
		t.Errorf("reason = %q, want %q", got, ReasonNoFill)
	}
}

func TestLoadMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"id": `},
		{"missing fields", `{"body":"no id or title"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewProvider(nil, srv.URL, 0)
			_, err := p.Load(context.Background())
			if got := reasonOf(t, err); got != ReasonMalformed {
				t.Errorf("reason = %q, want %q", got, ReasonMalformed)
			}
		})
	}
}

func TestLoadNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewProvider(nil, srv.URL, 0)
	_, err := p.Load(context.Background())
	if got := reasonOf(t, err); got != ReasonNetwork {
		t.Errorf("reason = %q, want %q", got, ReasonNetwork)
	}
}

func TestLoadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProvider(nil, srv.URL, 0)
	_, err := p.Load(context.Background())
	if got := reasonOf(t, err); got != ReasonNetwork {
		t.Errorf("reason = %q, want %q", got, ReasonNetwork)
	}
}

func TestLoadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewProvider(nil, srv.URL, 20*time.Millisecond)
	_, err := p.Load(context.Background())
	if got := reasonOf(t, err); got != ReasonTimeout {
		t.Errorf("reason = %q, want %q", got, ReasonTimeout)
	}
}

func TestLoadHouseAdWithoutEndpoint(t *testing.T) {
	p := NewProvider(nil, "", 0)
	ad, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ad.ID != "house-premium" || ad.Title == "" {
		t.Errorf("Load() = %+v, want the house ad", ad)
	}
}
