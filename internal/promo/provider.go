// Package promo loads the promotional content shown on the free-tier
// overlay card. Failures carry short reason codes so telemetry can tell
// a dead network from an empty inventory.
package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/overlay"
)

// Load failure reason codes.
const (
	ReasonTimeout   = "timeout"
	ReasonNoFill    = "no_fill"
	ReasonMalformed = "malformed"
	ReasonNetwork   = "network"
)

// Provider fetches ads over HTTP. With no URL configured it serves the
// built-in house ad, so the free tier behaves the same offline.
type Provider struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// NewProvider builds a provider for the given promo endpoint. url may be
// empty.
func NewProvider(logger *zap.Logger, url string, timeout time.Duration) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Load implements overlay.Provider.
func (p *Provider) Load(ctx context.Context) (*overlay.Ad, error) {
	if p.url == "" {
		return houseAd(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, &overlay.ReasonError{Reason: ReasonNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &overlay.ReasonError{Reason: classify(err), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, &overlay.ReasonError{Reason: ReasonNoFill, Err: errors.New("no ad available")}
	case resp.StatusCode != http.StatusOK:
		return nil, &overlay.ReasonError{
			Reason: ReasonNetwork,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var ad overlay.Ad
	if err := json.NewDecoder(resp.Body).Decode(&ad); err != nil {
		return nil, &overlay.ReasonError{Reason: ReasonMalformed, Err: err}
	}
	if ad.ID == "" || ad.Title == "" {
		return nil, &overlay.ReasonError{
			Reason: ReasonMalformed,
			Err:    errors.New("ad missing id or title"),
		}
	}

	p.logger.Debug("promo loaded", zap.String("ad_id", ad.ID))
	return &ad, nil
}

// classify maps a transport error to a reason code.
func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetwork
}

// houseAd is served when no promo endpoint is configured.
func houseAd() *overlay.Ad {
	return &overlay.Ad{
		ID:        "house-premium",
		Title:     "Go Premium",
		Body:      "Uninterrupted listening with no promo cards. Activate a premium token to hide these for good.",
		ActionURL: "https://vinyl.example.com/premium",
	}
}
