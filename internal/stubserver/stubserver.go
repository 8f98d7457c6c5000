// Package stubserver runs a local stand-in for the vinyl service, used
// while developing against the remote config, promo and feedback
// endpoints without a real backend.
package stubserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/overlay"
	"github.com/marloch/vinyl/internal/remote"
)

// Server serves the app-config, promo and feedback endpoints from
// memory. It rotates through a small fixed ad inventory so repeated
// overlay triggers show different cards.
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger

	mu       sync.Mutex
	cfg      remote.AppConfig
	ads      []overlay.Ad
	next     int
	noFill   bool
	feedback []FeedbackEntry
}

// FeedbackEntry is a feedback submission the stub has received.
type FeedbackEntry struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Contact   string `json:"contact"`
	CreatedAt int64  `json:"created_at"`
}

// New builds a stub server with a default config document and ad
// inventory.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger: logger,
		cfg: remote.AppConfig{
			AdsEnabled: true,
			Overlay: remote.OverlayConfig{
				ListenTargetMS: 720000,
				SongTarget:     6,
				QualifyAfterMS: 30000,
				DismissAfterMS: 10000,
			},
		},
		ads: []overlay.Ad{
			{
				ID:        "stub-premium",
				Title:     "Go Premium",
				Body:      "No promo cards, ever. Your library, uninterrupted.",
				ActionURL: "https://vinyl.example.com/premium",
			},
			{
				ID:        "stub-headphones",
				Title:     "Acme Open-Backs",
				Body:      "Hear the room in your records. 20% off this week.",
				ActionURL: "https://acme.example.com/open-backs",
			},
			{
				ID:        "stub-pressing",
				Title:     "First Pressing Club",
				Body:      "A hand-picked LP on your doorstep every month.",
				ActionURL: "https://pressing.example.com/join",
			},
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/v1/app-config", s.appConfigHandler)
	e.GET("/v1/promo", s.promoHandler)
	e.POST("/v1/feedback", s.feedbackHandler)
	e.GET("/v1/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	s.echo = e
	return s
}

// SetConfig replaces the served app-config document.
func (s *Server) SetConfig(cfg remote.AppConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// SetNoFill makes the promo endpoint answer 204 until turned off again.
func (s *Server) SetNoFill(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noFill = on
}

// Feedback returns the submissions received so far.
func (s *Server) Feedback() []FeedbackEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FeedbackEntry, len(s.feedback))
	copy(out, s.feedback)
	return out
}

// Handler exposes the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.echo.Start(addr)
	}()
	s.logger.Info("stub server listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.echo.Shutdown(context.Background())
	}
}

func (s *Server) appConfigHandler(c echo.Context) error {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	if cfg.PromoURL == "" {
		cfg.PromoURL = "http://" + c.Request().Host + "/v1/promo"
	}
	return c.JSON(http.StatusOK, cfg)
}

func (s *Server) promoHandler(c echo.Context) error {
	s.mu.Lock()
	if s.noFill || len(s.ads) == 0 {
		s.mu.Unlock()
		return c.NoContent(http.StatusNoContent)
	}
	ad := s.ads[s.next%len(s.ads)]
	s.next++
	s.mu.Unlock()

	s.logger.Debug("serving promo", zap.String("ad_id", ad.ID))
	return c.JSON(http.StatusOK, ad)
}

func (s *Server) feedbackHandler(c echo.Context) error {
	var entry FeedbackEntry
	if err := c.Bind(&entry); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if entry.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is required"})
	}

	s.mu.Lock()
	s.feedback = append(s.feedback, entry)
	total := len(s.feedback)
	s.mu.Unlock()

	s.logger.Info("feedback received",
		zap.String("id", entry.ID), zap.Int("total", total))
	return c.JSON(http.StatusCreated, echo.Map{"status": "received"})
}
