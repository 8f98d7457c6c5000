// Package feedback collects user feedback locally and forwards it to
// the vinyl service when a network is available. Submissions are never
// lost to a flaky connection: every message lands in the library
// database first and unsent rows are retried on the next flush.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marloch/vinyl/internal/library"
)

// Store is the slice of the library store the service needs.
type Store interface {
	SaveFeedback(fb library.Feedback) error
	UnsentFeedback() ([]library.Feedback, error)
	MarkFeedbackSent(id string, at time.Time) error
}

var _ Store = (*library.Store)(nil)

// Service stores feedback and uploads it to the feedback endpoint.
type Service struct {
	store   Store
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewService builds a feedback service. An empty baseURL keeps
// feedback local only.
func NewService(logger *zap.Logger, store Store, baseURL string, timeout time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		store:   store,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Submit stores the message and attempts an immediate upload. The
// returned Feedback is always persisted even when the upload fails.
func (s *Service) Submit(ctx context.Context, message, contact string) (*library.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("feedback message is empty")
	}

	fb := library.Feedback{
		ID:        uuid.NewString(),
		Message:   message,
		Contact:   strings.TrimSpace(contact),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.SaveFeedback(fb); err != nil {
		return nil, fmt.Errorf("storing feedback: %w", err)
	}

	if err := s.upload(ctx, fb); err != nil {
		s.logger.Warn("feedback upload failed, will retry later",
			zap.String("id", fb.ID), zap.Error(err))
		return &fb, nil
	}
	now := time.Now()
	if err := s.store.MarkFeedbackSent(fb.ID, now); err != nil {
		return nil, fmt.Errorf("marking feedback sent: %w", err)
	}
	sent := now.Unix()
	fb.SentAt = &sent
	return &fb, nil
}

// Flush uploads any feedback still waiting on disk. It returns the
// number of messages delivered and the first upload error, if any.
func (s *Service) Flush(ctx context.Context) (int, error) {
	pending, err := s.store.UnsentFeedback()
	if err != nil {
		return 0, fmt.Errorf("listing unsent feedback: %w", err)
	}

	sent := 0
	for _, fb := range pending {
		if err := s.upload(ctx, fb); err != nil {
			return sent, err
		}
		if err := s.store.MarkFeedbackSent(fb.ID, time.Now()); err != nil {
			return sent, fmt.Errorf("marking feedback sent: %w", err)
		}
		sent++
	}
	return sent, nil
}

// Pending returns feedback that has not reached the service yet.
func (s *Service) Pending() ([]library.Feedback, error) {
	return s.store.UnsentFeedback()
}

type feedbackPayload struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Contact   string `json:"contact,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func (s *Service) upload(ctx context.Context, fb library.Feedback) error {
	if s.baseURL == "" {
		return fmt.Errorf("no feedback endpoint configured")
	}

	body, err := json.Marshal(feedbackPayload{
		ID:        fb.ID,
		Message:   fb.Message,
		Contact:   fb.Contact,
		CreatedAt: fb.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding feedback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/feedback", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting feedback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("feedback endpoint returned %s", resp.Status)
	}
	return nil
}
