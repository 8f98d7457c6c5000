package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the CLI and the TUI.
var (
	ErrLibraryEmpty   = errors.New("library is empty")
	ErrTrackNotFound  = errors.New("track not found")
	ErrAlbumNotFound  = errors.New("album not found")
	ErrQueueEmpty     = errors.New("queue is empty")
	ErrNothingPlaying = errors.New("nothing playing")
	ErrUpdateRequired = errors.New("update required")
	ErrInvalidToken   = errors.New("invalid premium token")
	ErrTokenExpired   = errors.New("premium token expired")
	ErrNetworkError   = errors.New("network error")
	ErrTimeout        = errors.New("request timeout")
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// VinylError pairs an error with a hint about what to do next.
type VinylError struct {
	Err        error
	Suggestion string
}

func (e *VinylError) Error() string {
	return e.Err.Error()
}

func (e *VinylError) Unwrap() error {
	return e.Err
}

// WithSuggestion attaches a hint to err. Format prints it under the
// error message.
func WithSuggestion(err error, suggestion string) error {
	return &VinylError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a next step the user can take for err, or "" when
// there is nothing useful to say.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var vinylErr *VinylError
	if errors.As(err, &vinylErr) && vinylErr.Suggestion != "" {
		return vinylErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Library errors
	if errors.Is(err, ErrLibraryEmpty) || strings.Contains(errStr, "library is empty") {
		return "Run 'vinyl scan' to index your music directory"
	}

	if errors.Is(err, ErrTrackNotFound) || errors.Is(err, ErrAlbumNotFound) ||
		strings.Contains(errStr, "not found") {
		return "Run 'vinyl scan' to refresh the library, then 'vinyl albums' to browse it"
	}

	if errors.Is(err, ErrNothingPlaying) || strings.Contains(errStr, "nothing playing") {
		return "Start playback with 'vinyl play <album>'"
	}

	// Version gate
	if errors.Is(err, ErrUpdateRequired) || strings.Contains(errStr, "update required") {
		return "This version is no longer supported. Install the latest release to keep listening"
	}

	// Premium token errors
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) ||
		strings.Contains(errStr, "token") {
		return "Run 'vinyl premium activate <token>' with a valid premium token"
	}

	// Network errors
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || strings.Contains(errStr, "config") {
		return "Run 'vinyl play' to walk through first-time setup"
	}

	return ""
}

// Format renders err for the terminal, with a hint line when one applies.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := "Error: " + err.Error()
	if s := GetSuggestion(err); s != "" {
		msg += "\nHint: " + s
	}
	return msg
}

// PartialResult represents a result that may have partial failures, like a
// library scan that indexed most tracks but failed on a few files.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors reports whether any errors were collected.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError records err. Nil errors are ignored.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary renders the collected errors, one per line.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:\n", len(p.Errors))
	for _, err := range p.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
