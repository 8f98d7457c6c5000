package entitle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultTokenFileName is the file the premium token is stored under.
const DefaultTokenFileName = "premium_token.json"

type storedToken struct {
	Token       string    `json:"token"`
	ActivatedAt time.Time `json:"activated_at"`
}

// TokenStorage persists the premium token on disk, readable by the
// owner only.
type TokenStorage struct {
	path string
}

// NewTokenStorage stores the token at path, or under the user config
// directory (~/.config/vinyl) when path is empty.
func NewTokenStorage(path string) (*TokenStorage, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("finding config directory: %w", err)
		}
		path = filepath.Join(configDir, "vinyl", DefaultTokenFileName)
	}
	return &TokenStorage{path: path}, nil
}

// Save writes the token with its activation time.
func (s *TokenStorage) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(storedToken{Token: token, ActivatedAt: time.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Load returns the stored token, or "" when none has been saved.
func (s *TokenStorage) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}
	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return "", fmt.Errorf("parsing token file: %w", err)
	}
	return stored.Token, nil
}

// Delete removes the stored token. Removing an absent token is not an
// error.
func (s *TokenStorage) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting token file: %w", err)
	}
	return nil
}

// Exists reports whether a token file is present.
func (s *TokenStorage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the token file location.
func (s *TokenStorage) Path() string {
	return s.path
}
