// Package entitle verifies and stores the premium entitlement token.
// Premium users never see promo overlays, so verification must work
// offline: tokens are HS256-signed and checked against the issuer secret.
package entitle

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	verrors "github.com/marloch/vinyl/internal/errors"
)

// defaultSecret verifies tokens from the standard issuer. Deployments with
// their own issuer override it via VINYL_PREMIUM_SECRET.
const defaultSecret = "vinyl-premium-2024"

// PlanPremium is the plan claim value that unlocks the premium tier.
const PlanPremium = "premium"

// Claims carried by a premium token.
type Claims struct {
	Plan string `json:"plan"`
	jwt.RegisteredClaims
}

// Verifier checks premium tokens against the issuer secret.
type Verifier struct {
	secret []byte
	logger *zap.Logger
}

// NewVerifier builds a verifier. An empty secret selects the standard
// issuer secret.
func NewVerifier(logger *zap.Logger, secret string) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if secret == "" {
		secret = defaultSecret
	}
	return &Verifier{secret: []byte(secret), logger: logger}
}

// Verify parses and validates a token string, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", verrors.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", verrors.ErrInvalidToken, err)
	}
	if claims.Plan != PlanPremium {
		return nil, fmt.Errorf("%w: plan %q", verrors.ErrInvalidToken, claims.Plan)
	}
	return claims, nil
}

// Manager combines verification with on-disk token storage.
type Manager struct {
	storage  *TokenStorage
	verifier *Verifier
	logger   *zap.Logger
}

// NewManager builds a manager storing the token at path (empty for the
// default location) and verifying with secret (empty for the standard one).
func NewManager(logger *zap.Logger, path, secret string) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	storage, err := NewTokenStorage(path)
	if err != nil {
		return nil, err
	}
	return &Manager{
		storage:  storage,
		verifier: NewVerifier(logger, secret),
		logger:   logger,
	}, nil
}

// Activate verifies the token and stores it for future sessions.
func (m *Manager) Activate(tokenString string) (*Claims, error) {
	claims, err := m.verifier.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if err := m.storage.Save(tokenString); err != nil {
		return nil, err
	}
	m.logger.Info("premium activated",
		zap.String("subject", claims.Subject),
		zap.Time("expires", claims.ExpiresAt.Time))
	return claims, nil
}

// Deactivate removes the stored token.
func (m *Manager) Deactivate() error {
	return m.storage.Delete()
}

// Status returns the stored token's claims. It reports ErrInvalidToken when
// no token is stored.
func (m *Manager) Status() (*Claims, error) {
	tokenString, err := m.storage.Load()
	if err != nil {
		return nil, err
	}
	if tokenString == "" {
		return nil, fmt.Errorf("%w: no token stored", verrors.ErrInvalidToken)
	}
	return m.verifier.Verify(tokenString)
}

// Premium reports whether a valid premium token is stored. Any failure,
// including expiry, counts as free tier.
func (m *Manager) Premium() bool {
	claims, err := m.Status()
	if err != nil {
		if !errors.Is(err, verrors.ErrInvalidToken) {
			m.logger.Info("premium token rejected", zap.Error(err))
		}
		return false
	}
	return claims != nil
}
