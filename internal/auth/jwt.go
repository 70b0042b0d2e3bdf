// Package auth mints and verifies the operator bearer tokens that guard the
// dashboard's write endpoints.
//
// Tokens are HS256 JWTs signed with AUTH_SIGNING_KEY, carrying the operator
// name as subject. Issuer, audience and expiry are all enforced. Expired
// tokens are replaced by minting a new one with cmd/token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiry applies when a token is minted without a TTL.
const DefaultTokenExpiry = time.Hour

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrMissingSubject     = errors.New("subject is required")
)

// Claims are the registered claims plus a space separated scope list.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// JWTService signs and verifies operator tokens with one shared key.
type JWTService struct {
	key    []byte
	cfg    JWTConfig
	parser *jwt.Parser
}

func NewJWTService(cfg JWTConfig) *JWTService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTService{
		key: []byte(cfg.SigningKey),
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(cfg.Now),
		),
	}
}

// GenerateAccessToken signs a token for subject that expires after ttl, or
// after DefaultTokenExpiry when ttl is not positive.
func (s *JWTService) GenerateAccessToken(subject, scope string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}

	issued := s.cfg.Now()
	expires := issued.Add(ttl)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Scope: scope,
	}).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expires, nil
}

// ValidateAccessToken verifies token and returns its subject.
func (s *JWTService) ValidateAccessToken(token string) (string, error) {
	claims, err := s.ParseClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ParseClaims verifies token and returns its claims. Expiry is reported as
// ErrAccessTokenExpired; every other failure wraps ErrInvalidAccessToken.
func (s *JWTService) ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: no subject", ErrInvalidAccessToken)
	}
	return claims, nil
}
