package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reservo/booking-system/internal/core/domain"
)

const (
	PurposeAccess = "access"
	PurposeVerify = "verify"

	verificationTTL = 48 * time.Hour
)

// tokenClaims is the payload of every token the service signs.
type tokenClaims struct {
	Role    string `json:"role"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens. The secret is
// read-only after construction.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue returns an access token for user.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	return s.sign(user, PurposeAccess, s.ttl)
}

// IssueVerification returns a token that can only be used to verify the
// user's email address.
func (s *TokenService) IssueVerification(user *domain.User) (string, error) {
	return s.sign(user, PurposeVerify, verificationTTL)
}

func (s *TokenService) sign(user *domain.User, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role:    user.Role,
		Email:   user.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify parses raw and returns the identity it encodes. Any failure
// (malformed, bad signature, expired, wrong purpose, unknown role) is
// reported as ErrUnauthenticated.
func (s *TokenService) Verify(raw, purpose string) (domain.Identity, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	if claims.Purpose != purpose {
		return domain.Identity{}, fmt.Errorf("%w: token purpose %q", domain.ErrUnauthenticated, claims.Purpose)
	}
	if claims.Subject == "" || !domain.ValidRole(claims.Role) {
		return domain.Identity{}, fmt.Errorf("%w: incomplete claims", domain.ErrUnauthenticated)
	}

	return domain.Identity{SubjectID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
