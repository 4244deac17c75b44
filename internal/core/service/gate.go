package service

import (
	"strings"

	"github.com/reservo/booking-system/internal/core/domain"
)

// TokenVerifier resolves a raw token into an identity.
type TokenVerifier interface {
	Verify(raw, purpose string) (domain.Identity, error)
}

// Gate is the single authorization decision point. It has no side effects.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authorize resolves the bearer credential in header and checks its role
// against allowed. An empty allowed set admits any authenticated role.
func (g *Gate) Authorize(header string, allowed ...string) domain.AuthResult {
	if header == "" {
		return domain.Unauthenticated("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return domain.Unauthenticated("invalid authorization header")
	}

	identity, err := g.tokens.Verify(strings.TrimSpace(parts[1]), PurposeAccess)
	if err != nil {
		return domain.Unauthenticated("invalid token")
	}

	return g.Permit(identity, allowed...)
}

// Permit checks an already-resolved identity against allowed.
func (g *Gate) Permit(identity domain.Identity, allowed ...string) domain.AuthResult {
	if len(allowed) == 0 {
		return domain.Authorized{Identity: identity}
	}
	for _, role := range allowed {
		if identity.Role == role {
			return domain.Authorized{Identity: identity}
		}
	}
	return domain.Forbidden("forbidden")
}
