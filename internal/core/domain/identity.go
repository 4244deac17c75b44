package domain

import "net/http"

// Identity is the verified caller behind a request.
type Identity struct {
	SubjectID string
	Email     string
	Role      string
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// RejectionKind classifies why a request was not authorized.
type RejectionKind string

const (
	RejectUnauthenticated RejectionKind = "unauthenticated"
	RejectForbidden       RejectionKind = "forbidden"
)

// AuthResult is the outcome of the authorization gate: exactly one of
// Authorized or Rejected.
type AuthResult interface {
	authResult()
}

// Authorized carries the resolved caller identity.
type Authorized struct {
	Identity Identity
}

// Rejected carries the reason and the HTTP status to answer with.
type Rejected struct {
	Kind       RejectionKind
	Reason     string
	StatusCode int
}

func (Authorized) authResult() {}
func (Rejected) authResult()   {}

// Unauthenticated builds a 401 rejection.
func Unauthenticated(reason string) Rejected {
	return Rejected{Kind: RejectUnauthenticated, Reason: reason, StatusCode: http.StatusUnauthorized}
}

// Forbidden builds a 403 rejection.
func Forbidden(reason string) Rejected {
	return Rejected{Kind: RejectForbidden, Reason: reason, StatusCode: http.StatusForbidden}
}
