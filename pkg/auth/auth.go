package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"authservice/pkg/claims"
	"authservice/pkg/session"
	"authservice/pkg/token"
)

// Auth-failure kinds. These are safe to expose to the client; any
// other error from Authenticate is an internal failure and must stay
// opaque.
var (
	ErrNoCredential      = errors.New("no token provided")
	ErrBadCredential     = errors.New("invalid token")
	ErrCredentialExpired = errors.New("token expired")
	ErrSessionRevoked    = errors.New("invalid or expired session")
)

// Identity is what a request carries downstream once admitted.
type Identity struct {
	UserID  string
	Token   string
	Session *session.Session
}

type contextKey string

const identityContextKey contextKey = "identity"

func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || id == nil || id.UserID == "" {
		return nil, false
	}
	return id, true
}

type Verifier interface {
	Verify(tokenString string) (*claims.Claims, error)
}

// Authenticator is the gate in front of every protected route. A
// request passes only if its bearer token verifies and a matching
// valid session record still exists.
type Authenticator struct {
	Codec    Verifier
	Sessions session.Repository
}

func NewAuthenticator(codec Verifier, sessions session.Repository) *Authenticator {
	return &Authenticator{Codec: codec, Sessions: sessions}
}

// Authenticate walks extract -> verify -> session lookup -> touch and
// returns the admitted identity or the failure kind of the step that
// rejected it.
func (a *Authenticator) Authenticate(authHeader string) (*Identity, error) {
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, ErrNoCredential
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	decoded, err := a.Codec.Verify(raw)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, ErrCredentialExpired
		case errors.Is(err, token.ErrInvalidSignature):
			return nil, ErrBadCredential
		default:
			return nil, fmt.Errorf("token verification: %w", err)
		}
	}

	sess, err := a.Sessions.FindActiveByToken(raw, decoded.UserID)
	if errors.Is(err, session.ErrNotFound) {
		// Same kind whether the session was revoked or never
		// existed, so the response does not leak which check failed.
		return nil, ErrSessionRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	if err := a.Sessions.Touch(sess); err != nil {
		// The sweep may remove the record between lookup and touch.
		// The session was valid at lookup time, so the request is
		// still admitted.
		if !errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("session touch: %w", err)
		}
	}

	return &Identity{
		UserID:  decoded.UserID,
		Token:   raw,
		Session: sess,
	}, nil
}
