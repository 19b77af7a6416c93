package token

import (
	"errors"
	"fmt"
	"time"

	"authservice/pkg/claims"
	"authservice/pkg/generator"

	jwt "github.com/dgrijalva/jwt-go"
)

var (
	// ErrInvalidSignature covers tampered tokens, tokens signed with a
	// different key and tokens that are not parseable at all.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired means the signature checked out but the embedded
	// expiry is in the past.
	ErrExpired = errors.New("token expired")
)

// Codec signs and verifies bearer tokens with a process-wide HS256 key.
// The key is injected at construction and never leaves the codec.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue produces a signed token carrying userID and an absolute
// expiry of now + ttl. The random token ID keeps two logins in the
// same second from minting identical credentials.
func (c *Codec) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	tokenID, err := generator.GenerateRandomID(16)
	if err != nil {
		return "", fmt.Errorf("token ID gen error: %w", err)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims.Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Id:        tokenID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token signing: %w", err)
	}
	return signed, nil
}

// Verify checks signature integrity and expiry. It fails with
// ErrExpired for an outdated token and ErrInvalidSignature for
// everything else that makes the token untrustworthy.
func (c *Codec) Verify(tokenString string) (*claims.Claims, error) {
	parsed := &claims.Claims{}

	t, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (interface{}, error) {
		method, ok := t.Method.(*jwt.SigningMethodHMAC)
		if !ok || method.Alg() != "HS256" {
			return nil, errors.New("bad sign method")
		}
		return c.secret, nil
	})
	if err != nil {
		// A broken signature outranks expiry: an attacker must not
		// learn the expiry of a token they tampered with.
		if vErr, ok := err.(*jwt.ValidationError); ok &&
			vErr.Errors&jwt.ValidationErrorSignatureInvalid == 0 &&
			vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpired
		}
		return nil, ErrInvalidSignature
	}

	if !t.Valid || parsed.UserID == "" {
		return nil, ErrInvalidSignature
	}

	return parsed, nil
}
