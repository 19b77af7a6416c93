package claims

import jwt "github.com/dgrijalva/jwt-go"

// Claims is the payload embedded in every issued bearer token.
// The absolute expiry lives in StandardClaims.ExpiresAt.
type Claims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}
