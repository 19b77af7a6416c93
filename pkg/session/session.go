package session

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrDuplicateToken = errors.New("session token already exists")
)

// Session is the server-side record behind an issued bearer token.
// The token itself and the validity flag never appear in JSON
// responses, only the client-facing metadata does.
type Session struct {
	MongoID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ID           string             `bson:"-" json:"id"`
	UserID       string             `bson:"user_id" json:"-"`
	Token        string             `bson:"token" json:"-"`
	IsValid      bool               `bson:"is_valid" json:"-"`
	UserAgent    string             `bson:"user_agent" json:"userAgent"`
	IPAddress    string             `bson:"ip_address" json:"ipAddress"`
	LastActivity time.Time          `bson:"last_activity" json:"lastActivity"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

type Repository interface {
	Create(userID, token, userAgent, ipAddress string) (*Session, error)
	FindActiveByToken(token, userID string) (*Session, error)
	Touch(s *Session) error
	Invalidate(token string) (*Session, error)
	InvalidateAllForUser(userID string) (int64, error)
	ListActiveForUser(userID string) ([]*Session, error)
	DeleteIdle(olderThan time.Time) (int64, error)
}
