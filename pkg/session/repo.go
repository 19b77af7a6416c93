package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("sessions"),
	}
}

// EnsureIndexes creates the unique token index and the lookup index
// used by every per-user query. Called once at startup.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_valid", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

func (r *MongoRepo) Create(userID, token, userAgent, ipAddress string) (*Session, error) {
	ctx := context.TODO()
	now := time.Now().UTC()

	sess := &Session{
		UserID:       userID,
		Token:        token,
		IsValid:      true,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		LastActivity: now,
		CreatedAt:    now,
	}

	result, err := r.collection.InsertOne(ctx, sess)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateToken
		}
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		sess.MongoID = oid
		sess.ID = oid.Hex()
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return sess, nil
}

// FindActiveByToken matches token, owning user and validity at once,
// so a token whose embedded user ID was swapped cannot borrow another
// user's session record.
func (r *MongoRepo) FindActiveByToken(token, userID string) (*Session, error) {
	ctx := context.TODO()
	var sess Session

	err := r.collection.FindOne(ctx, bson.M{
		"token":    token,
		"user_id":  userID,
		"is_valid": true,
	}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	sess.ID = sess.MongoID.Hex()
	return &sess, nil
}

// Touch refreshes the activity timestamp and reloads the record in
// place.
func (r *MongoRepo) Touch(s *Session) error {
	ctx := context.TODO()

	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": s.MongoID},
		bson.M{"$set": bson.M{"last_activity": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	s.ID = s.MongoID.Hex()
	return nil
}

// Invalidate flips the validity flag of the single session holding
// this token. The is_valid filter makes the update conditional, so
// concurrent logouts cannot re-invalidate or resurrect a session.
func (r *MongoRepo) Invalidate(token string) (*Session, error) {
	ctx := context.TODO()

	var sess Session
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"token": token, "is_valid": true},
		bson.M{"$set": bson.M{"is_valid": false, "last_activity": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate session: %w", err)
	}

	sess.ID = sess.MongoID.Hex()
	return &sess, nil
}

// InvalidateAllForUser flips every currently-valid session of the
// user and reports how many were affected. Idempotent: a second call
// matches nothing and returns 0.
func (r *MongoRepo) InvalidateAllForUser(userID string) (int64, error) {
	ctx := context.TODO()

	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"user_id": userID, "is_valid": true},
		bson.M{"$set": bson.M{"is_valid": false, "last_activity": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate user sessions: %w", err)
	}

	return result.ModifiedCount, nil
}

// ListActiveForUser returns valid sessions most-recently-active first.
func (r *MongoRepo) ListActiveForUser(userID string) ([]*Session, error) {
	ctx := context.TODO()

	cursor, err := r.collection.Find(
		ctx,
		bson.M{"user_id": userID, "is_valid": true},
		options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*Session
	for cursor.Next(ctx) {
		var sess Session
		if cursor.Decode(&sess) == nil {
			sess.ID = sess.MongoID.Hex()
			sessions = append(sessions, &sess)
		}
	}

	return sessions, nil
}

// DeleteIdle removes every session, valid or not, whose last activity
// predates olderThan. Used by the background sweep only.
func (r *MongoRepo) DeleteIdle(olderThan time.Time) (int64, error) {
	ctx := context.TODO()

	result, err := r.collection.DeleteMany(ctx, bson.M{
		"last_activity": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}

	return result.DeletedCount, nil
}
