package mongo

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	connectAttempts = 5
	connectDelay    = 5 * time.Second
	connectTimeout  = 10 * time.Second
)

// LoadDB connects to the session database with the same bounded
// retry policy as the MySQL bootstrap.
func LoadDB(uri, dbName string) *mongo.Database {
	var lastErr error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err == nil {
			err = client.Ping(ctx, nil)
		}
		cancel()

		if err == nil {
			return client.Database(dbName)
		}

		lastErr = err
		if attempt < connectAttempts {
			log.Printf("MongoDB connection failed (attempt %d/%d), retrying in %s: %v",
				attempt, connectAttempts, connectDelay, err)
			time.Sleep(connectDelay)
		}
	}

	log.Fatal("Cannot connect to MongoDB:", lastErr)
	return nil
}
