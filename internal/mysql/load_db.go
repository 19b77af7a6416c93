package mysql

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	connectAttempts = 5
	connectDelay    = 5 * time.Second
)

// LoadDB opens the user database with a bounded connect retry: a
// fixed number of attempts with a fixed delay, then process
// termination. No infinite retry, no degraded mode.
func LoadDB(dsn string) *sql.DB {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal(err)
	}

	for attempt := 1; ; attempt++ {
		if err = db.Ping(); err == nil {
			break
		}
		if attempt == connectAttempts {
			log.Fatal("Cannot connect to DB:", err)
		}
		log.Printf("MySQL connection failed (attempt %d/%d), retrying in %s: %v",
			attempt, connectAttempts, connectDelay, err)
		time.Sleep(connectDelay)
	}

	if err := exec(db); err != nil {
		log.Fatal("Cannot create tables:", err)
	}
	return db
}

func exec(db *sql.DB) error {
	files := []string{
		"./internal/mysql/users.sql",
	}
	for _, file := range files {
		query, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := db.Exec(string(query)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file, err)
		}
	}
	return nil
}
