package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	JWTSecret      string
	TokenTTL       time.Duration
	MySQLDSN       string
	MongoURI       string
	MongoDBName    string
	Port           string
	DevMode        bool
	SessionIdleTTL time.Duration
	SweepInterval  time.Duration
}

// Load reads the environment into a Config. Secrets and connection
// strings have no defaults: a missing one aborts startup.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		JWTSecret:      mustGetenv("JWT_SECRET"),
		MySQLDSN:       mustGetenv("MYSQL_DSN"),
		MongoURI:       mustGetenv("MONGO_URI"),
		MongoDBName:    mustGetenv("MONGO_DB_NAME"),
		Port:           getenv("PORT", "8082"),
		DevMode:        os.Getenv("APP_ENV") == "development",
		TokenTTL:       duration("TOKEN_TTL", time.Hour),
		SessionIdleTTL: duration("SESSION_IDLE_TTL", time.Hour),
		SweepInterval:  duration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
	}

	return cfg
}

func mustGetenv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s is not set in environment", key)
	}
	return value
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("%s is not a valid duration: %v", key, err)
	}
	return parsed
}
