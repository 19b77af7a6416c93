package main

import (
	"context"
	"log"

	"authservice/internal/config"
	"authservice/internal/logger"
	"authservice/internal/mongo"
	"authservice/internal/mysql"
	"authservice/internal/routing"
	"authservice/pkg/auth"
	"authservice/pkg/middleware"
	"authservice/pkg/session"
	"authservice/pkg/token"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load() // load env var from .env

	db := mysql.LoadDB(cfg.MySQLDSN)
	defer db.Close()

	mongoDB := mongo.LoadDB(cfg.MongoURI, cfg.MongoDBName)

	logger := logger.Load(cfg.DevMode)

	sessionRepo := session.NewMongoRepo(mongoDB)
	if err := sessionRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("Cannot create session indexes:", err)
	}

	codec := token.NewCodec(cfg.JWTSecret)
	authenticator := auth.NewAuthenticator(codec, sessionRepo)

	sweeper := session.NewSweeper(sessionRepo, cfg.SessionIdleTTL, cfg.SweepInterval, logger)
	go sweeper.Run(context.Background())

	r := mux.NewRouter()
	api := r.PathPrefix("/api/auth").Subrouter()
	api.Use(middleware.Panic(logger, cfg.DevMode))
	api.Use(middleware.Authenticate(authenticator, logger))

	routing.InitRoutes(api, db, sessionRepo, codec, cfg.TokenTTL, logger)
	routing.ServeFallback(r)
	routing.StartServer(r, cfg.Port)
}
