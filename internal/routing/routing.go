package routing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"authservice/pkg/handlers"
	"authservice/pkg/session"
	"authservice/pkg/token"
	"authservice/pkg/user"
)

func InitRoutes(api *mux.Router, db *sql.DB, sessionRepo session.Repository, codec *token.Codec, tokenTTL time.Duration, logger *slog.Logger) {

	userService := user.NewService(user.NewMySQLRepo(db))
	handler := handlers.NewHandler(userService, sessionRepo, codec, tokenTTL, logger)

	/* public routes */
	api.HandleFunc("/register", handler.Register).Methods("POST").Name("register")
	api.HandleFunc("/login", handler.Login).Methods("POST").Name("login")

	/* protected routes */
	api.HandleFunc("/dashboard", handler.Dashboard).Methods("GET")
	api.HandleFunc("/logout", handler.Logout).Methods("POST")
	api.HandleFunc("/logout-all", handler.LogoutAll).Methods("POST")
	api.HandleFunc("/sessions", handler.ListSessions).Methods("GET")
}

// ServeFallback answers anything outside the API surface with the
// JSON 404 envelope.
func ServeFallback(r *mux.Router) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "Route not found",
		}); err != nil {
			return
		}
	})
}

func StartServer(r *mux.Router, port string) {
	fmt.Println("\n\033[32m", "The server is running on http://localhost:"+port, "\033[0m")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal("Server failed:", err)
	}
}
