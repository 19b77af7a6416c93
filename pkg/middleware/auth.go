package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"authservice/pkg/auth"
)

// Routes reachable without a credential.
var publicRoutes = map[string]string{
	"/api/auth/register": http.MethodPost,
	"/api/auth/login":    http.MethodPost,
}

// Authenticate guards every route not listed in publicRoutes. Auth
// failure kinds map to their client-facing messages; anything else
// stays an opaque internal error.
func Authenticate(authenticator *auth.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := mux.CurrentRoute(r)
			template, err := route.GetPathTemplate()
			if err != nil {
				writeErrorResp(w, http.StatusNotFound, "Route not found")
				return
			}

			if method, ok := publicRoutes[template]; ok && method == r.Method {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticator.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrNoCredential):
					writeErrorResp(w, http.StatusUnauthorized, "Access denied. No token provided.")
				case errors.Is(err, auth.ErrBadCredential):
					writeErrorResp(w, http.StatusUnauthorized, "Invalid token")
				case errors.Is(err, auth.ErrCredentialExpired):
					writeErrorResp(w, http.StatusUnauthorized, "Token expired")
				case errors.Is(err, auth.ErrSessionRevoked):
					writeErrorResp(w, http.StatusUnauthorized, "Invalid or expired session.")
				default:
					logger.Error("authentication failed", "error", err)
					writeErrorResp(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), identity)))
		})
	}
}

func writeErrorResp(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	}); err != nil {
		return
	}
}
