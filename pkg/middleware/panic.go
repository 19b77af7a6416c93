package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Panic converts an uncaught panic into a 500. The stack trace goes
// to the log always and into the response body only in development
// mode.
func Panic(logger *slog.Logger, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := string(debug.Stack())
					logger.Error("panic recovered", "error", err, "stack", stack)

					body := map[string]string{
						"status":  "error",
						"message": "Internal server error",
					}
					if devMode {
						body["stack"] = stack
					}

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
						return
					}
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
