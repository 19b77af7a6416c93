package routing_test

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"authservice/internal/routing"
	"authservice/pkg/auth"
	"authservice/pkg/middleware"
	"authservice/pkg/session"
	"authservice/pkg/token"
)

// memSessionRepo is an in-memory stand-in for the Mongo store, enough
// to exercise the full HTTP surface without a database.
type memSessionRepo struct {
	mu       sync.Mutex
	byToken  map[string]*session.Session
	sequence int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byToken: make(map[string]*session.Session)}
}

func (r *memSessionRepo) Create(userID, tok, userAgent, ipAddress string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byToken[tok]; exists {
		return nil, session.ErrDuplicateToken
	}

	r.sequence++
	now := time.Now().UTC().Add(time.Duration(r.sequence) * time.Microsecond)
	sess := &session.Session{
		ID:           "sess-" + tok[len(tok)-8:],
		UserID:       userID,
		Token:        tok,
		IsValid:      true,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		LastActivity: now,
		CreatedAt:    now,
	}
	r.byToken[tok] = sess
	return copySession(sess), nil
}

func (r *memSessionRepo) FindActiveByToken(tok, userID string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byToken[tok]
	if !ok || !sess.IsValid || sess.UserID != userID {
		return nil, session.ErrNotFound
	}
	return copySession(sess), nil
}

func (r *memSessionRepo) Touch(s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byToken[s.Token]
	if !ok {
		return session.ErrNotFound
	}
	r.sequence++
	sess.LastActivity = time.Now().UTC().Add(time.Duration(r.sequence) * time.Microsecond)
	*s = *sess
	return nil
}

func (r *memSessionRepo) Invalidate(tok string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byToken[tok]
	if !ok || !sess.IsValid {
		return nil, session.ErrNotFound
	}
	sess.IsValid = false
	sess.LastActivity = time.Now().UTC()
	return copySession(sess), nil
}

func (r *memSessionRepo) InvalidateAllForUser(userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, sess := range r.byToken {
		if sess.UserID == userID && sess.IsValid {
			sess.IsValid = false
			sess.LastActivity = time.Now().UTC()
			count++
		}
	}
	return count, nil
}

func (r *memSessionRepo) ListActiveForUser(userID string) ([]*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []*session.Session
	for _, sess := range r.byToken {
		if sess.UserID == userID && sess.IsValid {
			sessions = append(sessions, copySession(sess))
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions, nil
}

func (r *memSessionRepo) DeleteIdle(olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for tok, sess := range r.byToken {
		if sess.LastActivity.Before(olderThan) {
			delete(r.byToken, tok)
			count++
		}
	}
	return count, nil
}

func copySession(s *session.Session) *session.Session {
	clone := *s
	return &clone
}

func setupRouter(t *testing.T) *mux.Router {
	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		last_login TIMESTAMP NULL
	);`
	_, err = db.Exec(schema)
	assert.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	sessionRepo := newMemSessionRepo()
	codec := token.NewCodec("test-secret")
	authenticator := auth.NewAuthenticator(codec, sessionRepo)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/auth").Subrouter()
	api.Use(middleware.Panic(logger, false))
	api.Use(middleware.Authenticate(authenticator, logger))

	routing.InitRoutes(api, db, sessionRepo, codec, time.Hour, logger)
	routing.ServeFallback(r)

	return r
}

type envelope struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func do(t *testing.T, router *mux.Router, method, target, body, bearer string) (int, envelope, string) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var env envelope
	raw := rr.Body.String()
	assert.NoError(t, json.Unmarshal([]byte(raw), &env))
	return rr.Code, env, raw
}

func TestRegisterDashboardLogoutFlow(t *testing.T) {
	router := setupRouter(t)

	status, env, _ := do(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"a@x.com","password":"p1"}`, "")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "success", env.Status)

	tokenT1, _ := env.Data["token"].(string)
	assert.NotEmpty(t, tokenT1)

	status, env, raw := do(t, router, http.MethodGet, "/api/auth/dashboard", "", tokenT1)
	assert.Equal(t, http.StatusOK, status)
	profile, _ := env.Data["user"].(map[string]any)
	assert.Equal(t, "a@x.com", profile["email"])
	assert.NotContains(t, raw, "password")

	status, env, _ = do(t, router, http.MethodPost, "/api/auth/logout", "", tokenT1)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	status, env, _ = do(t, router, http.MethodGet, "/api/auth/dashboard", "", tokenT1)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired session.", env.Message)
}

func TestMultiDeviceLogoutAllFlow(t *testing.T) {
	router := setupRouter(t)

	status, _, _ := do(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"a@x.com","password":"p1"}`, "")
	assert.Equal(t, http.StatusCreated, status)

	login := func() string {
		status, env, _ := do(t, router, http.MethodPost, "/api/auth/login",
			`{"email":"a@x.com","password":"p1"}`, "")
		assert.Equal(t, http.StatusOK, status)
		tok, _ := env.Data["token"].(string)
		assert.NotEmpty(t, tok)
		return tok
	}

	tokenT1 := login()
	tokenT2 := login()
	assert.NotEqual(t, tokenT1, tokenT2)

	status, env, _ := do(t, router, http.MethodGet, "/api/auth/sessions", "", tokenT1)
	assert.Equal(t, http.StatusOK, status)
	sessions, _ := env.Data["sessions"].([]any)
	assert.Len(t, sessions, 3) // register + both logins

	// The caller's session was touched during authentication, so it
	// leads the most-recently-active ordering.
	first, _ := sessions[0].(map[string]any)
	assert.Equal(t, env.Data["currentSessionId"], first["id"])

	status, env, _ = do(t, router, http.MethodPost, "/api/auth/logout-all", "", tokenT1)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), env.Data["sessionsTerminated"])

	status, env, _ = do(t, router, http.MethodGet, "/api/auth/sessions", "", tokenT2)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired session.", env.Message)

	// Repeating logout-all after re-login affects only the new session.
	tokenT3 := login()
	status, env, _ = do(t, router, http.MethodPost, "/api/auth/logout-all", "", tokenT3)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), env.Data["sessionsTerminated"])
}

func TestForgedUserTokenIsRejectedAsSession(t *testing.T) {
	router := setupRouter(t)

	// Valid signature, but no session was ever created for this user.
	codec := token.NewCodec("test-secret")
	forged, err := codec.Issue("no-such-user", time.Hour)
	assert.NoError(t, err)

	status, env, _ := do(t, router, http.MethodGet, "/api/auth/dashboard", "", forged)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired session.", env.Message)
}

func TestDuplicateRegistration(t *testing.T) {
	router := setupRouter(t)

	status, _, _ := do(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"a@x.com","password":"p1"}`, "")
	assert.Equal(t, http.StatusCreated, status)

	status, env, _ := do(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"a@x.com","password":"p1"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", env.Message)
}

func TestUnmatchedRoute(t *testing.T) {
	router := setupRouter(t)

	status, env, _ := do(t, router, http.MethodGet, "/api/auth/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Route not found", env.Message)
}
