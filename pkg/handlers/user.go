package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"authservice/pkg/auth"
	"authservice/pkg/session"
	"authservice/pkg/user"
)

type RegisterForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenIssuer interface {
	Issue(userID string, ttl time.Duration) (string, error)
}

type Handler struct {
	Users    user.ServiceInterface
	Sessions session.Repository
	Codec    TokenIssuer
	TokenTTL time.Duration
	Logger   *slog.Logger
}

func NewHandler(users user.ServiceInterface, sessions session.Repository, codec TokenIssuer, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		Users:    users,
		Sessions: sessions,
		Codec:    codec,
		TokenTTL: tokenTTL,
		Logger:   logger,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	newUser, err := h.Users.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrUserExists) {
			writeErr(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.Logger.Error("register", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	tokenString, sess, ok := h.issueSession(w, r, newUser.ID)
	if !ok {
		return
	}

	if ok := writeData(w, h.Logger, http.StatusCreated, map[string]any{
		"token":   tokenString,
		"user":    newUser,
		"session": sess,
	}); ok {
		h.Logger.Info("register", "user", newUser.ID)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	if req.Email == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, "Please provide email and password")
		return
	}

	loggedIn, err := h.Users.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeErr(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.Logger.Error("login", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	tokenString, sess, ok := h.issueSession(w, r, loggedIn.ID)
	if !ok {
		return
	}

	if ok := writeData(w, h.Logger, http.StatusOK, map[string]any{
		"token":   tokenString,
		"user":    loggedIn,
		"session": sess,
	}); ok {
		h.Logger.Info("login", "user", loggedIn.ID)
	}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	profile, err := h.Users.GetByID(identity.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "User not found")
			return
		}
		h.Logger.Error("dashboard", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	activeSessions, err := h.Sessions.ListActiveForUser(identity.UserID)
	if err != nil {
		h.Logger.Error("dashboard sessions", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeData(w, h.Logger, http.StatusOK, map[string]any{
		"user":           profile,
		"currentSession": identity.Session,
		"activeSessions": activeSessions,
	})
}

// issueSession signs a token for userID and persists the session
// record with the caller's client metadata.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, userID string) (string, *session.Session, bool) {
	tokenString, err := h.Codec.Issue(userID, h.TokenTTL)
	if err != nil {
		h.Logger.Error("token signing", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return "", nil, false
	}

	userAgent, ipAddress := clientInfo(r)
	sess, err := h.Sessions.Create(userID, tokenString, userAgent, ipAddress)
	if err != nil {
		h.Logger.Error("session create", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return "", nil, false
	}

	return tokenString, sess, true
}

func clientInfo(r *http.Request) (userAgent, ipAddress string) {
	userAgent = r.UserAgent()
	if userAgent == "" {
		userAgent = "unknown"
	}

	ipAddress = r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ipAddress = host
	}
	return userAgent, ipAddress
}

func getIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return nil, false
	}
	return identity, true
}

func DecodeJSONBody(w http.ResponseWriter, r *http.Request, req any) bool {
	if r.Header.Get("Content-Type") != "application/json" {
		writeErr(w, http.StatusBadRequest, "invalid Content-Type")
		return false
	}

	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return false
	}

	return true
}

func writeData(w http.ResponseWriter, logger *slog.Logger, status int, data any) bool {
	resp, err := json.Marshal(map[string]any{
		"status": "success",
		"data":   data,
	})
	if err != nil {
		logger.Error("failed to serialize JSON response", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(resp); err != nil {
		logger.Error("failed to write response to client", "error", err)
		return false
	}
	return true
}

func writeErr(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	}); err != nil {
		return
	}
}
