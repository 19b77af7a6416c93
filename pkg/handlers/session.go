package handlers

import (
	"errors"
	"net/http"

	"authservice/pkg/session"
)

// Logout invalidates exactly the session behind the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	sess, err := h.Sessions.Invalidate(identity.Token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Session not found")
			return
		}
		h.Logger.Error("logout", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if ok := writeData(w, h.Logger, http.StatusOK, map[string]any{
		"session": sess,
	}); ok {
		h.Logger.Info("logout", "user", identity.UserID, "session", sess.ID)
	}
}

// LogoutAll invalidates every valid session of the user, the current
// one included, and reports how many were terminated.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	count, err := h.Sessions.InvalidateAllForUser(identity.UserID)
	if err != nil {
		h.Logger.Error("logout all", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if ok := writeData(w, h.Logger, http.StatusOK, map[string]any{
		"sessionsTerminated": count,
	}); ok {
		h.Logger.Info("logout all", "user", identity.UserID, "count", count)
	}
}

// ListSessions returns the user's valid sessions, most recently
// active first, with the id of the session making the request.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	sessions, err := h.Sessions.ListActiveForUser(identity.UserID)
	if err != nil {
		h.Logger.Error("list sessions", "error", err)
		writeErr(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeData(w, h.Logger, http.StatusOK, map[string]any{
		"sessions":         sessions,
		"currentSessionId": identity.Session.ID,
	})
}
