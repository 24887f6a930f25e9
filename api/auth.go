package api

import (
	"net/http"

	"github.com/havelihousing/backoffice/user"
)

// register handles POST /api/auth/register and signs the new user in.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := h.check(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	u, err := h.engine.RegisterUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.fail(w, r, err, "registration")
		return
	}
	h.startSession(w, r, u)
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.check(req) != "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := h.engine.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, "login")
		return
	}
	h.startSession(w, r, u)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *user.User) {
	token, _, err := h.sessions.Issue(u.ID)
	if err != nil {
		h.fail(w, r, err, "starting the session")
		return
	}
	http.SetCookie(w, h.sessions.Cookie(token))
	writeJSON(w, http.StatusOK, ok(envelope{"user": viewUser(u)}))
}

// logout handles POST /api/auth/logout. It revokes the presented session,
// if any, and always clears the cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if who := h.authenticate(r); who != nil {
		if err := h.sessions.Revoke(r.Context(), who.claims); err != nil {
			h.fail(w, r, err, "logout")
			return
		}
	}
	http.SetCookie(w, h.sessions.ClearCookie())
	writeJSON(w, http.StatusOK, ok(envelope{"message": "Logged out successfully"}))
}

// me handles GET /api/auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	who := identityFromContext(r.Context())
	u, err := h.engine.GetUser(r.Context(), who.userID)
	if err != nil {
		h.fail(w, r, err, "fetching user data")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"user": viewUser(u)}))
}
