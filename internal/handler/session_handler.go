package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/service"
	"go-auth-service/pkg/apierror"
	"go-auth-service/pkg/validate"
)

// CookieConfig carries the deployment's session cookie policy.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

type SessionHandler struct {
	service   *service.AuthService
	validator *validate.Validator
	cookie    CookieConfig
}

func NewSessionHandler(service *service.AuthService, validator *validate.Validator, cookie CookieConfig) *SessionHandler {
	if cookie.Name == "" {
		cookie.Name = "session_id"
	}
	return &SessionHandler{service: service, validator: validator, cookie: cookie}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", http.StatusBadRequest))
		return
	}

	if violations, err := h.validator.Struct(payload); err != nil {
		writeError(w, err)
		return
	} else if len(violations) > 0 {
		writeError(w, apierror.Validation("invalid login request", violations))
		return
	}

	session, profile, err := h.service.SessionLogin(r.Context(), payload.Email, payload.Password, middleware.ClientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID, int(h.cookie.TTL.Seconds()))
	writeSuccess(w, http.StatusOK, map[string]any{"user": profile})
}

// Logout succeeds whether or not a live session was presented. The cookie
// is cleared either way.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionIDFromCookie(r)

	if err := h.service.SessionLogout(r.Context(), sessionID, middleware.ClientIP(r)); err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, "", -1)
	writeSuccess(w, http.StatusOK, map[string]any{})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionIDFromCookie(r)
	if sessionID == "" {
		writeError(w, model.ErrSessionNotFound)
		return
	}

	profile, err := h.service.SessionIdentify(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": profile})
}

func (h *SessionHandler) sessionIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// The session id travels only as an HttpOnly cookie; scripts never see it
// and the client never parses it.
func (h *SessionHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}
