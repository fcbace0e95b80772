package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tweetline/internal/identity"
	"tweetline/internal/service"
)

const defaultCookieName = "token"

func (h *Handlers) cookieName() string {
	if h.Cfg.Cookie.Name == "" {
		return defaultCookieName
	}
	return h.Cfg.Cookie.Name
}

func (h *Handlers) setCredential(w http.ResponseWriter, token string) {
	duration := h.Cfg.TokenDuration
	if duration <= 0 {
		duration = time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		MaxAge:   int(duration.Seconds()),
		HttpOnly: true,
		Secure:   h.Cfg.Cookie.Secure,
		SameSite: h.Cfg.Cookie.SameSite,
	})
}

func (h *Handlers) clearCredential(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.Cookie.Secure,
		SameSite: h.Cfg.Cookie.SameSite,
	})
}

// principal returns the caller attached by the auth middleware.
func principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := identity.PrincipalFrom(r.Context())
	if !ok {
		WriteError(w, "Login to continue", http.StatusUnauthorized)
	}
	return userID, ok
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	avatar, err := h.optionalImage(req.Avatar)
	if err != nil {
		h.fail(w, err)
		return
	}

	user, token, err := h.AuthService.Signup(r.Context(), service.SignupRequest{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   avatar,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	h.setCredential(w, token)
	WriteSuccess(w, "User created successfully", user, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.setCredential(w, token)
	WriteSuccess(w, "User logged in successfully", user, http.StatusOK)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCredential(w)
	WriteSuccess(w, "User logged out successfully", nil, http.StatusOK)
}

func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	if err := h.AuthService.UpdatePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "Password updated successfully", nil, http.StatusOK)
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	email, err := h.AuthService.ForgotPassword(r.Context(), req.Email, baseURL(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "Email sent successfully to "+email, nil, http.StatusOK)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	var req ResetPasswordRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), token, req.Password); err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "Password reset successfully", nil, http.StatusOK)
}
