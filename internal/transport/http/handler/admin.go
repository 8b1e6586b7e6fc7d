package handler

import (
	"fmt"
	"net/http"

	"github.com/marque-api/internal/application/session"
	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	"github.com/marque-api/internal/transport/http/middleware"
)

// StoreStats reports connection pool usage per market.
type StoreStats interface {
	Stats() []database.ConnectionStats
}

// AdminHandler serves operator login and back-office endpoints.
type AdminHandler struct {
	svc    session.Service
	stores StoreStats
	cookie config.SessionConfig
}

func NewAdminHandler(svc session.Service, stores StoreStats, cookie config.SessionConfig) *AdminHandler {
	return &AdminHandler{svc: svc, stores: stores, cookie: cookie}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    res.Session.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, AdminEnvelope{
		Admin:     res.Admin,
		Market:    res.Session.Market,
		ExpiresAt: res.Session.ExpiresAt,
	})
}

// Logout always clears the cookie, whether or not the session still existed.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookie.CookieName); err == nil {
		if err := h.svc.Logout(r.Context(), c.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, AdminEnvelope{
		Admin:     p.Admin,
		Market:    p.Session.Market,
		ExpiresAt: p.Session.ExpiresAt,
	})
}

func (h *AdminHandler) Stores(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StoresEnvelope{Stores: h.stores.Stats()})
}
