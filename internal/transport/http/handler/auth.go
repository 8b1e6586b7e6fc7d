package handler

import (
	"fmt"
	"net/http"

	"github.com/marque-api/internal/application/auth"
	"github.com/marque-api/internal/application/market"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/transport/http/middleware"
)

// AuthHandler serves the end-user phone sign-in flow and profile endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req auth.SendCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}
	res, err := h.svc.SendCode(r.Context(), req, r.Header.Get(market.OverrideHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}
	res, err := h.svc.VerifyCode(r.Context(), req, r.Header.Get(market.OverrideHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	p, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// VerifyToken reports on the caller's bearer token. Reaching the handler means the
// signature and expiry checked out; the profile lookup confirms the user is still active.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	p, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenStatusEnvelope{
		Valid:          true,
		UserID:         p.ID,
		PhoneNumber:    p.PhoneNumber,
		FormattedPhone: p.FormattedPhone,
		Market:         id.Market,
		Currency:       p.Market.Currency,
		ExpiresAt:      id.ExpiresAt,
	})
}

// Logout acknowledges an end-user sign-out. Bearer tokens are stateless, so the
// client discards its token and it lapses at its expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	var req domain.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AuthHandler) Markets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MarketsEnvelope{Markets: h.svc.Markets(), Default: domain.MarketUS})
}
