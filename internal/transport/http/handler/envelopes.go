package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	"github.com/marque-api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
}

// AdminEnvelope describes the signed-in operator. The session token never leaves the cookie.
type AdminEnvelope struct {
	Admin     *domain.Admin `json:"admin"`
	Market    domain.Market `json:"market"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// TokenStatusEnvelope describes a bearer token that verified and whose user is still active.
type TokenStatusEnvelope struct {
	Valid          bool          `json:"valid"`
	UserID         int64         `json:"user_id"`
	PhoneNumber    string        `json:"phone_number"`
	FormattedPhone string        `json:"formatted_phone"`
	Market         domain.Market `json:"market"`
	Currency       string        `json:"currency"`
	ExpiresAt      time.Time     `json:"expires_at"`
}

// MarketsEnvelope wraps the supported-markets listing.
type MarketsEnvelope struct {
	Markets []domain.MarketProfile `json:"markets"`
	Default domain.Market          `json:"default"`
}

// StoresEnvelope wraps per-market pool statistics.
type StoresEnvelope struct {
	Stores []database.ConnectionStats `json:"stores"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
