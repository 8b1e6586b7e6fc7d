package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

var kindStatus = map[string]int{
	"validation_error":        http.StatusBadRequest,
	"market_required":         http.StatusBadRequest,
	"invalid_or_expired_code": http.StatusUnauthorized,
	"invalid_credentials":     http.StatusUnauthorized,
	"unauthenticated":         http.StatusUnauthorized,
	"invalid_token":           http.StatusUnauthorized,
	"expired_token":           http.StatusUnauthorized,
	"forbidden":               http.StatusForbidden,
	"not_found":               http.StatusNotFound,
	"too_many_requests":       http.StatusTooManyRequests,
	"delivery_failed":         http.StatusBadGateway,
	"store_unavailable":       http.StatusServiceUnavailable,
}

// StatusFor maps an error to its HTTP status through its domain kind.
func StatusFor(err error) int {
	if s, ok := kindStatus[domain.ErrorKind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WriteError renders err as a JSON error response. Internal details are only logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.ErrorKind(err)
	status := StatusFor(err)
	log := logger.FromContext(r.Context())

	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error("request failed", zap.String("kind", kind), zap.Error(err))
		msg = "service temporarily unavailable, please retry"
	case status == http.StatusInternalServerError:
		log.Error("request failed", zap.String("kind", kind), zap.Error(err))
		msg = "internal error"
	case kind != "validation_error":
		log.Debug("request rejected", zap.String("kind", kind), zap.Error(err))
		msg = sentinelText(err)
	default:
		log.Debug("request rejected", zap.String("kind", kind), zap.Error(err))
	}
	writeJSONError(w, status, kind, msg)
}

// sentinelText returns the message of the domain sentinel err wraps, hiding wrapping context.
func sentinelText(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if domain.ErrorKind(e) != "internal" && errors.Unwrap(e) == nil {
			return e.Error()
		}
	}
	return err.Error()
}

// writeJSONError writes a JSON-encoded error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: kind, Message: msg})
}
