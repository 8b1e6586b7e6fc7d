package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("validation error")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrInvalidToken         = errors.New("invalid token")
	ErrExpiredToken         = errors.New("expired token")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrMarketRequired       = errors.New("market required")
	ErrTooManyRequests      = errors.New("too many requests")
	ErrDeliveryFailed       = errors.New("delivery failed")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrStoreUnavailable, "store_unavailable"},
	{ErrValidation, "validation_error"},
	{ErrMarketRequired, "market_required"},
	{ErrInvalidOrExpiredCode, "invalid_or_expired_code"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrUnauthenticated, "unauthenticated"},
	{ErrExpiredToken, "expired_token"},
	{ErrInvalidToken, "invalid_token"},
	{ErrForbidden, "forbidden"},
	{ErrNotFound, "not_found"},
	{ErrTooManyRequests, "too_many_requests"},
	{ErrDeliveryFailed, "delivery_failed"},
}

// ErrorKind returns the stable kind string reported to callers for err.
// Unclassified errors report "internal".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
