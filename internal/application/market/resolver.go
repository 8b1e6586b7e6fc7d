// Package market decides which market a request is routed to.
package market

import (
	"strings"

	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/pkg/phone"
)

// OverrideHeader lets clients that already know their market skip phone inference.
const OverrideHeader = "X-Market"

// Signals are the request inputs considered during resolution, highest precedence first.
type Signals struct {
	Override      string
	SessionMarket domain.Market
	Phone         string
}

// Resolve always returns a market: every request has to be routed somewhere.
// An override that does not name a known market is ignored.
func Resolve(s Signals) domain.Market {
	if s.Override != "" {
		if m, err := domain.ParseMarket(s.Override); err == nil {
			return m
		}
	}
	if s.SessionMarket.Valid() {
		return s.SessionMarket
	}
	return FromPhone(s.Phone)
}

// FromPhone infers the market from the calling code.
// Prefixes other than +996 and +1 fall back to US; see Recognized.
func FromPhone(raw string) domain.Market {
	if strings.HasPrefix(phone.Normalize(raw), "+996") {
		return domain.MarketKG
	}
	return domain.MarketUS
}

// Recognized reports whether raw carries a calling code that maps to a market,
// as opposed to hitting the US fallback.
func Recognized(raw string) bool {
	p := phone.Normalize(raw)
	return strings.HasPrefix(p, "+996") || strings.HasPrefix(p, "+1")
}
