package domain

import (
	"fmt"
	"strings"
)

// Market is the unit of tenancy. Each market owns a fully isolated data store.
type Market string

const (
	MarketKG Market = "kg"
	MarketUS Market = "us"
)

// Markets returns every supported market in a stable order.
func Markets() []Market {
	return []Market{MarketKG, MarketUS}
}

// ParseMarket accepts a market code in any letter case.
func ParseMarket(s string) (Market, error) {
	switch Market(strings.ToLower(strings.TrimSpace(s))) {
	case MarketKG:
		return MarketKG, nil
	case MarketUS:
		return MarketUS, nil
	}
	return "", fmt.Errorf("unknown market %q: %w", s, ErrValidation)
}

func (m Market) Valid() bool {
	return m == MarketKG || m == MarketUS
}

func (m Market) String() string { return string(m) }

// MarketProfile is the static, per-market presentation data.
type MarketProfile struct {
	Market       Market `json:"market"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
	Currency     string `json:"currency"`
	CurrencyCode string `json:"currency_code"`
	Language     string `json:"language"`
	PhonePrefix  string `json:"phone_prefix"`
	PhoneFormat  string `json:"phone_format"`
}

var profiles = map[Market]MarketProfile{
	MarketKG: {
		Market:       MarketKG,
		Country:      "Kyrgyzstan",
		CountryCode:  "KG",
		Currency:     "сом",
		CurrencyCode: "KGS",
		Language:     "ru",
		PhonePrefix:  "+996",
		PhoneFormat:  "+996 XXX XXX XXX",
	},
	MarketUS: {
		Market:       MarketUS,
		Country:      "United States",
		CountryCode:  "US",
		Currency:     "$",
		CurrencyCode: "USD",
		Language:     "en",
		PhonePrefix:  "+1",
		PhoneFormat:  "+1 (XXX) XXX-XXXX",
	},
}

// Profile returns the market's static profile. The zero value is returned for unknown markets.
func (m Market) Profile() MarketProfile {
	return profiles[m]
}
