package domain

import "time"

// Session is a server-held operator session. It is bound to exactly one market for its
// whole lifetime; switching markets requires a new login.
type Session struct {
	Token     string    `json:"-" dynamodbav:"session_token"`
	AdminID   int64     `json:"admin_id" dynamodbav:"admin_id"`
	Market    Market    `json:"market" dynamodbav:"market"`
	IssuedAt  time.Time `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"-"`
	// TTL mirrors ExpiresAt as Unix seconds for DynamoDB time-to-live.
	TTL int64 `json:"-" dynamodbav:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
