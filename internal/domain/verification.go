package domain

import "time"

// PhoneVerification is a single-use numeric code proving control of a phone number.
// A row moves from active to verified exactly once and is never mutated otherwise.
type PhoneVerification struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	UserID      *int64     `json:"user_id" gorm:"index"`
	PhoneNumber string     `json:"phone_number" gorm:"size:20;not null;index"`
	Code        string     `json:"-" gorm:"column:verification_code;size:10;not null"`
	IsUsed      bool       `json:"is_used" gorm:"not null"`
	ExpiresAt   time.Time  `json:"expires_at" gorm:"not null;index"`
	CreatedAt   time.Time  `json:"created_at"`
	VerifiedAt  *time.Time `json:"verified_at"`
}

// Expired reports whether the code can no longer be used at now.
func (v *PhoneVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
