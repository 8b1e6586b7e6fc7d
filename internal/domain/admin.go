package domain

import "time"

// Admin is an operator actor. Admins are provisioned out-of-band, one market at a time.
type Admin struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"size:100;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	FullName     *string    `json:"full_name" gorm:"size:255"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	IsSuperAdmin bool       `json:"is_super_admin" gorm:"not null"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created"`
	UpdatedAt    time.Time  `json:"updated"`
}
