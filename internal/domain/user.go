package domain

import "time"

// User is an end-user actor. Its row lives in exactly one market's store; IDs are only
// meaningful within that store.
type User struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	PhoneNumber     string     `json:"phone_number" gorm:"size:20;not null;uniqueIndex"`
	FullName        *string    `json:"full_name" gorm:"size:255"`
	ProfileImageURL *string    `json:"profile_image_url" gorm:"size:500"`
	IsActive        bool       `json:"is_active" gorm:"not null"`
	IsVerified      bool       `json:"is_verified" gorm:"not null"`
	LastLogin       *time.Time `json:"last_login"`
	CreatedAt       time.Time  `json:"created"`
	UpdatedAt       time.Time  `json:"updated"`
}

type UpdateProfileRequest struct {
	FullName        *string `json:"full_name" validate:"omitempty,max=255"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url,max=500"`
}
