package database

import (
	"time"

	"github.com/marque-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepo reads and writes storefront customers in one market's store.
type UserRepo struct {
	db     *gorm.DB
	market domain.Market
}

func (r *UserRepo) Get(id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, wrap(r.market, "get user", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByPhone(phone string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Where("phone_number = ?", phone).First(&u).Error; err != nil {
		return nil, wrap(r.market, "get user by phone", err)
	}
	return &u, nil
}

// FindOrCreateByPhone returns the user owning phone, inserting a fresh active account if
// none exists. created reports whether this call inserted the row. Concurrent callers
// for the same phone end up with the same user.
func (r *UserRepo) FindOrCreateByPhone(phone string, now time.Time) (u *domain.User, created bool, err error) {
	fresh := domain.User{
		PhoneNumber: phone,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone_number"}},
		DoNothing: true,
	}).Create(&fresh)
	if res.Error != nil {
		return nil, false, wrap(r.market, "create user", res.Error)
	}
	if res.RowsAffected == 1 {
		return &fresh, true, nil
	}
	u, err = r.GetByPhone(phone)
	if err != nil {
		return nil, false, err
	}
	return u, false, nil
}

// MarkLogin records a successful phone login.
func (r *UserRepo) MarkLogin(id int64, now time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_verified": true,
		"last_login":  now,
		"updated_at":  now,
	})
	if res.Error != nil {
		return wrap(r.market, "mark user login", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(r.market, "mark user login", gorm.ErrRecordNotFound)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of req and returns the stored user.
func (r *UserRepo) UpdateProfile(id int64, req domain.UpdateProfileRequest, now time.Time) (*domain.User, error) {
	updates := map[string]interface{}{"updated_at": now}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.ProfileImageURL != nil {
		updates["profile_image_url"] = *req.ProfileImageURL
	}
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, wrap(r.market, "update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, wrap(r.market, "update profile", gorm.ErrRecordNotFound)
	}
	return r.Get(id)
}
