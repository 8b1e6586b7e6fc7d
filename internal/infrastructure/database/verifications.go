package database

import (
	"time"

	"github.com/marque-api/internal/domain"
	"gorm.io/gorm"
)

// VerificationRepo stores one-time phone codes for one market.
type VerificationRepo struct {
	db     *gorm.DB
	market domain.Market
}

func (r *VerificationRepo) Create(v *domain.PhoneVerification) error {
	if err := r.db.Create(v).Error; err != nil {
		return wrap(r.market, "create verification", err)
	}
	return nil
}

// LatestActive returns the newest unused, unexpired record matching phone and code.
func (r *VerificationRepo) LatestActive(phone, code string, now time.Time) (*domain.PhoneVerification, error) {
	var v domain.PhoneVerification
	err := r.db.
		Where("phone_number = ? AND verification_code = ? AND is_used = ? AND expires_at > ?", phone, code, false, now).
		Order("created_at DESC").
		Order("id DESC").
		First(&v).Error
	if err != nil {
		return nil, wrap(r.market, "find verification", err)
	}
	return &v, nil
}

// MarkUsed consumes the record. It reports false when another caller consumed it first.
func (r *VerificationRepo) MarkUsed(id int64, now time.Time) (bool, error) {
	res := r.db.Model(&domain.PhoneVerification{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{"is_used": true, "verified_at": now})
	if res.Error != nil {
		return false, wrap(r.market, "consume verification", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *VerificationRepo) AttachUser(id, userID int64) error {
	err := r.db.Model(&domain.PhoneVerification{}).Where("id = ?", id).Update("user_id", userID).Error
	return wrap(r.market, "attach verification user", err)
}

// DeleteExpired removes every record whose expiry has passed and returns how many went.
func (r *VerificationRepo) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.PhoneVerification{})
	if res.Error != nil {
		return 0, wrap(r.market, "delete expired verifications", res.Error)
	}
	return res.RowsAffected, nil
}
