package database

import (
	"time"

	"github.com/marque-api/internal/domain"
	"gorm.io/gorm"
)

// AdminRepo is the credential store for back-office operators of one market.
type AdminRepo struct {
	db     *gorm.DB
	market domain.Market
}

func (r *AdminRepo) Create(a *domain.Admin) error {
	if err := r.db.Create(a).Error; err != nil {
		return wrap(r.market, "create admin", err)
	}
	return nil
}

func (r *AdminRepo) Get(id int64) (*domain.Admin, error) {
	var a domain.Admin
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, wrap(r.market, "get admin", err)
	}
	return &a, nil
}

func (r *AdminRepo) GetByUsername(username string) (*domain.Admin, error) {
	var a domain.Admin
	if err := r.db.Where("username = ?", username).First(&a).Error; err != nil {
		return nil, wrap(r.market, "get admin by username", err)
	}
	return &a, nil
}

func (r *AdminRepo) TouchLastLogin(id int64, now time.Time) error {
	err := r.db.Model(&domain.Admin{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_login": now,
		"updated_at": now,
	}).Error
	return wrap(r.market, "touch admin login", err)
}
