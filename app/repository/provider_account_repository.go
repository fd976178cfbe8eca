package repository

import (
	"github.com/nikhilthakur8/payping/app/models"
	"gorm.io/gorm"
)

type gormProviderAccountRepository struct {
	db *gorm.DB
}

// NewProviderAccountRepository creates a provider account repository backed by GORM.
func NewProviderAccountRepository(db *gorm.DB) ProviderAccountRepository {
	return &gormProviderAccountRepository{db: db}
}

func (r *gormProviderAccountRepository) GetByID(id uint) (*models.UserProviderAccount, error) {
	var account models.UserProviderAccount
	if err := r.db.Preload("Provider").First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormProviderAccountRepository) GetDefaultForUser(userID uint) (*models.UserProviderAccount, error) {
	var account models.UserProviderAccount
	err := r.db.Preload("Provider").
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}
