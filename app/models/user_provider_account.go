package models

import "time"

// UserProviderAccount links a merchant to a payment provider account.
// A user can hold one account per provider and at most one default.
type UserProviderAccount struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index:ux_user_provider,unique,priority:1;not null" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"-"`
	ProviderID uint            `gorm:"index:ux_user_provider,unique,priority:2;not null" json:"provider_id"`
	Provider   PaymentProvider `gorm:"foreignKey:ProviderID" json:"provider"`
	MerchantID string          `gorm:"type:varchar(100);not null" json:"merchant_id"`
	VPA        string          `gorm:"type:varchar(100);not null;index" json:"vpa"`
	IsDefault  bool            `gorm:"default:false;index" json:"is_default"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
