package models

import "time"

// PaymentProvider is a supported payment rail (paytm, phonepe, ...).
// The code is the key used to resolve a status adapter at runtime.
type PaymentProvider struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	PhotoURL  string    `gorm:"type:varchar(255)" json:"photo_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
