package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	STATUS_ACTIVE  = "active"
	STATUS_BLOCKED = "blocked"
)

// User is a merchant account. The callback URL and webhook secret drive
// outbound webhook delivery; both are optional (webhooks are opt-in).
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=3,max=150"`
	Email         string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password      string     `gorm:"type:text" json:"-" validate:"required,min=6"`
	Status        string     `gorm:"type:varchar(50);default:'active';index" json:"status" validate:"oneof=active blocked"`
	APIKeyHash    string     `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	WebhookSecret string     `gorm:"type:varchar(100)" json:"-"`
	CallbackURL   string     `gorm:"type:varchar(500)" json:"callback_url" validate:"omitempty,url,max=500"`
	LastLoginAt   *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// HasWebhook reports whether the merchant opted into webhook delivery.
func (u *User) HasWebhook() bool {
	return u.CallbackURL != ""
}

// HashAPIKey returns the hex SHA-256 digest under which API keys are stored.
func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
