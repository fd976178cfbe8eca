package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	OrderStatusPending = "pending"
	OrderStatusSuccess = "success"
	OrderStatusFailed  = "failed"
)

// InternalRefPrefix prefixes every generated order reference.
const InternalRefPrefix = "PAYPING"

// PaymentOrder is one payment request. Status starts at pending and moves
// to exactly one of success/failed; terminal orders are never mutated again.
type PaymentOrder struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	UserID            uint                `gorm:"index:ux_user_client_ref,unique,priority:1;not null" json:"user_id"`
	User              User                `gorm:"foreignKey:UserID" json:"-"`
	ProviderAccountID uint                `gorm:"index;not null" json:"provider_account_id"`
	ProviderAccount   UserProviderAccount `gorm:"foreignKey:ProviderAccountID" json:"-"`
	InternalRef       string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"internal_ref"`
	ClientRef         string              `gorm:"type:varchar(100);index:ux_user_client_ref,unique,priority:2;not null" json:"client_ref"`
	Amount            float64             `gorm:"type:decimal(12,2);not null" json:"amount" validate:"required,gt=0"`
	Note              string              `gorm:"type:varchar(255)" json:"note"`
	UPILink           string              `gorm:"type:varchar(500)" json:"upi_link"`
	QRPayload         string              `gorm:"type:varchar(500)" json:"qr_payload"`
	Status            string              `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	UTR               string              `gorm:"type:varchar(100);default:null" json:"utr"`
	TxnTime           *time.Time          `gorm:"type:timestamp;default:null" json:"txn_time"`
	ProviderResponse  string              `gorm:"type:longtext" json:"-"`
	CreatedAt         time.Time           `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *PaymentOrder) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// IsTerminal reports whether the order already reached success or failed.
func (o *PaymentOrder) IsTerminal() bool {
	return o.Status != OrderStatusPending
}

// FormatInternalRef renders a counter sequence as a public order reference,
// e.g. seq 42 -> "PAYPING000042".
func FormatInternalRef(seq uint64) string {
	return fmt.Sprintf("%s%06d", InternalRefPrefix, seq)
}
