package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CallbackStatusPending = "pending"
	CallbackStatusRetry   = "retry"
	CallbackStatusSuccess = "success"
	CallbackStatusFailed  = "failed"
)

// CallbackLog is one webhook delivery lineage for one order-status event.
// The unique (order_id, event_status) index is the idempotency key: the
// storage layer, not application code, guarantees a single row per event.
// The payload snapshot is immutable after creation; failed is terminal.
type CallbackLog struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UUID        string       `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	UserID      uint         `gorm:"index;not null" json:"user_id"`
	User        User         `gorm:"foreignKey:UserID" json:"-"`
	OrderID     uint         `gorm:"index:ux_order_event,unique,priority:1;not null" json:"order_id"`
	Order       PaymentOrder `gorm:"foreignKey:OrderID" json:"-"`
	URL         string       `gorm:"type:varchar(500);not null" json:"url"`
	EventStatus string       `gorm:"type:varchar(20);index:ux_order_event,unique,priority:2;not null" json:"event_status"`
	Payload     string       `gorm:"type:longtext;not null" json:"payload"`
	Status      string       `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Attempts    int          `gorm:"default:0" json:"attempts"`
	NextRetryAt *time.Time   `gorm:"type:timestamp;default:null;index" json:"next_retry_at"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (cl *CallbackLog) BeforeCreate(tx *gorm.DB) error {
	if cl.UUID == "" {
		cl.UUID = uuid.New().String()
	}
	return nil
}

// IsTerminal reports whether the log can never be attempted again.
func (cl *CallbackLog) IsTerminal() bool {
	return cl.Status == CallbackStatusSuccess || cl.Status == CallbackStatusFailed
}
