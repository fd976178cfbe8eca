package repository

import (
	"time"

	"github.com/nikhilthakur8/payping/app/models"
)

// OrderStats aggregates order counts and collected volume for a merchant.
type OrderStats struct {
	TotalCollection float64 `json:"total_collection"`
	SuccessCount    int64   `json:"success_count"`
	FailedCount     int64   `json:"failed_count"`
	PendingCount    int64   `json:"pending_count"`
}

// UserRepository defines the interface for merchant database operations.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

// ProviderAccountRepository defines the interface for provider account lookups.
type ProviderAccountRepository interface {
	GetByID(id uint) (*models.UserProviderAccount, error)
	GetDefaultForUser(userID uint) (*models.UserProviderAccount, error)
}

// OrderRepository defines the interface for payment order operations.
// Status mutation goes exclusively through the conditional Mark* operations;
// both guard on status=pending so a terminal order can never transition twice.
type OrderRepository interface {
	Create(order *models.PaymentOrder) error
	GetByInternalRef(internalRef string) (*models.PaymentOrder, error)
	GetByUserAndClientRef(userID uint, clientRef string) (*models.PaymentOrder, error)
	ListByUser(userID uint, status string, offset, limit int) ([]models.PaymentOrder, int64, error)
	MarkFailed(orderID uint) (bool, error)
	MarkSuccess(orderID uint, utr string, txnTime time.Time, rawResponse string) (bool, error)
	FindExpiredPending(cutoff time.Time) ([]models.PaymentOrder, error)
	NextSequence(key string) (uint64, error)
	GetStatsByUserID(userID uint) (*OrderStats, error)
}

// CallbackRepository defines the interface for webhook delivery records.
// CreateIfNotExists is the single concurrency-control primitive of the
// dispatch path: it must be one atomic conditional insert.
type CallbackRepository interface {
	CreateIfNotExists(log *models.CallbackLog) (bool, *models.CallbackLog, error)
	Update(log *models.CallbackLog) error
	GetByUUIDAndUser(uuid string, userID uint) (*models.CallbackLog, error)
	FindDue(now time.Time, pendingBefore time.Time) ([]models.CallbackLog, error)
	ListByUser(userID uint, status string, offset, limit int) ([]models.CallbackLog, int64, error)
}
