package repository

import (
	"time"

	"github.com/nikhilthakur8/payping/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormCallbackRepository struct {
	db *gorm.DB
}

// NewCallbackRepository creates a callback log repository backed by GORM.
func NewCallbackRepository(db *gorm.DB) CallbackRepository {
	return &gormCallbackRepository{db: db}
}

// CreateIfNotExists inserts the log unless a row already exists for the same
// (order_id, event_status) pair. The conditional insert is a single statement,
// so of two concurrent triggers for the same event exactly one observes
// created=true; the other gets the stored row and must not attempt delivery.
func (r *gormCallbackRepository) CreateIfNotExists(log *models.CallbackLog) (bool, *models.CallbackLog, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "order_id"},
			{Name: "event_status"},
		},
		DoNothing: true,
	}).Create(log)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.CallbackLog
	if err := r.db.Where("order_id = ? AND event_status = ?", log.OrderID, log.EventStatus).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormCallbackRepository) Update(log *models.CallbackLog) error {
	return r.db.Save(log).Error
}

func (r *gormCallbackRepository) GetByUUIDAndUser(uuid string, userID uint) (*models.CallbackLog, error) {
	var log models.CallbackLog
	err := r.db.Preload("Order").
		Where("uuid = ? AND user_id = ?", uuid, userID).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindDue selects logs eligible for a scheduled attempt: retries whose
// nextRetryAt has passed, plus pending logs created before pendingBefore
// (created but never attempted, e.g. a crash between insert and first POST).
// Terminal logs are never selected.
func (r *gormCallbackRepository) FindDue(now time.Time, pendingBefore time.Time) ([]models.CallbackLog, error) {
	var logs []models.CallbackLog
	err := r.db.
		Where("(status = ? AND next_retry_at <= ?) OR (status = ? AND created_at < ?)",
			models.CallbackStatusRetry, now,
			models.CallbackStatusPending, pendingBefore).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *gormCallbackRepository) ListByUser(userID uint, status string, offset, limit int) ([]models.CallbackLog, int64, error) {
	query := r.db.Model(&models.CallbackLog{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.CallbackLog
	err := query.Preload("Order").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
