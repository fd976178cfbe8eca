package repository

import (
	"time"

	"github.com/nikhilthakur8/payping/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository backed by GORM.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

func (r *gormOrderRepository) Create(order *models.PaymentOrder) error {
	return r.db.Create(order).Error
}

func (r *gormOrderRepository) GetByInternalRef(internalRef string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.
		Preload("User").
		Preload("ProviderAccount").
		Preload("ProviderAccount.Provider").
		Where("internal_ref = ?", internalRef).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) GetByUserAndClientRef(userID uint, clientRef string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.Where("user_id = ? AND client_ref = ?", userID, clientRef).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) ListByUser(userID uint, status string, offset, limit int) ([]models.PaymentOrder, int64, error) {
	query := r.db.Model(&models.PaymentOrder{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.PaymentOrder
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

// MarkFailed transitions a pending order to failed. The status guard in the
// WHERE clause makes the transition happen at most once even when the sweep
// and an on-demand check race on the same order.
func (r *gormOrderRepository) MarkFailed(orderID uint) (bool, error) {
	tx := r.db.Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":            models.OrderStatusFailed,
			"provider_response": "",
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// MarkSuccess transitions a pending order to success with settlement data.
func (r *gormOrderRepository) MarkSuccess(orderID uint, utr string, txnTime time.Time, rawResponse string) (bool, error) {
	tx := r.db.Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":            models.OrderStatusSuccess,
			"utr":               utr,
			"txn_time":          txnTime,
			"provider_response": rawResponse,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormOrderRepository) FindExpiredPending(cutoff time.Time) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	err := r.db.
		Preload("User").
		Preload("ProviderAccount").
		Preload("ProviderAccount.Provider").
		Where("status = ? AND created_at < ?", models.OrderStatusPending, cutoff).
		Find(&orders).Error
	return orders, err
}

// NextSequence atomically increments and returns the named counter.
func (r *gormOrderRepository) NextSequence(key string) (uint64, error) {
	var seq uint64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		counter := models.Counter{Key: key, Seq: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "counter_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"seq": gorm.Expr("seq + 1"),
			}),
		}).Create(&counter).Error; err != nil {
			return err
		}

		var stored models.Counter
		if err := tx.Where("counter_key = ?", key).First(&stored).Error; err != nil {
			return err
		}
		seq = stored.Seq
		return nil
	})
	return seq, err
}

func (r *gormOrderRepository) GetStatsByUserID(userID uint) (*OrderStats, error) {
	type row struct {
		Status      string
		Count       int64
		TotalAmount float64
	}

	var rows []row
	err := r.db.Model(&models.PaymentOrder{}).
		Select("status, COUNT(*) AS count, SUM(amount) AS total_amount").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{}
	for _, r := range rows {
		switch r.Status {
		case models.OrderStatusSuccess:
			stats.SuccessCount = r.Count
			stats.TotalCollection = r.TotalAmount
		case models.OrderStatusFailed:
			stats.FailedCount = r.Count
		case models.OrderStatusPending:
			stats.PendingCount = r.Count
		}
	}
	return stats, nil
}
