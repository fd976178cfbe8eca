package models

// Counter backs monotonically increasing sequences (order references).
// Rows are upserted with seq = seq + 1 inside a transaction.
type Counter struct {
	Key string `gorm:"column:counter_key;primaryKey;type:varchar(50)" json:"key"`
	Seq uint64 `gorm:"not null;default:0" json:"seq"`
}

// CounterKeyOrderID is the sequence used for PaymentOrder.InternalRef.
const CounterKeyOrderID = "order_id"
