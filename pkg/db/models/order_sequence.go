package models

// OrderSequence backs the per-year order number counter. The row is advanced
// inside the checkout transaction so concurrent checkouts serialize on it,
// keeping generated numbers strictly increasing and unique.
type OrderSequence struct {
	Year      int   `gorm:"column:year;primaryKey"`
	LastValue int64 `gorm:"column:last_value;not null;default:0"`
}

func (OrderSequence) TableName() string {
	return "order_sequences"
}
