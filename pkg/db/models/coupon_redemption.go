package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponRedemption is one entry in a coupon's append-only usage ledger. The
// per-user limit is derived by counting a user's rows here.
type CouponRedemption struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CouponID   uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	RedeemedAt time.Time `gorm:"column:redeemed_at;not null"`
}

func (r *CouponRedemption) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RedeemedAt.IsZero() {
		r.RedeemedAt = time.Now().UTC()
	}
	return nil
}
