package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
)

// Cart holds a user's mutable line items. Exactly one cart exists per user.
// The pricing columns are a cache recomputed on every mutation, never a source
// of truth; ExpiresAt slides forward 30 days on each update and expired carts
// are purged by the cron sweep.
type Cart struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	CouponID      *uuid.UUID     `gorm:"column:coupon_id;type:uuid"`
	Coupon        *Coupon        `gorm:"foreignKey:CouponID"`
	Currency      enums.Currency `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents int            `gorm:"column:subtotal_cents;not null;default:0"`
	TaxCents      int            `gorm:"column:tax_cents;not null;default:0"`
	TaxRate       string         `gorm:"column:tax_rate;not null;default:'0'"`
	ShippingCents int            `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents int            `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int            `gorm:"column:total_cents;not null;default:0"`
	ExpiresAt     time.Time      `gorm:"column:expires_at;not null"`
	Items         []CartItem     `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
