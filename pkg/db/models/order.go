package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/types"
)

// Order is the immutable record produced by checkout. Pricing columns are
// frozen at creation and never recomputed from live catalog prices; the coupon
// snapshot carries only the code and discount amount, not a foreign key.
// Orders are never deleted; account erasure anonymizes PII in place.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string            `gorm:"column:order_number;uniqueIndex;not null"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Currency    enums.Currency    `gorm:"column:currency;not null;default:'USD'"`

	ShippingAddress types.Address `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	TransactionID *string             `gorm:"column:transaction_id"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`

	SubtotalCents int    `gorm:"column:subtotal_cents;not null"`
	TaxCents      int    `gorm:"column:tax_cents;not null"`
	TaxRate       string `gorm:"column:tax_rate;not null"`
	ShippingCents int    `gorm:"column:shipping_cents;not null"`
	DiscountCents int    `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int    `gorm:"column:total_cents;not null"`

	CouponCode          *string `gorm:"column:coupon_code"`
	CouponDiscountCents int     `gorm:"column:coupon_discount_cents;not null;default:0"`

	RefundAmountCents *int       `gorm:"column:refund_amount_cents"`
	RefundReason      *string    `gorm:"column:refund_reason"`
	RefundProcessedAt *time.Time `gorm:"column:refund_processed_at"`

	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	Items         []OrderLineItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory []OrderStatusEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Breakdown returns the pricing snapshot frozen at creation.
func (o *Order) Breakdown() types.PriceBreakdown {
	return types.PriceBreakdown{
		SubtotalCents: o.SubtotalCents,
		TaxCents:      o.TaxCents,
		TaxRate:       o.TaxRate,
		ShippingCents: o.ShippingCents,
		DiscountCents: o.DiscountCents,
		TotalCents:    o.TotalCents,
	}
}
