package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
)

// Coupon defines a discount rule plus its eligibility filters and usage limits.
// Codes are stored uppercase and matched case-insensitively. UsedCount is only
// ever advanced through a conditional increment so near-simultaneous
// redemptions cannot exceed UsageLimitTotal.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code             string             `gorm:"column:code;uniqueIndex;not null"`
	Description      *string            `gorm:"column:description"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;not null"`
	Value            decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	Currency         *enums.Currency    `gorm:"column:currency"`
	MaxDiscountCents *int               `gorm:"column:max_discount_cents"`

	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidUntil time.Time `gorm:"column:valid_until;not null"`

	UsageLimitTotal   *int `gorm:"column:usage_limit_total"`
	UsageLimitPerUser *int `gorm:"column:usage_limit_per_user"`
	UsedCount         int  `gorm:"column:used_count;not null;default:0"`

	ApplicableProducts   pq.StringArray `gorm:"column:applicable_products;type:text[]"`
	ExcludedProducts     pq.StringArray `gorm:"column:excluded_products;type:text[]"`
	ApplicableCategories pq.StringArray `gorm:"column:applicable_categories;type:text[]"`
	EligibleUsers        pq.StringArray `gorm:"column:eligible_users;type:text[]"`
	FirstPurchaseOnly    bool           `gorm:"column:first_purchase_only;not null;default:false"`

	IsActive bool `gorm:"column:is_active;not null;default:true"`
	IsPublic bool `gorm:"column:is_public;not null;default:true"`

	Redemptions []CouponRedemption `gorm:"foreignKey:CouponID"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
