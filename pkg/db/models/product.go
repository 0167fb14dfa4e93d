package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
)

// Product is the catalog row the pricing engine reads. Catalog CRUD itself is
// an external collaborator; the core only consults price/stock/active and
// adjusts stock through conditional updates.
type Product struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name       string         `gorm:"column:name;not null"`
	Slug       string         `gorm:"column:slug;uniqueIndex;not null"`
	Category   string         `gorm:"column:category;not null;default:''"`
	Image      *string        `gorm:"column:image"`
	PriceCents int            `gorm:"column:price_cents;not null"`
	Currency   enums.Currency `gorm:"column:currency;not null;default:'USD'"`
	StockQty   int            `gorm:"column:stock_qty;not null;default:0"`
	IsActive   bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
