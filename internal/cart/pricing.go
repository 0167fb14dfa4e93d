package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/velvetsouk/velvetsouk-backend/pkg/config"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/types"
)

// PricingRules holds the tax and shipping parameters applied to every cart.
type PricingRules struct {
	TaxRate               decimal.Decimal
	ShippingFlatCents     int
	FreeShippingOverCents int
}

// RulesFromConfig parses the configured tax rate into pricing rules.
func RulesFromConfig(cfg config.PricingConfig) (PricingRules, error) {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return PricingRules{}, fmt.Errorf("parsing tax rate %q: %w", cfg.TaxRate, err)
	}
	return PricingRules{
		TaxRate:               rate,
		ShippingFlatCents:     cfg.ShippingFlatCents,
		FreeShippingOverCents: cfg.FreeShippingOverCents,
	}, nil
}

// Subtotal sums quantity times captured unit price across the line items.
func Subtotal(items []models.CartItem) int {
	subtotal := 0
	for _, item := range items {
		subtotal += item.Quantity * item.UnitPriceCents
	}
	return subtotal
}

// Compute produces the full price breakdown for a subtotal and discount.
// Tax is charged on the undiscounted subtotal and rounded half-up; shipping is
// waived above the free-shipping threshold; the discount is clamped to
// [0, subtotal] so the total can never go negative.
func Compute(subtotalCents, discountCents int, rules PricingRules) types.PriceBreakdown {
	if discountCents < 0 {
		discountCents = 0
	}
	if discountCents > subtotalCents {
		discountCents = subtotalCents
	}

	taxCents := int(decimal.NewFromInt(int64(subtotalCents)).Mul(rules.TaxRate).Round(0).IntPart())

	shippingCents := 0
	if subtotalCents > 0 {
		shippingCents = rules.ShippingFlatCents
		if rules.FreeShippingOverCents > 0 && subtotalCents >= rules.FreeShippingOverCents {
			shippingCents = 0
		}
	}

	return types.PriceBreakdown{
		SubtotalCents: subtotalCents,
		TaxCents:      taxCents,
		TaxRate:       rules.TaxRate.String(),
		ShippingCents: shippingCents,
		DiscountCents: discountCents,
		TotalCents:    subtotalCents + taxCents + shippingCents - discountCents,
	}
}
