package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
)

func testRules() PricingRules {
	return PricingRules{
		TaxRate:               decimal.RequireFromString("0.08"),
		ShippingFlatCents:     599,
		FreeShippingOverCents: 10000,
	}
}

func TestSubtotal(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, UnitPriceCents: 4500},
		{Quantity: 1, UnitPriceCents: 1800},
	}
	assert.Equal(t, 10800, Subtotal(items))
	assert.Equal(t, 0, Subtotal(nil))
}

func TestComputeBasicBreakdown(t *testing.T) {
	b := Compute(5000, 0, testRules())
	assert.Equal(t, 5000, b.SubtotalCents)
	assert.Equal(t, 400, b.TaxCents)
	assert.Equal(t, 599, b.ShippingCents)
	assert.Equal(t, 0, b.DiscountCents)
	assert.Equal(t, 5000+400+599, b.TotalCents)
}

func TestComputeTaxRoundsHalfUp(t *testing.T) {
	rules := testRules()
	// 1131 * 0.08 = 90.48 -> 90; 1144 * 0.08 = 91.52 -> 92
	assert.Equal(t, 90, Compute(1131, 0, rules).TaxCents)
	assert.Equal(t, 92, Compute(1144, 0, rules).TaxCents)
}

func TestComputeFreeShippingThreshold(t *testing.T) {
	assert.Equal(t, 0, Compute(10000, 0, testRules()).ShippingCents)
	assert.Equal(t, 599, Compute(9999, 0, testRules()).ShippingCents)
}

func TestComputeClampsDiscount(t *testing.T) {
	b := Compute(1000, 5000, testRules())
	assert.Equal(t, 1000, b.DiscountCents)
	assert.GreaterOrEqual(t, b.TotalCents, 0)

	b = Compute(1000, -50, testRules())
	assert.Equal(t, 0, b.DiscountCents)
}

func TestComputeEmptyCartHasNoShipping(t *testing.T) {
	b := Compute(0, 0, testRules())
	assert.Equal(t, 0, b.ShippingCents)
	assert.Equal(t, 0, b.TotalCents)
}

func TestComputeIsIdempotent(t *testing.T) {
	first := Compute(12345, 678, testRules())
	second := Compute(first.SubtotalCents, first.DiscountCents, testRules())
	assert.Equal(t, first, second)
}

func TestComputeReconciles(t *testing.T) {
	b := Compute(20000, 4000, testRules())
	assert.Equal(t, b.SubtotalCents+b.TaxCents+b.ShippingCents-b.DiscountCents, b.TotalCents)
}
