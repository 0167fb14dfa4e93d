package types

// PriceBreakdown is the {subtotal, tax, shipping, discount, total} tuple
// computed for a cart or frozen onto an order. All amounts are integer cents.
type PriceBreakdown struct {
	SubtotalCents int    `json:"subtotal_cents"`
	TaxCents      int    `json:"tax_cents"`
	TaxRate       string `json:"tax_rate"`
	ShippingCents int    `json:"shipping_cents"`
	DiscountCents int    `json:"discount_cents"`
	TotalCents    int    `json:"total_cents"`
}
