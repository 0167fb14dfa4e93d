package checkout

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// nextOrderNumber advances the per-year sequence inside the checkout
// transaction and formats the result as VS-<year>-<6-digit-sequence>.
// Concurrent checkouts serialize on the sequence row, so numbers are unique
// and strictly increasing within a year.
func nextOrderNumber(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	year := now.UTC().Year()

	var lastValue int64
	err := tx.WithContext(ctx).Raw(`
INSERT INTO order_sequences (year, last_value) VALUES (?, 1)
ON CONFLICT (year) DO UPDATE SET last_value = order_sequences.last_value + 1
RETURNING last_value`, year).Scan(&lastValue).Error
	if err != nil {
		return "", fmt.Errorf("advancing order sequence: %w", err)
	}

	return fmt.Sprintf("VS-%d-%06d", year, lastValue), nil
}
