package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

const cartExpiryBatchSize = 200

// CartExpiryJobParams configure the abandoned cart purge.
type CartExpiryJobParams struct {
	Logger     *logger.Logger
	Repository cartExpiryRepo
	BatchSize  int
}

type cartExpiryRepo interface {
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
}

// NewCartExpiryJob builds the job that deletes carts whose sliding TTL has
// lapsed. Reserved stock is never held by a cart, so deletion is a plain purge.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = cartExpiryBatchSize
	}
	return &cartExpiryJob{
		logg:  params.Logger,
		repo:  params.Repository,
		batch: batch,
		now:   time.Now,
	}, nil
}

type cartExpiryJob struct {
	logg  *logger.Logger
	repo  cartExpiryRepo
	batch int
	now   func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	deleted := 0
	var errs []error
	for {
		expired, err := j.repo.FindExpired(ctx, cutoff, j.batch)
		if err != nil {
			errs = append(errs, fmt.Errorf("cart expiry: %w", err))
			break
		}
		if len(expired) == 0 {
			break
		}
		for _, cart := range expired {
			if err := j.repo.Delete(ctx, cart.ID); err != nil {
				errs = append(errs, fmt.Errorf("deleting cart %s: %w", cart.ID, err))
				continue
			}
			deleted++
		}
		// Failed deletes would be re-fetched next pass, so stop draining.
		if len(errs) > 0 || len(expired) < j.batch {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "cart expiry complete")
	return multierr.Combine(errs...)
}
