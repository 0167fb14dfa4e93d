package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

func TestCartExpiryJobDeletesExpiredCarts(t *testing.T) {
	now := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	repo := &fakeCartRepo{
		batches: [][]models.Cart{
			{{ID: uuid.New()}, {ID: uuid.New()}},
		},
	}
	job := newCartExpiryJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !repo.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastCutoff)
	}
	if len(repo.deleted) != 2 {
		t.Fatalf("expected 2 deletions, got %d", len(repo.deleted))
	}
}

func TestCartExpiryJobDrainsFullBatches(t *testing.T) {
	full := make([]models.Cart, cartExpiryBatchSize)
	for i := range full {
		full[i] = models.Cart{ID: uuid.New()}
	}
	repo := &fakeCartRepo{
		batches: [][]models.Cart{full, {{ID: uuid.New()}}},
	}
	job := newCartExpiryJob(t, repo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(repo.deleted) != cartExpiryBatchSize+1 {
		t.Fatalf("expected %d deletions, got %d", cartExpiryBatchSize+1, len(repo.deleted))
	}
	if repo.findCalls != 2 {
		t.Fatalf("expected 2 find calls, got %d", repo.findCalls)
	}
}

func TestCartExpiryJobPropagatesErrors(t *testing.T) {
	repo := &fakeCartRepo{err: errors.New("boom")}
	job := newCartExpiryJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCartExpiryJob(t *testing.T, repo *fakeCartRepo) *cartExpiryJob {
	t.Helper()
	jobIface, err := NewCartExpiryJob(CartExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewCartExpiryJob: %v", err)
	}
	job, ok := jobIface.(*cartExpiryJob)
	if !ok {
		t.Fatalf("expected cartExpiryJob, got %T", jobIface)
	}
	return job
}

type fakeCartRepo struct {
	batches    [][]models.Cart
	deleted    []uuid.UUID
	lastCutoff time.Time
	findCalls  int
	err        error
}

func (f *fakeCartRepo) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error) {
	f.findCalls++
	f.lastCutoff = cutoff
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeCartRepo) Delete(ctx context.Context, cartID uuid.UUID) error {
	f.deleted = append(f.deleted, cartID)
	return nil
}
