package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetsouk/velvetsouk-backend/internal/testdb"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/pagination"
)

func seedProduct(t *testing.T, repo Repository, stock int) *models.Product {
	t.Helper()
	product, err := repo.Create(context.Background(), &models.Product{
		Name:       "Linen Throw",
		Slug:       "linen-throw-" + uuid.NewString()[:8],
		Category:   "home",
		PriceCents: 4500,
		Currency:   enums.CurrencyUSD,
		StockQty:   stock,
		IsActive:   true,
	})
	require.NoError(t, err)
	return product
}

func TestDecrementStockSucceedsWhenEnough(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	product := seedProduct(t, repo, 5)

	ok, err := repo.DecrementStock(context.Background(), product.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StockQty)
}

func TestDecrementStockFailsWhenInsufficient(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	product := seedProduct(t, repo, 2)

	ok, err := repo.DecrementStock(context.Background(), product.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StockQty, "stock must be untouched on failure")
}

func TestIncrementStockRestoresUnits(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	product := seedProduct(t, repo, 1)

	require.NoError(t, repo.IncrementStock(context.Background(), product.ID, 4))

	got, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQty)
}

func TestListFiltersByCategoryAndActive(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	seedProduct(t, repo, 1)

	inactive := seedProduct(t, repo, 1)
	require.NoError(t, repo.Update(context.Background(), inactive.ID, map[string]any{"is_active": false}))

	_, err := repo.Create(context.Background(), &models.Product{
		Name:       "Clay Mug",
		Slug:       "clay-mug-" + uuid.NewString()[:8],
		Category:   "kitchen",
		PriceCents: 1800,
		Currency:   enums.CurrencyUSD,
		StockQty:   10,
		IsActive:   true,
	})
	require.NoError(t, err)

	list, err := repo.List(context.Background(), pagination.Params{}, ProductFilters{Category: "home", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "home", list.Products[0].Category)
	assert.True(t, list.Products[0].IsActive)
}
