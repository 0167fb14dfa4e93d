package orders

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
	"github.com/velvetsouk/velvetsouk-backend/pkg/types"
)

func seedBareOrder(t *testing.T, repo Repository, userID uuid.UUID, status enums.OrderStatus, paymentStatus enums.PaymentStatus) *models.Order {
	t.Helper()
	order, err := repo.Create(context.Background(), &models.Order{
		OrderNumber:   "VS-2026-" + uuid.NewString()[:6],
		UserID:        userID,
		Status:        status,
		Currency:      enums.CurrencyUSD,
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: paymentStatus,
		ShippingAddress: types.Address{
			FullName:   "Noor Haddad",
			Line1:      "8 Juniper Court",
			City:       "Austin",
			PostalCode: "78704",
			Country:    "US",
		},
		SubtotalCents: 1000,
		TaxRate:       "0.08",
		TotalCents:    1080,
	})
	require.NoError(t, err)
	return order
}

func TestListAllFilters(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	alice := uuid.New()
	bob := uuid.New()

	seedBareOrder(t, repo, alice, enums.OrderStatusPending, enums.PaymentStatusPending)
	seedBareOrder(t, repo, alice, enums.OrderStatusShipped, enums.PaymentStatusPaid)
	seedBareOrder(t, repo, bob, enums.OrderStatusShipped, enums.PaymentStatusPaid)

	list, err := repo.ListAll(context.Background(), pagination.Params{Limit: 10}, OrderFilters{Status: enums.OrderStatusShipped})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 2)

	list, err = repo.ListAll(context.Background(), pagination.Params{Limit: 10}, OrderFilters{Status: enums.OrderStatusShipped, UserID: &bob})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, bob, list.Orders[0].UserID)

	list, err = repo.ListAll(context.Background(), pagination.Params{Limit: 10}, OrderFilters{PaymentStatus: enums.PaymentStatusPaid})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 2)
}

func TestCountOrdersForUserExcludesCancelled(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	userID := uuid.New()

	seedBareOrder(t, repo, userID, enums.OrderStatusDelivered, enums.PaymentStatusPaid)
	seedBareOrder(t, repo, userID, enums.OrderStatusCancelled, enums.PaymentStatusPending)

	count, err := repo.CountOrdersForUser(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFindByIDPreloadsHistoryInOrder(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	order := seedBareOrder(t, repo, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusPending)

	for _, status := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing} {
		require.NoError(t, repo.CreateStatusEvent(context.Background(), &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  status,
		}))
	}

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, found.StatusHistory, 2)
	assert.Equal(t, enums.OrderStatusPending, found.StatusHistory[0].Status)
	assert.Equal(t, enums.OrderStatusProcessing, found.StatusHistory[1].Status)
}
