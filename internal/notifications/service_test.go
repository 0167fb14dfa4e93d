package notifications

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetsouk/velvetsouk-backend/internal/testdb"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/pagination"
)

func newService(t *testing.T) (Service, Repository) {
	t.Helper()
	db := testdb.Open(t)
	repo := NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard})
	svc, err := NewService(repo, logg)
	require.NoError(t, err)
	return svc, repo
}

func sampleOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: "VS-2026-000042",
		UserID:      userID,
		TotalCents:  8159,
	}
}

func TestOrderCreatedRecordsNotification(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	svc.OrderCreated(context.Background(), sampleOrder(userID))

	list, err := svc.ListForUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)

	n := list.Notifications[0]
	assert.Equal(t, enums.NotificationOrderCreated, n.Kind)
	assert.Equal(t, "VS-2026-000042", n.Payload["order_number"])
	assert.Nil(t, n.ReadAt)
}

func TestStatusChangedPayloadNamesBothStates(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	svc.StatusChanged(context.Background(), sampleOrder(userID), enums.OrderStatusPending, enums.OrderStatusShipped)

	list, err := svc.ListForUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "pending", list.Notifications[0].Payload["from"])
	assert.Equal(t, "shipped", list.Notifications[0].Payload["to"])
}

func TestRefundProcessedIncludesAmount(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()
	order := sampleOrder(userID)
	amount := 5000
	order.RefundAmountCents = &amount

	svc.RefundProcessed(context.Background(), order)

	list, err := svc.ListForUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, enums.NotificationRefundProcessed, list.Notifications[0].Kind)
	assert.EqualValues(t, 5000, list.Notifications[0].Payload["amount_cents"])
}

func TestMarkReadIsScopedToOwner(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	svc.OrderCreated(context.Background(), sampleOrder(userID))
	list, err := svc.ListForUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	id := list.Notifications[0].ID

	err = svc.MarkRead(context.Background(), uuid.New(), id)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.MarkRead(context.Background(), userID, id))

	list, err = svc.ListForUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.NotNil(t, list.Notifications[0].ReadAt)

	// a second mark is a no-op and reports not found
	err = svc.MarkRead(context.Background(), userID, id)
	require.NotNil(t, pkgerrors.As(err))
}
