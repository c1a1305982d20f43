package postgres

import (
	"context"
	"testing"
	"time"

	"stacks-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDelivery() *domain.Delivery {
	return &domain.Delivery{
		ID:        uuid.New(),
		WebhookID: uuid.New(),
		EventID:   uuid.New(),
		Status:    domain.DeliveryStatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func deliveryColumns() []string {
	return []string{
		"id", "webhook_id", "event_id", "status", "attempts",
		"last_attempt_at", "next_attempt_at", "response_status", "response_body",
		"error", "created_at",
	}
}

func deliveryRows(deliveries ...*domain.Delivery) *pgxmock.Rows {
	rows := pgxmock.NewRows(deliveryColumns())
	for _, d := range deliveries {
		rows.AddRow(
			d.ID, d.WebhookID, d.EventID, string(d.Status), d.Attempts,
			d.LastAttemptAt, d.NextAttemptAt, d.ResponseStatus, d.ResponseBody,
			d.Error, d.CreatedAt,
		)
	}
	return rows
}

func TestDeliveryRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeliveryRepo(mock)
	d := newTestDelivery()

	mock.ExpectExec("INSERT INTO webhook_deliveries").
		WithArgs(d.ID, d.WebhookID, d.EventID, string(d.Status), d.Attempts,
			d.LastAttemptAt, d.NextAttemptAt, d.ResponseStatus, d.ResponseBody,
			d.Error, d.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), d)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeliveryRepo(mock)
	d := newTestDelivery()
	d.Status = domain.DeliveryStatusRetrying
	d.Attempts = 2
	lastAttempt := time.Now().UTC().Truncate(time.Microsecond)
	nextAttempt := lastAttempt.Add(2 * time.Minute)
	respStatus := 503
	respBody := "try later"
	d.LastAttemptAt = &lastAttempt
	d.NextAttemptAt = &nextAttempt
	d.ResponseStatus = &respStatus
	d.ResponseBody = &respBody

	mock.ExpectQuery("SELECT .+ FROM webhook_deliveries WHERE id").
		WithArgs(d.ID).
		WillReturnRows(deliveryRows(d))

	result, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.DeliveryStatusRetrying, result.Status)
	assert.Equal(t, 2, result.Attempts)
	require.NotNil(t, result.NextAttemptAt)
	assert.Equal(t, nextAttempt, *result.NextAttemptAt)
	require.NotNil(t, result.ResponseStatus)
	assert.Equal(t, 503, *result.ResponseStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeliveryRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM webhook_deliveries WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(deliveryColumns()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeliveryRepo(mock)
	d := newTestDelivery()
	d.Status = domain.DeliveryStatusSuccess
	d.Attempts = 1
	lastAttempt := time.Now().UTC()
	respStatus := 200
	respBody := "ok"
	d.LastAttemptAt = &lastAttempt
	d.ResponseStatus = &respStatus
	d.ResponseBody = &respBody

	mock.ExpectExec("UPDATE webhook_deliveries").
		WithArgs(string(d.Status), d.Attempts, d.LastAttemptAt, d.NextAttemptAt,
			d.ResponseStatus, d.ResponseBody, d.Error, d.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Update(context.Background(), d)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepo_ListByWebhook(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeliveryRepo(mock)
	d1 := newTestDelivery()
	d2 := newTestDelivery()
	d2.WebhookID = d1.WebhookID
	d2.CreatedAt = d1.CreatedAt.Add(-time.Minute)

	mock.ExpectQuery("SELECT .+ FROM webhook_deliveries WHERE webhook_id").
		WithArgs(d1.WebhookID).
		WillReturnRows(deliveryRows(d1, d2))

	deliveries, err := repo.ListByWebhook(context.Background(), d1.WebhookID)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, d1.ID, deliveries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepo_ListByEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDeliveryRepo(mock)
	d := newTestDelivery()

	mock.ExpectQuery("SELECT .+ FROM webhook_deliveries WHERE event_id").
		WithArgs(d.EventID).
		WillReturnRows(deliveryRows(d))

	deliveries, err := repo.ListByEvent(context.Background(), d.EventID)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, d.ID, deliveries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
