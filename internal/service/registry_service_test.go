package service

import (
	"context"
	"errors"
	"testing"

	"stacks-payment-gateway/internal/core/domain"
	"stacks-payment-gateway/internal/core/ports/mocks"
	"stacks-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRegistryService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	var stored *domain.Webhook
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, w *domain.Webhook) error {
			stored = w
			return nil
		})

	merchantID := uuid.New()
	events := []string{domain.EventPaymentSucceeded, domain.EventPaymentFailed}
	webhook, err := svc.Create(context.Background(), merchantID, "https://merchant.example.com/hooks", events)
	require.NoError(t, err)
	require.NotNil(t, webhook)

	assert.NotEqual(t, uuid.Nil, webhook.ID)
	assert.Equal(t, merchantID, webhook.MerchantID)
	assert.Equal(t, events, webhook.Events)
	// 32 random bytes, hex encoded
	assert.Regexp(t, `^[0-9a-f]{64}$`, webhook.Secret)
	assert.Equal(t, webhook, stored)
}

func TestRegistryService_Create_SecretsUnique(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	a, err := svc.Create(context.Background(), uuid.New(), "https://a.example.com", []string{domain.EventPaymentCreated})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), uuid.New(), "https://b.example.com", []string{domain.EventPaymentCreated})
	require.NoError(t, err)

	assert.NotEqual(t, a.Secret, b.Secret)
}

func TestRegistryService_Create_InvalidURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	cases := []string{
		"",
		"not a url",
		"/relative/path",
		"ftp://example.com/hooks",
		"https://",
	}
	for _, rawURL := range cases {
		_, err := svc.Create(context.Background(), uuid.New(), rawURL, []string{domain.EventPaymentCreated})
		require.Error(t, err, "url %q", rawURL)
		assert.True(t, apperror.IsValidation(err), "url %q", rawURL)
	}
}

func TestRegistryService_Create_EmptyEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	_, err := svc.Create(context.Background(), uuid.New(), "https://example.com/hooks", nil)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(context.Background(), uuid.New(), "https://example.com/hooks", []string{"payment.created", ""})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRegistryService_FindByID_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	id := uuid.New()
	repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	webhook, err := svc.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, webhook)
}

func TestRegistryService_FindByMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	merchantID := uuid.New()
	expected := []domain.Webhook{{ID: uuid.New(), MerchantID: merchantID}}
	repo.EXPECT().ListByMerchant(gomock.Any(), merchantID).Return(expected, nil)

	webhooks, err := svc.FindByMerchant(context.Background(), merchantID)
	require.NoError(t, err)
	assert.Equal(t, expected, webhooks)
}

func TestRegistryService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	id := uuid.New()
	repo.EXPECT().Delete(gomock.Any(), id).Return(true, nil)

	existed, err := svc.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestRegistryService_Delete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(false, nil)

	existed, err := svc.Delete(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRegistryService_Delete_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockWebhookRepository(ctrl)
	svc := NewRegistryService(repo, newTestLogger())

	repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(false, errors.New("pg down"))

	_, err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsStorage(err))
}
