package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"stacks-payment-gateway/internal/core/domain"
	"stacks-payment-gateway/internal/core/ports"
	"stacks-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// secretBytes is the entropy of a webhook signing secret (256 bits).
const secretBytes = 32

// registryService implements ports.WebhookRegistry.
type registryService struct {
	repo ports.WebhookRepository
	log  zerolog.Logger
}

// NewRegistryService creates the webhook registration service.
func NewRegistryService(repo ports.WebhookRepository, log zerolog.Logger) ports.WebhookRegistry {
	return &registryService{repo: repo, log: log}
}

// Create registers a subscriber endpoint. The signing secret is generated
// here, exactly once; there is no regeneration path.
func (s *registryService) Create(ctx context.Context, merchantID uuid.UUID, rawURL string, events []string) (*domain.Webhook, error) {
	if err := validateWebhookURL(rawURL); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, apperror.ErrEmptyEventTypes()
	}
	for _, e := range events {
		if e == "" {
			return nil, apperror.Validation("event types must be non-empty strings")
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, apperror.Wrap("SYS_002", "generating webhook secret", 500, err)
	}

	webhook := &domain.Webhook{
		ID:         uuid.New(),
		MerchantID: merchantID,
		URL:        rawURL,
		Events:     events,
		Secret:     secret,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, webhook); err != nil {
		return nil, apperror.ErrStorage(err)
	}

	s.log.Info().
		Str("webhook_id", webhook.ID.String()).
		Str("merchant_id", merchantID.String()).
		Strs("events", events).
		Msg("webhook registered")

	return webhook, nil
}

// FindByID returns the registration, or (nil, nil) when absent.
func (s *registryService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	webhook, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return webhook, nil
}

// FindByMerchant returns all registrations owned by a merchant.
func (s *registryService) FindByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Webhook, error) {
	webhooks, err := s.repo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return webhooks, nil
}

// Delete hard-deletes a registration and reports whether one existed.
// Delivery history is retained; orphaned records fail terminally when the
// executor next touches them.
func (s *registryService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, apperror.ErrStorage(err)
	}
	if existed {
		s.log.Info().Str("webhook_id", id.String()).Msg("webhook deleted")
	}
	return existed, nil
}

func validateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return apperror.ErrInvalidURL(rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperror.ErrInvalidURL(rawURL)
	}
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
