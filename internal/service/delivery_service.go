package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"stacks-payment-gateway/config"
	"stacks-payment-gateway/internal/core/domain"
	"stacks-payment-gateway/internal/core/ports"
	"stacks-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// webhookPayload is the JSON body POSTed to subscriber endpoints.
type webhookPayload struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Created time.Time       `json:"created"`
	Data    json.RawMessage `json:"data"`
}

// deliveryService implements ports.DeliveryExecutor.
type deliveryService struct {
	deliveryRepo ports.DeliveryRepository
	webhookRepo  ports.WebhookRepository
	eventRepo    ports.EventRepository
	queue        ports.DeliveryQueue
	sigSvc       ports.SignatureService
	classifier   OutcomeClassifier
	httpClient   HTTPClient
	cfg          config.WebhookConfig
	log          zerolog.Logger
	now          func() time.Time
}

// NewDeliveryService creates the delivery executor.
func NewDeliveryService(
	deliveryRepo ports.DeliveryRepository,
	webhookRepo ports.WebhookRepository,
	eventRepo ports.EventRepository,
	queue ports.DeliveryQueue,
	sigSvc ports.SignatureService,
	classifier OutcomeClassifier,
	httpClient HTTPClient,
	cfg config.WebhookConfig,
	log zerolog.Logger,
) ports.DeliveryExecutor {
	if classifier == nil {
		classifier = StatusClassifier{}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = domain.MaxDeliveryAttempts
	}
	if cfg.MaxResponseBody <= 0 {
		cfg.MaxResponseBody = 4096
	}
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		webhookRepo:  webhookRepo,
		eventRepo:    eventRepo,
		queue:        queue,
		sigSvc:       sigSvc,
		classifier:   classifier,
		httpClient:   httpClient,
		cfg:          cfg,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs one delivery attempt for the given record. Delivery failures
// are absorbed into record state; only infrastructure errors are returned.
func (s *deliveryService) Execute(ctx context.Context, deliveryID uuid.UUID) error {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return apperror.ErrStorage(err)
	}
	if delivery == nil {
		return apperror.ErrNotFound("delivery")
	}

	if delivery.Status.IsTerminal() {
		// A crash between the final status update and queue completion can
		// resurrect a finished delivery. Nothing left to do for it.
		s.log.Debug().
			Str("delivery_id", deliveryID.String()).
			Str("status", string(delivery.Status)).
			Msg("skipping terminal delivery")
		return nil
	}

	now := s.now()
	if delivery.NextAttemptAt != nil && now.Before(*delivery.NextAttemptAt) {
		// Not due yet. Retry scheduling rides the queue itself: put the id
		// back and let a later tick pick it up.
		return s.queue.Enqueue(ctx, deliveryID)
	}

	webhook, err := s.webhookRepo.GetByID(ctx, delivery.WebhookID)
	if err != nil {
		return apperror.ErrStorage(err)
	}
	if webhook == nil {
		return s.markTerminal(ctx, delivery, "webhook not found")
	}

	event, err := s.eventRepo.GetByID(ctx, delivery.EventID)
	if err != nil {
		return apperror.ErrStorage(err)
	}
	if event == nil {
		return s.markTerminal(ctx, delivery, "event not found")
	}

	body, err := json.Marshal(webhookPayload{
		ID:      event.ID,
		Type:    event.Type,
		Created: event.CreatedAt,
		Data:    event.Data,
	})
	if err != nil {
		return s.markTerminal(ctx, delivery, "marshaling payload: "+err.Error())
	}

	resp, respBody, postErr := s.post(ctx, webhook, body)

	delivery.Attempts++
	attemptAt := s.now()
	delivery.LastAttemptAt = &attemptAt
	delivery.ResponseStatus = nil
	delivery.ResponseBody = nil
	delivery.Error = nil
	if resp != nil {
		status := resp.StatusCode
		delivery.ResponseStatus = &status
		delivery.ResponseBody = &respBody
	}
	if postErr != nil {
		msg := postErr.Error()
		delivery.Error = &msg
	}

	switch s.classifier.Classify(resp, postErr) {
	case OutcomeSuccess:
		delivery.Status = domain.DeliveryStatusSuccess
		delivery.NextAttemptAt = nil
		s.log.Info().
			Str("delivery_id", delivery.ID.String()).
			Int("attempts", delivery.Attempts).
			Msg("webhook delivered")

	case OutcomeTerminalFailure:
		delivery.Status = domain.DeliveryStatusFailed
		delivery.NextAttemptAt = nil

	default: // OutcomeTransientFailure
		if delivery.Attempts < s.cfg.MaxAttempts {
			next := attemptAt.Add(domain.Backoff(delivery.Attempts))
			delivery.Status = domain.DeliveryStatusRetrying
			delivery.NextAttemptAt = &next
		} else {
			delivery.Status = domain.DeliveryStatusFailed
			delivery.NextAttemptAt = nil
			s.log.Warn().
				Str("delivery_id", delivery.ID.String()).
				Int("attempts", delivery.Attempts).
				Msg("webhook delivery attempts exhausted")
		}
	}

	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return apperror.ErrStorage(err)
	}

	if delivery.Status == domain.DeliveryStatusRetrying {
		if err := s.queue.Enqueue(ctx, delivery.ID); err != nil {
			return err
		}
	}
	return nil
}

// Retry resets a delivery for a fresh attempt sequence and re-enqueues it.
// Operator-triggered; the only path out of the failed status.
func (s *deliveryService) Retry(ctx context.Context, deliveryID uuid.UUID) (*domain.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	if delivery == nil {
		return nil, apperror.ErrNotFound("delivery")
	}

	delivery.ResetForRetry()
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, apperror.ErrStorage(err)
	}
	if err := s.queue.Enqueue(ctx, delivery.ID); err != nil {
		return nil, err
	}

	s.log.Info().Str("delivery_id", deliveryID.String()).Msg("delivery manually retried")
	return delivery, nil
}

// TestSend posts a synthetic event to the webhook and returns the raw
// outcome. No event row and no delivery record are created, so no other
// registration can observe the test.
func (s *deliveryService) TestSend(ctx context.Context, webhookID uuid.UUID) (*ports.TestSendResult, error) {
	webhook, err := s.webhookRepo.GetByID(ctx, webhookID)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	if webhook == nil {
		return nil, apperror.ErrNotFound("webhook")
	}

	now := s.now()
	data, _ := json.Marshal(map[string]any{
		"object": map[string]any{
			"test":       true,
			"webhook_id": webhook.ID,
		},
	})
	body, err := json.Marshal(webhookPayload{
		ID:      uuid.New(),
		Type:    domain.EventWebhookTest,
		Created: now,
		Data:    data,
	})
	if err != nil {
		return nil, apperror.Wrap("SYS_003", "marshaling test payload", 500, err)
	}

	result := &ports.TestSendResult{
		Payload:   body,
		Signature: s.sigSvc.Sign(webhook.Secret, body),
	}

	resp, respBody, postErr := s.post(ctx, webhook, body)
	if postErr != nil {
		result.Error = postErr.Error()
		return result, nil
	}
	result.ResponseStatus = resp.StatusCode
	result.ResponseBody = respBody
	result.Delivered = s.classifier.Classify(resp, nil) == OutcomeSuccess
	return result, nil
}

// ListByWebhook returns delivery history for a webhook, newest first.
func (s *deliveryService) ListByWebhook(ctx context.Context, webhookID uuid.UUID) ([]domain.Delivery, error) {
	deliveries, err := s.deliveryRepo.ListByWebhook(ctx, webhookID)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return deliveries, nil
}

// ListByEvent returns delivery history for an event, newest first.
func (s *deliveryService) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Delivery, error) {
	deliveries, err := s.deliveryRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return deliveries, nil
}

// post sends the signed payload. The returned body is truncated to the
// configured cap; the response body reader is always drained and closed.
func (s *deliveryService) post(ctx context.Context, webhook *domain.Webhook, body []byte) (*http.Response, string, error) {
	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", s.sigSvc.Sign(webhook.Secret, body))
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, int64(s.cfg.MaxResponseBody)))
	io.Copy(io.Discard, resp.Body)
	return resp, string(respBody), nil
}

// markTerminal fails a delivery without an HTTP attempt, recording why.
func (s *deliveryService) markTerminal(ctx context.Context, delivery *domain.Delivery, reason string) error {
	now := s.now()
	delivery.Status = domain.DeliveryStatusFailed
	delivery.LastAttemptAt = &now
	delivery.NextAttemptAt = nil
	delivery.Error = &reason

	s.log.Warn().
		Str("delivery_id", delivery.ID.String()).
		Str("reason", reason).
		Msg("delivery failed terminally")

	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return apperror.ErrStorage(err)
	}
	return nil
}
