package service

import (
	"context"
	"encoding/json"
	"time"

	"stacks-payment-gateway/internal/core/domain"
	"stacks-payment-gateway/internal/core/ports"
	"stacks-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dispatcherService implements ports.Dispatcher: it records events and fans
// them out to matching webhook registrations.
type dispatcherService struct {
	events       ports.EventService
	webhookRepo  ports.WebhookRepository
	deliveryRepo ports.DeliveryRepository
	queue        ports.DeliveryQueue
	log          zerolog.Logger
}

// NewDispatcherService creates the event fan-out service.
func NewDispatcherService(
	events ports.EventService,
	webhookRepo ports.WebhookRepository,
	deliveryRepo ports.DeliveryRepository,
	queue ports.DeliveryQueue,
	log zerolog.Logger,
) ports.Dispatcher {
	return &dispatcherService{
		events:       events,
		webhookRepo:  webhookRepo,
		deliveryRepo: deliveryRepo,
		queue:        queue,
		log:          log,
	}
}

// Trigger records one event row and creates exactly one pending delivery per
// registered webhook subscribed to eventType, each pushed onto the queue.
func (s *dispatcherService) Trigger(ctx context.Context, eventType string, data json.RawMessage) (*domain.Event, error) {
	event, err := s.events.Record(ctx, eventType, data)
	if err != nil {
		return nil, err
	}

	webhooks, err := s.webhookRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}

	matched := 0
	for _, webhook := range webhooks {
		if !webhook.SubscribesTo(eventType) {
			continue
		}
		matched++

		delivery := &domain.Delivery{
			ID:        uuid.New(),
			WebhookID: webhook.ID,
			EventID:   event.ID,
			Status:    domain.DeliveryStatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.deliveryRepo.Create(ctx, delivery); err != nil {
			return event, apperror.ErrStorage(err)
		}
		if err := s.queue.Enqueue(ctx, delivery.ID); err != nil {
			// The row exists in pending state; an operator retry can push
			// it onto the queue once Redis is back.
			s.log.Error().Err(err).
				Str("delivery_id", delivery.ID.String()).
				Msg("failed to enqueue delivery")
			continue
		}
	}

	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("type", eventType).
		Int("deliveries", matched).
		Msg("event dispatched")

	return event, nil
}

// paymentObject is the data.object payload for payment.* events.
type paymentObject struct {
	ID          uuid.UUID  `json:"id"`
	Object      string     `json:"object"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	MerchantID  uuid.UUID  `json:"merchantId"`
	StacksTxID  *string    `json:"stacksTxId,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Reason      string     `json:"reason,omitempty"`
}

// PaymentCreated dispatches a payment.created event for a new intent.
func (s *dispatcherService) PaymentCreated(ctx context.Context, intent ports.PaymentIntent) error {
	return s.triggerPayment(ctx, domain.EventPaymentCreated, intent, "")
}

// PaymentSucceeded dispatches a payment.succeeded event for a confirmed intent.
func (s *dispatcherService) PaymentSucceeded(ctx context.Context, intent ports.PaymentIntent) error {
	return s.triggerPayment(ctx, domain.EventPaymentSucceeded, intent, "")
}

// PaymentFailed dispatches a payment.failed event with a failure reason.
func (s *dispatcherService) PaymentFailed(ctx context.Context, intent ports.PaymentIntent, reason string) error {
	if reason == "" {
		reason = "Payment failed"
	}
	return s.triggerPayment(ctx, domain.EventPaymentFailed, intent, reason)
}

func (s *dispatcherService) triggerPayment(ctx context.Context, eventType string, intent ports.PaymentIntent, reason string) error {
	obj := paymentObject{
		ID:         intent.ID,
		Object:     "payment_intent",
		Amount:     intent.Amount,
		Status:     intent.Status,
		MerchantID: intent.MerchantID,
		CreatedAt:  intent.CreatedAt,
		Reason:     reason,
	}
	if eventType == domain.EventPaymentSucceeded {
		obj.StacksTxID = intent.StacksTxID
		obj.ConfirmedAt = intent.ConfirmedAt
	}

	data, err := json.Marshal(struct {
		Object paymentObject `json:"object"`
	}{Object: obj})
	if err != nil {
		return apperror.Wrap("SYS_003", "marshaling payment event", 500, err)
	}

	_, err = s.Trigger(ctx, eventType, data)
	return err
}
