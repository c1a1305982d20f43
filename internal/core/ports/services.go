package ports

import (
	"context"
	"encoding/json"
	"time"

	"stacks-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// EventService is the durable append-only event store.
type EventService interface {
	Record(ctx context.Context, eventType string, data json.RawMessage) (*domain.Event, error)
	// Get returns (nil, nil) for unknown or syntactically malformed ids.
	Get(ctx context.Context, id string) (*domain.Event, error)
	ListByType(ctx context.Context, eventType string, limit int) ([]domain.Event, error)
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Event, error)
}

// WebhookRegistry manages subscriber endpoint registrations.
type WebhookRegistry interface {
	// Create validates the URL and event list and generates the signing
	// secret server-side. Callers never supply the secret.
	Create(ctx context.Context, merchantID uuid.UUID, url string, events []string) (*domain.Webhook, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error)
	FindByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Webhook, error)
	// Delete reports whether a registration existed. Delivery history is
	// retained as orphans.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// DeliveryExecutor performs signed webhook deliveries and the retry state
// machine around them.
type DeliveryExecutor interface {
	// Execute loads the delivery, signs and POSTs the event payload, and
	// absorbs the outcome into delivery record state. Errors are returned
	// only for infrastructure failures (storage, queue), never for a failed
	// HTTP delivery.
	Execute(ctx context.Context, deliveryID uuid.UUID) error
	// Retry is the operator-triggered manual retry: reset to pending,
	// attempts zeroed, re-enqueued.
	Retry(ctx context.Context, deliveryID uuid.UUID) (*domain.Delivery, error)
	// TestSend synchronously posts a synthetic event to the webhook and
	// returns the raw outcome. Nothing is persisted.
	TestSend(ctx context.Context, webhookID uuid.UUID) (*TestSendResult, error)
	ListByWebhook(ctx context.Context, webhookID uuid.UUID) ([]domain.Delivery, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Delivery, error)
}

// Dispatcher fans events out to matching webhook registrations.
type Dispatcher interface {
	// Trigger records one event and creates + enqueues one delivery per
	// registered webhook subscribed to eventType.
	Trigger(ctx context.Context, eventType string, data json.RawMessage) (*domain.Event, error)
	PaymentCreated(ctx context.Context, intent PaymentIntent) error
	PaymentSucceeded(ctx context.Context, intent PaymentIntent) error
	PaymentFailed(ctx context.Context, intent PaymentIntent, reason string) error
}

// SignatureService handles HMAC-SHA256 signing and verification of webhook
// payloads.
type SignatureService interface {
	// Sign returns the X-Signature header value for the exact payload bytes:
	// "sha256=<lowercase hex digest>".
	Sign(secret string, payload []byte) string
	Verify(secret string, payload []byte, signature string) bool
}
