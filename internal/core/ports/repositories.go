package ports

import (
	"context"
	"encoding/json"
	"time"

	"stacks-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// EventRepository defines persistence operations for domain events.
// Lookups return (nil, nil) when the row does not exist.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListByType(ctx context.Context, eventType string, limit int) ([]domain.Event, error)
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Event, error)
}

// WebhookRepository defines persistence operations for webhook registrations.
type WebhookRepository interface {
	Create(ctx context.Context, webhook *domain.Webhook) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Webhook, error)
	ListAll(ctx context.Context) ([]domain.Webhook, error)
	// Delete removes the registration and reports whether a row existed.
	// Delivery rows referencing the webhook are retained as history.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// DeliveryRepository defines persistence operations for delivery records.
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *domain.Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Delivery, error)
	Update(ctx context.Context, delivery *domain.Delivery) error
	ListByWebhook(ctx context.Context, webhookID uuid.UUID) ([]domain.Delivery, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Delivery, error)
}

// DeliveryQueue is the FIFO work queue of delivery ids plus an in-flight set
// used for crash recovery. Dequeue must atomically claim the id (pop and mark
// in-flight) so multiple workers can share one queue.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, deliveryID uuid.UUID) error
	// Dequeue pops the oldest pending id and moves it into the in-flight set.
	// Returns (uuid.Nil, nil) when the queue is empty.
	Dequeue(ctx context.Context) (uuid.UUID, error)
	// Complete releases the id from the in-flight set. "Complete" means "no
	// longer owned by a worker", whatever the delivery outcome was.
	Complete(ctx context.Context, deliveryID uuid.UUID) error
	// RequeueOrphans moves every in-flight id back onto the pending list.
	// Called once at worker startup to recover work lost to a crash.
	RequeueOrphans(ctx context.Context) (int, error)
	Depth(ctx context.Context) (int64, error)
	InFlightCount(ctx context.Context) (int64, error)
}

// PaymentIntent is the slice of the excluded payment domain the dispatcher
// needs to build payment.* event envelopes.
type PaymentIntent struct {
	ID          uuid.UUID
	MerchantID  uuid.UUID
	Amount      int64
	Status      string
	StacksTxID  *string
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}

// TestSendResult is the raw outcome of a synchronous test delivery.
type TestSendResult struct {
	Delivered      bool
	ResponseStatus int
	ResponseBody   string
	Error          string
	Payload        json.RawMessage
	Signature      string
}
