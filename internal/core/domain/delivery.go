package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus represents the state of a webhook delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending  DeliveryStatus = "pending"
	DeliveryStatusRetrying DeliveryStatus = "retrying"
	DeliveryStatusSuccess  DeliveryStatus = "success"
	DeliveryStatusFailed   DeliveryStatus = "failed"
)

// IsTerminal reports whether no further automatic transitions exist.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusSuccess || s == DeliveryStatusFailed
}

// MaxDeliveryAttempts is the number of execution attempts before a delivery
// is marked failed.
const MaxDeliveryAttempts = 5

// Delivery tracks one (webhook, event) notification attempt sequence.
// Exactly one row exists per pair that matched at fan-out time. Rows are
// never deleted automatically; they remain as delivery history.
type Delivery struct {
	ID             uuid.UUID      `json:"id"`
	WebhookID      uuid.UUID      `json:"webhook_id"`
	EventID        uuid.UUID      `json:"event_id"`
	Status         DeliveryStatus `json:"status"`
	Attempts       int            `json:"attempts"`
	LastAttemptAt  *time.Time     `json:"last_attempt_at"`
	NextAttemptAt  *time.Time     `json:"next_attempt_at"`
	ResponseStatus *int           `json:"response_status"`
	ResponseBody   *string        `json:"response_body"`
	Error          *string        `json:"error"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Backoff returns the delay before the next attempt, doubling per attempt:
// 1, 2, 4, 8, 16 minutes for attempts 1..5.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(1<<(attempts-1)) * time.Minute
}

// ResetForRetry returns the delivery to its initial state for a manual,
// operator-triggered retry. This is the only way out of the failed status.
func (d *Delivery) ResetForRetry() {
	d.Status = DeliveryStatusPending
	d.Attempts = 0
	d.LastAttemptAt = nil
	d.NextAttemptAt = nil
	d.ResponseStatus = nil
	d.ResponseBody = nil
	d.Error = nil
}
