package domain

import (
	"time"

	"github.com/google/uuid"
)

// Webhook is a merchant-registered subscriber endpoint. The secret is
// generated server-side at creation and never changes for the lifetime of
// the registration.
type Webhook struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	URL        string    `json:"url"`
	Events     []string  `json:"events"`
	Secret     string    `json:"secret"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubscribesTo reports whether the webhook is subscribed to eventType.
func (w *Webhook) SubscribesTo(eventType string) bool {
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}
