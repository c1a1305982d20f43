package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"stacks-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// --- In-Memory Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*domain.Event
}

func newInMemoryEventRepo() *inMemoryEventRepo {
	return &inMemoryEventRepo{events: make(map[uuid.UUID]*domain.Event)}
}

func (r *inMemoryEventRepo) Create(ctx context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *e
	r.events[e.ID] = &clone
	return nil
}

func (r *inMemoryEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (r *inMemoryEventRepo) ListByType(ctx context.Context, eventType string, limit int) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryEventRepo) ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Event
	for _, e := range r.events {
		if !e.CreatedAt.Before(start) && !e.CreatedAt.After(end) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- In-Memory Webhook Repo ---

type inMemoryWebhookRepo struct {
	mu       sync.RWMutex
	webhooks map[uuid.UUID]*domain.Webhook
}

func newInMemoryWebhookRepo() *inMemoryWebhookRepo {
	return &inMemoryWebhookRepo{webhooks: make(map[uuid.UUID]*domain.Webhook)}
}

func (r *inMemoryWebhookRepo) Create(ctx context.Context, w *domain.Webhook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *w
	r.webhooks[w.ID] = &clone
	return nil
}

func (r *inMemoryWebhookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.webhooks[id]
	if !ok {
		return nil, nil
	}
	clone := *w
	return &clone, nil
}

func (r *inMemoryWebhookRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Webhook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Webhook
	for _, w := range r.webhooks {
		if w.MerchantID == merchantID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *inMemoryWebhookRepo) ListAll(ctx context.Context) ([]domain.Webhook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Webhook, 0, len(r.webhooks))
	for _, w := range r.webhooks {
		out = append(out, *w)
	}
	return out, nil
}

func (r *inMemoryWebhookRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.webhooks[id]; !ok {
		return false, nil
	}
	delete(r.webhooks, id)
	return true, nil
}

// --- In-Memory Delivery Repo ---

type inMemoryDeliveryRepo struct {
	mu         sync.RWMutex
	deliveries map[uuid.UUID]*domain.Delivery
}

func newInMemoryDeliveryRepo() *inMemoryDeliveryRepo {
	return &inMemoryDeliveryRepo{deliveries: make(map[uuid.UUID]*domain.Delivery)}
}

func (r *inMemoryDeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *d
	r.deliveries[d.ID] = &clone
	return nil
}

func (r *inMemoryDeliveryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deliveries[id]
	if !ok {
		return nil, nil
	}
	clone := *d
	return &clone, nil
}

func (r *inMemoryDeliveryRepo) Update(ctx context.Context, d *domain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *d
	r.deliveries[d.ID] = &clone
	return nil
}

func (r *inMemoryDeliveryRepo) ListByWebhook(ctx context.Context, webhookID uuid.UUID) ([]domain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Delivery
	for _, d := range r.deliveries {
		if d.WebhookID == webhookID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryDeliveryRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Delivery
	for _, d := range r.deliveries {
		if d.EventID == eventID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
