package postgres

import (
	"context"
	"errors"
	"fmt"

	"stacks-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WebhookRepo implements ports.WebhookRepository.
type WebhookRepo struct {
	pool Pool
}

// NewWebhookRepo creates a new WebhookRepo.
func NewWebhookRepo(pool Pool) *WebhookRepo {
	return &WebhookRepo{pool: pool}
}

// Create inserts a new webhook registration.
func (r *WebhookRepo) Create(ctx context.Context, w *domain.Webhook) error {
	query := `INSERT INTO webhooks (id, merchant_id, url, events, secret, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, w.ID, w.MerchantID, w.URL, w.Events, w.Secret, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert webhook: %w", err)
	}
	return nil
}

// GetByID fetches a webhook by its UUID. Returns (nil, nil) if not found.
func (r *WebhookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	query := `SELECT id, merchant_id, url, events, secret, created_at
		FROM webhooks WHERE id = $1`

	w := &domain.Webhook{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.MerchantID, &w.URL, &w.Events, &w.Secret, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook by id: %w", err)
	}
	return w, nil
}

// ListByMerchant returns all webhooks owned by a merchant, newest first.
func (r *WebhookRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Webhook, error) {
	query := `SELECT id, merchant_id, url, events, secret, created_at
		FROM webhooks WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks by merchant: %w", err)
	}
	defer rows.Close()

	return scanWebhooks(rows)
}

// ListAll returns every registered webhook. Used by event fan-out.
func (r *WebhookRepo) ListAll(ctx context.Context) ([]domain.Webhook, error) {
	query := `SELECT id, merchant_id, url, events, secret, created_at
		FROM webhooks ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	return scanWebhooks(rows)
}

// Delete removes a webhook registration. Reports whether a row existed.
// Delivery rows referencing the webhook are deliberately left in place.
func (r *WebhookRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete webhook: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanWebhooks(rows pgx.Rows) ([]domain.Webhook, error) {
	var webhooks []domain.Webhook
	for rows.Next() {
		var w domain.Webhook
		if err := rows.Scan(&w.ID, &w.MerchantID, &w.URL, &w.Events, &w.Secret, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}
