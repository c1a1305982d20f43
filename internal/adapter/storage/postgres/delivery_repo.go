package postgres

import (
	"context"
	"errors"
	"fmt"

	"stacks-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DeliveryRepo implements ports.DeliveryRepository.
type DeliveryRepo struct {
	pool Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(pool Pool) *DeliveryRepo {
	return &DeliveryRepo{pool: pool}
}

// Create inserts a new delivery record in its initial pending state.
func (r *DeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	query := `INSERT INTO webhook_deliveries
		(id, webhook_id, event_id, status, attempts, last_attempt_at, next_attempt_at,
		 response_status, response_body, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.WebhookID, d.EventID, string(d.Status), d.Attempts,
		d.LastAttemptAt, d.NextAttemptAt, d.ResponseStatus, d.ResponseBody,
		d.Error, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// GetByID fetches a delivery record by its UUID. Returns (nil, nil) if not found.
func (r *DeliveryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Delivery, error) {
	query := deliverySelect + ` WHERE id = $1`

	d := &domain.Delivery{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.WebhookID, &d.EventID, &status, &d.Attempts,
		&d.LastAttemptAt, &d.NextAttemptAt, &d.ResponseStatus, &d.ResponseBody,
		&d.Error, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery by id: %w", err)
	}
	d.Status = domain.DeliveryStatus(status)
	return d, nil
}

// Update persists the mutable attempt-tracking fields of a delivery record.
func (r *DeliveryRepo) Update(ctx context.Context, d *domain.Delivery) error {
	query := `UPDATE webhook_deliveries
		SET status=$1, attempts=$2, last_attempt_at=$3, next_attempt_at=$4,
		    response_status=$5, response_body=$6, error=$7
		WHERE id=$8`

	_, err := r.pool.Exec(ctx, query,
		string(d.Status), d.Attempts, d.LastAttemptAt, d.NextAttemptAt,
		d.ResponseStatus, d.ResponseBody, d.Error, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	return nil
}

// ListByWebhook returns all delivery records for a webhook, newest first.
func (r *DeliveryRepo) ListByWebhook(ctx context.Context, webhookID uuid.UUID) ([]domain.Delivery, error) {
	query := deliverySelect + ` WHERE webhook_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, webhookID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries by webhook: %w", err)
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

// ListByEvent returns all delivery records for an event, newest first.
func (r *DeliveryRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Delivery, error) {
	query := deliverySelect + ` WHERE event_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries by event: %w", err)
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

const deliverySelect = `SELECT id, webhook_id, event_id, status, attempts,
	last_attempt_at, next_attempt_at, response_status, response_body, error, created_at
	FROM webhook_deliveries`

func scanDeliveries(rows pgx.Rows) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		var status string
		if err := rows.Scan(
			&d.ID, &d.WebhookID, &d.EventID, &status, &d.Attempts,
			&d.LastAttemptAt, &d.NextAttemptAt, &d.ResponseStatus, &d.ResponseBody,
			&d.Error, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Status = domain.DeliveryStatus(status)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
