package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stacks-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Create inserts a new event. Events are immutable once written.
func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	query := `INSERT INTO events (id, type, data, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, e.ID, e.Type, e.Data, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID fetches an event by its UUID. Returns (nil, nil) if not found.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query := `SELECT id, type, data, created_at FROM events WHERE id = $1`

	e := &domain.Event{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Type, &e.Data, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	return e, nil
}

// ListByType returns up to limit events of the given type, newest first.
func (r *EventRepo) ListByType(ctx context.Context, eventType string, limit int) ([]domain.Event, error) {
	query := `SELECT id, type, data, created_at FROM events
		WHERE type = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("list events by type: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListByTimeRange returns events created within [start, end], newest first.
func (r *EventRepo) ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	query := `SELECT id, type, data, created_at FROM events
		WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("list events by time range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
