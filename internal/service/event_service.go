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

// eventService implements ports.EventService.
type eventService struct {
	repo ports.EventRepository
	log  zerolog.Logger
}

// NewEventService creates the durable event store service.
func NewEventService(repo ports.EventRepository, log zerolog.Logger) ports.EventService {
	return &eventService{repo: repo, log: log}
}

// Record creates and persists an immutable event.
func (s *eventService) Record(ctx context.Context, eventType string, data json.RawMessage) (*domain.Event, error) {
	if eventType == "" {
		return nil, apperror.Validation("event type is required")
	}

	event := &domain.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, apperror.ErrStorage(err)
	}

	s.log.Debug().
		Str("event_id", event.ID.String()).
		Str("type", event.Type).
		Msg("event recorded")

	return event, nil
}

// Get returns the event with the given id, or (nil, nil) when the id is
// unknown or not a syntactically valid UUID. Malformed ids are never an
// error; they simply cannot name an existing event.
func (s *eventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return event, nil
}

// ListByType returns up to limit events of a type, newest first.
func (s *eventService) ListByType(ctx context.Context, eventType string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	events, err := s.repo.ListByType(ctx, eventType, limit)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return events, nil
}

// ListByTimeRange returns events created within [start, end], newest first.
func (s *eventService) ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	events, err := s.repo.ListByTimeRange(ctx, start, end)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return events, nil
}
