package redis

import (
	"context"
	"errors"

	"stacks-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	pendingListKey = "webhook:deliveries:pending"
	inFlightSetKey = "webhook:deliveries:processing"
)

// DeliveryQueue implements ports.DeliveryQueue on a Redis list (pending,
// FIFO) plus a set (in-flight). RPOP is atomic, so no two workers can claim
// the same id; the in-flight set exists so a crashed worker's claims can be
// requeued at the next startup.
type DeliveryQueue struct {
	client *goredis.Client
}

// NewDeliveryQueue creates a Redis-backed delivery queue.
func NewDeliveryQueue(client *goredis.Client) *DeliveryQueue {
	return &DeliveryQueue{client: client}
}

// Enqueue appends a delivery id to the tail of the pending list.
func (q *DeliveryQueue) Enqueue(ctx context.Context, deliveryID uuid.UUID) error {
	if err := q.client.LPush(ctx, pendingListKey, deliveryID.String()).Err(); err != nil {
		return apperror.ErrQueueUnavailable(err)
	}
	return nil
}

// Dequeue pops the oldest pending id and marks it in-flight. Returns
// (uuid.Nil, nil) when the queue is empty.
func (q *DeliveryQueue) Dequeue(ctx context.Context) (uuid.UUID, error) {
	raw, err := q.client.RPop(ctx, pendingListKey).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return uuid.Nil, nil
		}
		return uuid.Nil, apperror.ErrQueueUnavailable(err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		// Garbage on the queue is dropped, not retried forever.
		return uuid.Nil, apperror.Wrap("QUEUE_002", "malformed delivery id on queue", 500, err)
	}

	if err := q.client.SAdd(ctx, inFlightSetKey, raw).Err(); err != nil {
		return uuid.Nil, apperror.ErrQueueUnavailable(err)
	}
	return id, nil
}

// Complete releases a delivery id from the in-flight set. Called whatever
// the delivery outcome was; it only means a worker no longer owns the id.
func (q *DeliveryQueue) Complete(ctx context.Context, deliveryID uuid.UUID) error {
	if err := q.client.SRem(ctx, inFlightSetKey, deliveryID.String()).Err(); err != nil {
		return apperror.ErrQueueUnavailable(err)
	}
	return nil
}

// RequeueOrphans moves every in-flight id back onto the pending list and
// clears the set. Invoked once at worker startup; a delivery whose POST
// succeeded but whose bookkeeping did not finish may be attempted again,
// which is the at-least-once contract.
func (q *DeliveryQueue) RequeueOrphans(ctx context.Context) (int, error) {
	members, err := q.client.SMembers(ctx, inFlightSetKey).Result()
	if err != nil {
		return 0, apperror.ErrQueueUnavailable(err)
	}

	for _, member := range members {
		if err := q.client.LPush(ctx, pendingListKey, member).Err(); err != nil {
			return 0, apperror.ErrQueueUnavailable(err)
		}
		if err := q.client.SRem(ctx, inFlightSetKey, member).Err(); err != nil {
			return 0, apperror.ErrQueueUnavailable(err)
		}
	}
	return len(members), nil
}

// Depth returns the number of pending delivery ids.
func (q *DeliveryQueue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, pendingListKey).Result()
	if err != nil {
		return 0, apperror.ErrQueueUnavailable(err)
	}
	return n, nil
}

// InFlightCount returns the number of ids currently claimed by workers.
func (q *DeliveryQueue) InFlightCount(ctx context.Context) (int64, error) {
	n, err := q.client.SCard(ctx, inFlightSetKey).Result()
	if err != nil {
		return 0, apperror.ErrQueueUnavailable(err)
	}
	return n, nil
}
