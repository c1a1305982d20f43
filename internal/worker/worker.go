package worker

import (
	"context"
	"sync"
	"time"

	"stacks-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status is a point-in-time snapshot of the worker and its queue.
type Status struct {
	Running       bool  `json:"running"`
	QueueDepth    int64 `json:"queue_depth"`
	InFlightCount int64 `json:"in_flight_count"`
}

// Worker is the single-threaded polling loop that drains the delivery
// queue. One delivery executes at a time; multiple Worker instances may
// share a queue because Dequeue claims atomically.
type Worker struct {
	queue    ports.DeliveryQueue
	executor ports.DeliveryExecutor
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a worker polling the queue at the given interval.
func New(queue ports.DeliveryQueue, executor ports.DeliveryExecutor, interval time.Duration, log zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{
		queue:    queue,
		executor: executor,
		interval: interval,
		log:      log,
	}
}

// Start requeues orphaned in-flight work from a previous instance, then
// begins the poll loop in a background goroutine. Idempotent while running.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		w.log.Debug().Msg("worker already running")
		return nil
	}

	requeued, err := w.queue.RequeueOrphans(ctx)
	if err != nil {
		return err
	}
	if requeued > 0 {
		w.log.Info().Int("count", requeued).Msg("requeued orphaned deliveries")
	}

	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(ctx, w.stop, w.done)

	w.log.Info().Dur("interval", w.interval).Msg("webhook worker started")
	return nil
}

// Stop ceases scheduling further ticks. A delivery already executing is not
// awaited; the next startup's orphan requeue recovers it.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stop)
	w.log.Info().Msg("webhook worker stopped")
}

// Running reports whether the poll loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Status returns the worker state plus queue depth and in-flight count.
func (w *Worker) Status(ctx context.Context) (Status, error) {
	depth, err := w.queue.Depth(ctx)
	if err != nil {
		return Status{}, err
	}
	inFlight, err := w.queue.InFlightCount(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Running:       w.Running(),
		QueueDepth:    depth,
		InFlightCount: inFlight,
	}, nil
}

func (w *Worker) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			w.Stop()
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick attempts one dequeue and, if work arrived, one synchronous delivery
// execution. Every error is logged and absorbed: a bad record or an
// infrastructure blip must not halt the loop.
func (w *Worker) tick(ctx context.Context) {
	deliveryID, err := w.queue.Dequeue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("dequeue failed")
		return
	}
	if deliveryID == uuid.Nil {
		return
	}

	if err := w.executor.Execute(ctx, deliveryID); err != nil {
		w.log.Error().Err(err).
			Str("delivery_id", deliveryID.String()).
			Msg("delivery execution failed")
	}

	// The attempt is over either way; release the claim.
	if err := w.queue.Complete(ctx, deliveryID); err != nil {
		w.log.Error().Err(err).
			Str("delivery_id", deliveryID.String()).
			Msg("failed to complete delivery claim")
	}
}
