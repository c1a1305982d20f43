package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"stacks-payment-gateway/internal/core/ports/mocks"
	"stacks-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestWorker(t *testing.T) (*Worker, *mocks.MockDeliveryQueue, *mocks.MockDeliveryExecutor) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	queue := mocks.NewMockDeliveryQueue(ctrl)
	executor := mocks.NewMockDeliveryExecutor(ctrl)
	w := New(queue, executor, 5*time.Millisecond, newTestLogger())
	return w, queue, executor
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestWorker_Start_RequeuesOrphans(t *testing.T) {
	w, queue, _ := newTestWorker(t)

	queue.EXPECT().RequeueOrphans(gomock.Any()).Return(3, nil)
	queue.EXPECT().Dequeue(gomock.Any()).Return(uuid.Nil, nil).AnyTimes()

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.True(t, w.Running())
}

func TestWorker_Start_FailsWhenQueueDown(t *testing.T) {
	w, queue, _ := newTestWorker(t)

	queue.EXPECT().RequeueOrphans(gomock.Any()).
		Return(0, apperror.ErrQueueUnavailable(errors.New("redis down")))

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.False(t, w.Running())
}

func TestWorker_Start_Idempotent(t *testing.T) {
	w, queue, _ := newTestWorker(t)

	// Only the first Start touches the queue.
	queue.EXPECT().RequeueOrphans(gomock.Any()).Return(0, nil).Times(1)
	queue.EXPECT().Dequeue(gomock.Any()).Return(uuid.Nil, nil).AnyTimes()

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	require.NoError(t, w.Start(context.Background()))
}

func TestWorker_ExecutesAndCompletesClaim(t *testing.T) {
	w, queue, executor := newTestWorker(t)

	deliveryID := uuid.New()
	var mu sync.Mutex
	completed := false

	queue.EXPECT().RequeueOrphans(gomock.Any()).Return(0, nil)
	gomock.InOrder(
		queue.EXPECT().Dequeue(gomock.Any()).Return(deliveryID, nil),
		queue.EXPECT().Dequeue(gomock.Any()).Return(uuid.Nil, nil).AnyTimes(),
	)
	executor.EXPECT().Execute(gomock.Any(), deliveryID).Return(nil)
	queue.EXPECT().Complete(gomock.Any(), deliveryID).
		DoAndReturn(func(context.Context, uuid.UUID) error {
			mu.Lock()
			completed = true
			mu.Unlock()
			return nil
		})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return completed
	})
}

func TestWorker_CompletesClaimEvenWhenExecutionFails(t *testing.T) {
	w, queue, executor := newTestWorker(t)

	deliveryID := uuid.New()
	var mu sync.Mutex
	completed := false

	queue.EXPECT().RequeueOrphans(gomock.Any()).Return(0, nil)
	gomock.InOrder(
		queue.EXPECT().Dequeue(gomock.Any()).Return(deliveryID, nil),
		queue.EXPECT().Dequeue(gomock.Any()).Return(uuid.Nil, nil).AnyTimes(),
	)
	executor.EXPECT().Execute(gomock.Any(), deliveryID).Return(errors.New("boom"))
	queue.EXPECT().Complete(gomock.Any(), deliveryID).
		DoAndReturn(func(context.Context, uuid.UUID) error {
			mu.Lock()
			completed = true
			mu.Unlock()
			return nil
		})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return completed
	})
}

func TestWorker_SurvivesDequeueErrors(t *testing.T) {
	w, queue, executor := newTestWorker(t)

	deliveryID := uuid.New()
	var mu sync.Mutex
	completed := false

	queue.EXPECT().RequeueOrphans(gomock.Any()).Return(0, nil)
	gomock.InOrder(
		queue.EXPECT().Dequeue(gomock.Any()).
			Return(uuid.Nil, apperror.ErrQueueUnavailable(errors.New("redis blip"))),
		queue.EXPECT().Dequeue(gomock.Any()).Return(deliveryID, nil),
		queue.EXPECT().Dequeue(gomock.Any()).Return(uuid.Nil, nil).AnyTimes(),
	)
	executor.EXPECT().Execute(gomock.Any(), deliveryID).Return(nil)
	queue.EXPECT().Complete(gomock.Any(), deliveryID).
		DoAndReturn(func(context.Context, uuid.UUID) error {
			mu.Lock()
			completed = true
			mu.Unlock()
			return nil
		})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return completed
	})
}

func TestWorker_StopHaltsPolling(t *testing.T) {
	w, queue, _ := newTestWorker(t)

	var mu sync.Mutex
	ticks := 0

	queue.EXPECT().RequeueOrphans(gomock.Any()).Return(0, nil)
	queue.EXPECT().Dequeue(gomock.Any()).
		DoAndReturn(func(context.Context) (uuid.UUID, error) {
			mu.Lock()
			ticks++
			mu.Unlock()
			return uuid.Nil, nil
		}).AnyTimes()

	require.NoError(t, w.Start(context.Background()))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks > 0
	})

	w.Stop()
	assert.False(t, w.Running())

	// No further dequeues once the loop has drained its stop signal.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	after := ticks
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.LessOrEqual(t, ticks, after+1)
	mu.Unlock()
}

func TestWorker_ContextCancelStops(t *testing.T) {
	w, queue, _ := newTestWorker(t)

	queue.EXPECT().RequeueOrphans(gomock.Any()).Return(0, nil)
	queue.EXPECT().Dequeue(gomock.Any()).Return(uuid.Nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	waitFor(t, func() bool { return !w.Running() })
}

func TestWorker_Status(t *testing.T) {
	w, queue, _ := newTestWorker(t)

	queue.EXPECT().Depth(gomock.Any()).Return(int64(4), nil)
	queue.EXPECT().InFlightCount(gomock.Any()).Return(int64(1), nil)

	status, err := w.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, int64(4), status.QueueDepth)
	assert.Equal(t, int64(1), status.InFlightCount)
}

func TestWorker_Status_QueueDown(t *testing.T) {
	w, queue, _ := newTestWorker(t)

	queue.EXPECT().Depth(gomock.Any()).
		Return(int64(0), apperror.ErrQueueUnavailable(errors.New("redis down")))

	_, err := w.Status(context.Background())
	assert.Error(t, err)
}
