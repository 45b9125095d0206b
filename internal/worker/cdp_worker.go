package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/personalisation-service/internal/cdp"
	"github.com/spec-kit/personalisation-service/internal/observability"
)

const popErrorBackoff = time.Second

// DeliveryWorker drains queued CDP calls and sends them to the CDP.
// A call that fails to deliver is logged and dropped.
type DeliveryWorker struct {
	queue   cdp.Queue
	key     string
	client  cdp.Client
	workers int
	wait    time.Duration
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
	wg      sync.WaitGroup
}

// DeliveryDependencies configures a DeliveryWorker.
type DeliveryDependencies struct {
	Queue   cdp.Queue
	Key     string
	Client  cdp.Client
	Workers int
	Wait    time.Duration
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewDeliveryWorker constructs the worker.
func NewDeliveryWorker(deps DeliveryDependencies) *DeliveryWorker {
	if deps.Workers <= 0 {
		deps.Workers = 1
	}
	if deps.Wait <= 0 {
		deps.Wait = 5 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &DeliveryWorker{
		queue:   deps.Queue,
		key:     deps.Key,
		client:  deps.Client,
		workers: deps.Workers,
		wait:    deps.Wait,
		timeout: deps.Timeout,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
}

// Start launches the delivery goroutines. They stop when ctx is cancelled.
func (w *DeliveryWorker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.run(ctx, id)
		}(i)
	}
	w.logger.Info("cdp delivery started", zap.Int("workers", w.workers), zap.String("queue", w.key))
}

// Wait blocks until every delivery goroutine has returned.
func (w *DeliveryWorker) Wait() {
	w.wg.Wait()
}

func (w *DeliveryWorker) run(ctx context.Context, id int) {
	for ctx.Err() == nil {
		call, err := cdp.Pop(ctx, w.queue, w.key, w.wait)
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("cdp queue pop failed", zap.Int("worker", id), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(popErrorBackoff):
			}
			continue
		}
		w.deliver(ctx, call)
	}
}

func (w *DeliveryWorker) deliver(ctx context.Context, call cdp.Call) {
	callCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if err := cdp.Deliver(callCtx, w.client, call); err != nil {
		w.metrics.RecordCDPFailure(string(call.Kind))
		w.logger.Warn("cdp delivery failed",
			zap.String("call", string(call.Kind)),
			zap.Time("queued_at", call.At),
			zap.Error(err))
		return
	}
	w.logger.Debug("cdp call delivered", zap.String("call", string(call.Kind)))
}
