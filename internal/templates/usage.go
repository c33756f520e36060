package templates

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/pkg/queue"
)

// UsageRecorder records one instantiation of a template. Record must not block the read
// path and must not report failure to it.
type UsageRecorder interface {
	Record(ctx context.Context, templateID, caller uuid.UUID)
}

// Incrementer applies a usage increment to the store.
type Incrementer interface {
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

// Enqueuer hands a usage increment to the background worker.
type Enqueuer interface {
	EnqueueTemplateUsage(ctx context.Context, payload queue.TemplateUsagePayload) error
}

const defaultUsageTimeout = 2 * time.Second

// asyncRecorder runs fn detached from the request with a bounded deadline.
type asyncRecorder struct {
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func (a *asyncRecorder) run(ctx context.Context, templateID uuid.UUID, fn func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Warn("template usage not recorded", zap.String("template_id", templateID.String()), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight recordings finish.
func (a *asyncRecorder) Wait() { a.wg.Wait() }

func (a *asyncRecorder) init(timeout time.Duration, logger *zap.Logger) {
	if timeout <= 0 {
		timeout = defaultUsageTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a.timeout = timeout
	a.logger = logger
}

// DirectRecorder increments the counter from a background goroutine.
type DirectRecorder struct {
	asyncRecorder
	store Incrementer
}

// NewDirectRecorder creates a recorder that writes straight to the store.
func NewDirectRecorder(store Incrementer, timeout time.Duration, logger *zap.Logger) *DirectRecorder {
	d := &DirectRecorder{store: store}
	d.init(timeout, logger)
	return d
}

// Record implements UsageRecorder.
func (d *DirectRecorder) Record(ctx context.Context, templateID, _ uuid.UUID) {
	d.run(ctx, templateID, func(ctx context.Context) error {
		return d.store.IncrementUsage(ctx, templateID)
	})
}

// QueueRecorder enqueues a usage job for cmd/worker.
type QueueRecorder struct {
	asyncRecorder
	queue Enqueuer
}

// NewQueueRecorder creates a recorder backed by the job queue.
func NewQueueRecorder(q Enqueuer, timeout time.Duration, logger *zap.Logger) *QueueRecorder {
	r := &QueueRecorder{queue: q}
	r.init(timeout, logger)
	return r
}

// Record implements UsageRecorder.
func (r *QueueRecorder) Record(ctx context.Context, templateID, caller uuid.UUID) {
	r.run(ctx, templateID, func(ctx context.Context) error {
		return r.queue.EnqueueTemplateUsage(ctx, queue.TemplateUsagePayload{TemplateID: templateID, UserID: caller})
	})
}
