package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/pkg/queue"
)

// JobSource is the queue the processor drains.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// UsageStore applies template usage increments.
type UsageStore interface {
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

// TemplateUsageProcessor applies queued template usage increments.
type TemplateUsageProcessor struct {
	store   UsageStore
	queue   JobSource
	logger  *zap.Logger
	backoff time.Duration
}

// NewTemplateUsageProcessor creates a template usage processor.
func NewTemplateUsageProcessor(store UsageStore, q JobSource, logger *zap.Logger) *TemplateUsageProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateUsageProcessor{store: store, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one template usage job.
func (p *TemplateUsageProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeTemplateUsage {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.TemplateUsagePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.TemplateID == uuid.Nil {
		return fmt.Errorf("job %s has no template id", job.ID)
	}
	if err := p.store.IncrementUsage(ctx, payload.TemplateID); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	p.logger.Debug("template usage recorded", zap.String("template_id", payload.TemplateID.String()))
	return nil
}

func (p *TemplateUsageProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *TemplateUsageProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("template usage worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}
