package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueTemplateUsage is the Redis list key for template usage jobs.
	QueueTemplateUsage = "worker:template_usage"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// dequeueWait bounds one BLPOP so shutdown is observed.
	dequeueWait = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeTemplateUsage JobType = "template_usage"
)

// TemplateUsagePayload asks the worker to bump a template's usage counter once.
type TemplateUsagePayload struct {
	TemplateID uuid.UUID `json:"template_id"`
	UserID     uuid.UUID `json:"user_id"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// NewJob wraps payload in an envelope of type t.
func NewJob(t JobType, payload interface{}) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DecodeJob parses a raw list entry.
func DecodeJob(raw string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	if job.Type == "" {
		return nil, errors.New("decode job: missing type")
	}
	return &job, nil
}

// EnqueueTemplateUsage enqueues a template usage job.
func (q *Queue) EnqueueTemplateUsage(ctx context.Context, payload TemplateUsagePayload) error {
	job, err := NewJob(JobTypeTemplateUsage, payload)
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueueTemplateUsage, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued template usage job", zap.String("job_id", job.ID), zap.String("template_id", payload.TemplateID.String()))
	return nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available, the wait elapses, or ctx is done.
// A nil job with a nil error means nothing was ready.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, dequeueWait, QueueTemplateUsage).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	job, err := DecodeJob(result[1])
	if err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return job, nil
}

// NextDestination reports where a failed job goes after its attempt counter is bumped.
func NextDestination(attempt int) string {
	if attempt >= MaxRetries {
		return QueueDLQ
	}
	return QueueTemplateUsage
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	dest := NextDestination(job.Attempt)
	if err := q.push(ctx, dest, job); err != nil {
		q.logger.Error("requeue failed", zap.Error(err), zap.String("job_id", job.ID), zap.String("queue", dest))
		return err
	}
	if dest == QueueDLQ {
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
