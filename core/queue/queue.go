package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-reminder-api/core/config"
	"go-reminder-api/core/constants"
	"go-reminder-api/core/logger"

	"github.com/hibiken/asynq"
)

// MinDelay is the floor applied to every schedule call. A job whose computed
// fire time is already past is still enqueued, never invoked synchronously:
// the queue stays the single source of truth for whether a job has fired.
const MinDelay = time.Second

// Scheduler is the delayed-execution facility shared by the reminder engine
// and the dispatcher. Schedule with an existing job id replaces the pending
// job; it never duplicates it.
type Scheduler interface {
	Schedule(ctx context.Context, jobID, taskType string, payload any, delay time.Duration) error
	ScheduleRepeating(jobID, taskType string, payload any, every time.Duration) error
	Cancel(ctx context.Context, jobID string) error
}

// Queue is the Redis-backed Scheduler implementation. It must be constructed
// once at startup and shared by reference; Close releases the connections.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	periodic  *asynq.Scheduler

	mu      sync.Mutex
	entries map[string]string // repeating jobID -> registered entry id
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func New(cfg config.RedisConfig) *Queue {
	opt := RedisOpt(cfg)
	return &Queue{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		periodic:  asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: asynqLogger{}}),
		entries:   make(map[string]string),
	}
}

// Schedule enqueues taskType to run after delay under the given job id.
// Any pending job with the same id is dropped first, so re-issuing the same
// schedule is a replace, not an add.
func (q *Queue) Schedule(ctx context.Context, jobID, taskType string, payload any, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", jobID, err)
	}

	if err := q.remove(jobID); err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.TaskID(jobID),
		asynq.Queue(constants.QueueReminders),
		asynq.ProcessIn(ClampDelay(delay)),
		asynq.MaxRetry(constants.DeliveryMaxRetry),
	}

	_, err = q.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Lost a race with a concurrent schedule for the same key; the other
		// enqueue won and the at-most-one invariant holds.
		logger.Warn("Queue:Schedule: job id conflict, keeping existing job", "jobId", jobID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", jobID, err)
	}
	return nil
}

// ScheduleRepeating registers a periodic job. Re-registering the same job id
// replaces the previous registration.
func (q *Queue) ScheduleRepeating(jobID, taskType string, payload any, every time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", jobID, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if entryID, ok := q.entries[jobID]; ok {
		if err := q.periodic.Unregister(entryID); err != nil {
			logger.Warn("Queue:ScheduleRepeating: unregister previous entry", "jobId", jobID, "error", err)
		}
		delete(q.entries, jobID)
	}

	entryID, err := q.periodic.Register(
		RepeatSpec(every),
		asynq.NewTask(taskType, data),
		asynq.Queue(constants.QueueDefault),
	)
	if err != nil {
		return fmt.Errorf("register repeating %s: %w", jobID, err)
	}
	q.entries[jobID] = entryID
	return nil
}

// Cancel drops a pending job. A job that is absent, or that has already left
// the queue for execution, is not an error; dispatch-time revalidation is the
// safety net for that race.
func (q *Queue) Cancel(ctx context.Context, jobID string) error {
	return q.remove(jobID)
}

func (q *Queue) remove(jobID string) error {
	err := q.inspector.DeleteTask(constants.QueueReminders, jobID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
		return nil
	default:
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
}

// Start launches the periodic entry runner. The consumer itself lives in
// queue.Server.
func (q *Queue) Start() error {
	return q.periodic.Start()
}

func (q *Queue) Close() error {
	q.periodic.Shutdown()
	if err := q.inspector.Close(); err != nil {
		logger.Warn("Queue:Close: inspector", "error", err)
	}
	return q.client.Close()
}

// ClampDelay enforces the minimum positive delay.
func ClampDelay(d time.Duration) time.Duration {
	if d < MinDelay {
		return MinDelay
	}
	return d
}

// RepeatSpec converts an interval to the scheduler's "@every" syntax.
func RepeatSpec(every time.Duration) string {
	if every < time.Second {
		every = time.Second
	}
	return "@every " + every.String()
}
