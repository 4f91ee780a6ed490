package worker

import (
	"context"

	"go-reminder-api/core/config"
	"go-reminder-api/core/logger"
	"go-reminder-api/core/queue"
	evententity "go-reminder-api/modules/event/entity"
	"go-reminder-api/modules/reminder/entity"
	"go-reminder-api/modules/reminder/repository"
	"go-reminder-api/modules/reminder/tasks"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Reconciler periodically restores the pending-row/live-job invariant. A
// crash between the store write and the enqueue leaves a pending reminder
// with no job; re-issuing Schedule for every pending row is safe because
// schedule-by-id replaces rather than duplicates. Rows are never trusted for
// liveness or fire time: the event is re-read, gone or cancelled events are
// skipped, and the shared time job is derived from the event's current start.
type Reconciler struct {
	reminders repository.ReminderRepositoryInterface
	events    EventReader
	scheduler queue.Scheduler
	clock     clock.Clock
	cfg       config.ReminderConfig
}

func NewReconciler(
	reminders repository.ReminderRepositoryInterface,
	events EventReader,
	scheduler queue.Scheduler,
	clk clock.Clock,
	cfg config.ReminderConfig,
) *Reconciler {
	return &Reconciler{
		reminders: reminders,
		events:    events,
		scheduler: scheduler,
		clock:     clk,
		cfg:       cfg,
	}
}

// Register wires the handler and the periodic trigger.
func (r *Reconciler) Register(srv *queue.Server) {
	srv.HandleFunc(tasks.TypeReconcile, r.Handle)
}

// Start registers the repeating reconcile job.
func (r *Reconciler) Start(q queue.Scheduler) error {
	return q.ScheduleRepeating(tasks.ReconcileJobID, tasks.TypeReconcile, nil, r.cfg.ReconcileEvery)
}

func (r *Reconciler) Handle(ctx context.Context, _ *asynq.Task) error {
	rows, err := r.reminders.ListPending(ctx)
	if err != nil {
		return err
	}

	now := r.clock.Now()
	liveEvents := make(map[uuid.UUID]*evententity.Event)
	timeEvents := make(map[uuid.UUID]struct{})
	scheduled := 0

	// A cancelled event keeps its pending rows, but its jobs were cancelled
	// on purpose and must not come back.
	live := func(eventID uuid.UUID) *evententity.Event {
		if event, ok := liveEvents[eventID]; ok {
			return event
		}
		event, err := r.events.GetByID(ctx, eventID)
		if err != nil {
			logger.Error("Reconciler:Handle:GetEvent:Error:", err)
			event = nil
		}
		if event != nil && event.Status == evententity.EventStatusCancelled {
			event = nil
		}
		liveEvents[eventID] = event
		return event
	}

	for _, row := range rows {
		switch row.Kind {
		case entity.KindTime:
			// One shared job per event regardless of how many rows exist.
			timeEvents[row.EventID] = struct{}{}
		case entity.KindLocation:
			if live(row.EventID) == nil {
				continue
			}
			travelSeconds := 0
			if row.TravelTimeSeconds != nil {
				travelSeconds = *row.TravelTimeSeconds
			}
			payload := tasks.LocationReminderPayload{
				EventID:           row.EventID,
				UserID:            row.UserID,
				TravelTimeSeconds: travelSeconds,
			}
			jobID := tasks.LocationJobID(row.EventID, row.UserID)
			if err := r.scheduler.Schedule(ctx, jobID, tasks.TypeLocationReminder, payload, row.ScheduledTime.Sub(now)); err != nil {
				logger.Error("Reconciler:Handle:ScheduleLocation:Error:", err)
				continue
			}
			scheduled++
		}
	}

	for eventID := range timeEvents {
		event := live(eventID)
		if event == nil {
			continue
		}
		// The fire time comes from the event's current start, never from a
		// row: rows can predate a reschedule.
		fireTime := event.StartTime.Add(-r.cfg.TimeOffset)
		payload := tasks.TimeReminderPayload{
			EventID:       eventID,
			OffsetSeconds: int(r.cfg.TimeOffset.Seconds()),
		}
		if err := r.scheduler.Schedule(ctx, tasks.TimeJobID(eventID), tasks.TypeTimeReminder, payload, fireTime.Sub(now)); err != nil {
			logger.Error("Reconciler:Handle:ScheduleTime:Error:", err)
			continue
		}
		scheduled++
	}

	if scheduled > 0 {
		logger.Info("Reconciler restored reminder jobs", "count", scheduled)
	}
	return nil
}
