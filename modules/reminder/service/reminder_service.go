package service

import (
	"context"
	"time"

	"go-reminder-api/core/config"
	"go-reminder-api/core/errors"
	"go-reminder-api/core/logger"
	"go-reminder-api/core/queue"
	"go-reminder-api/core/travel"
	evententity "go-reminder-api/modules/event/entity"
	"go-reminder-api/modules/reminder/entity"
	"go-reminder-api/modules/reminder/repository"
	"go-reminder-api/modules/reminder/tasks"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// EventSource is the engine's read view of the event store.
type EventSource interface {
	ListUpcomingWithLocation(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]evententity.Event, error)
}

// ReminderEngineInterface exposes the inbound triggers plus the observability
// reads over persisted reminder rows.
type ReminderEngineInterface interface {
	OnEventCreatedOrUpdated(ctx context.Context, event *evententity.Event) *errors.AppError
	OnEventCancelledOrDeleted(ctx context.Context, eventID uuid.UUID, deleted bool) *errors.AppError
	OnUserLocationUpdated(ctx context.Context, userID uuid.UUID, lat, lng float64) *errors.AppError
	GetByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.Reminder, *errors.AppError)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]entity.Reminder, *errors.AppError)
}

// ReminderEngine decides when reminders fire and keeps the stored decision,
// the reminder rows and the scheduled jobs in sync. Correctness across
// concurrent triggers rests on the scheduler's replace-on-same-id contract,
// not on engine-side locking.
type ReminderEngine struct {
	reminders repository.ReminderRepositoryInterface
	events    EventSource
	scheduler queue.Scheduler
	travel    travel.Estimator
	clock     clock.Clock
	cfg       config.ReminderConfig
}

func NewReminderEngine(
	reminders repository.ReminderRepositoryInterface,
	events EventSource,
	scheduler queue.Scheduler,
	estimator travel.Estimator,
	clk clock.Clock,
	cfg config.ReminderConfig,
) ReminderEngineInterface {
	return &ReminderEngine{
		reminders: reminders,
		events:    events,
		scheduler: scheduler,
		travel:    estimator,
		clock:     clk,
		cfg:       cfg,
	}
}

// OnEventCreatedOrUpdated recomputes the shared time-based reminder for an
// event: one pending row per current participant as the auditable record, and
// a single job keyed "{eventID}:time". The participant fan-out happens at
// dispatch time. A schedule failure is returned as ErrScheduleDegraded so the
// triggering CRUD operation can still succeed.
func (s *ReminderEngine) OnEventCreatedOrUpdated(ctx context.Context, event *evententity.Event) *errors.AppError {
	if event.Status == evententity.EventStatusCancelled {
		return nil
	}

	scheduledTime := event.StartTime.Add(-s.cfg.TimeOffset)

	for _, userID := range event.ParticipantIDs() {
		reminder := &entity.Reminder{
			UserID:        userID,
			EventID:       event.ID,
			Kind:          entity.KindTime,
			ScheduledTime: scheduledTime,
			Status:        entity.StatusPending,
		}
		if err := s.reminders.Upsert(ctx, reminder); err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to store time reminder", err)
		}
	}

	// Rows of users no longer on the event must not survive the update.
	if err := s.reminders.DeleteByEventExcludingUsers(ctx, event.ID, entity.KindTime, event.ParticipantIDs()); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to prune removed participants", err)
	}

	payload := tasks.TimeReminderPayload{
		EventID:       event.ID,
		OffsetSeconds: int(s.cfg.TimeOffset.Seconds()),
	}
	delay := scheduledTime.Sub(s.clock.Now())
	if err := s.scheduler.Schedule(ctx, tasks.TimeJobID(event.ID), tasks.TypeTimeReminder, payload, delay); err != nil {
		logger.Error("ReminderEngine:OnEventCreatedOrUpdated:Schedule:Error:", err)
		return errors.NewAppError(errors.ErrScheduleDegraded, "Event saved but reminder scheduling is degraded", err)
	}

	logger.Info("Time reminder scheduled",
		"eventId", event.ID,
		"scheduledTime", scheduledTime,
		"participants", len(event.ParticipantIDs()),
	)
	return nil
}

// OnEventCancelledOrDeleted removes every live job keyed to the event. When
// deleted is true the reminder rows are removed as well; a cancelled event
// keeps its rows for inspection.
func (s *ReminderEngine) OnEventCancelledOrDeleted(ctx context.Context, eventID uuid.UUID, deleted bool) *errors.AppError {
	if err := s.scheduler.Cancel(ctx, tasks.TimeJobID(eventID)); err != nil {
		logger.Error("ReminderEngine:OnEventCancelledOrDeleted:CancelTime:Error:", err)
	}

	rows, err := s.reminders.ListByEvent(ctx, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to list reminders for event", err)
	}
	for _, row := range rows {
		if row.Kind != entity.KindLocation {
			continue
		}
		if err := s.scheduler.Cancel(ctx, tasks.LocationJobID(eventID, row.UserID)); err != nil {
			logger.Error("ReminderEngine:OnEventCancelledOrDeleted:CancelLocation:Error:", err)
		}
	}

	if deleted {
		if err := s.reminders.DeleteByEvent(ctx, eventID); err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to delete reminders for event", err)
		}
	}

	logger.Info("Reminders cleared for event", "eventId", eventID, "deleted", deleted)
	return nil
}

// OnUserLocationUpdated recomputes the "time to leave" moment for each of the
// user's upcoming located events. A failed travel-time lookup skips that one
// event and never aborts the batch. A recomputed time within the debounce
// threshold of the stored one leaves both the row and the job untouched.
func (s *ReminderEngine) OnUserLocationUpdated(ctx context.Context, userID uuid.UUID, lat, lng float64) *errors.AppError {
	now := s.clock.Now()
	events, err := s.events.ListUpcomingWithLocation(ctx, userID, now, now.Add(s.cfg.Lookahead))
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to list upcoming events", err)
	}

	origin := travel.Coordinates{Latitude: lat, Longitude: lng}
	degraded := false

	for i := range events {
		event := &events[i]

		travelTime, err := s.travel.GetTravelTime(ctx, origin, travel.Coordinates{
			Latitude:  *event.Latitude,
			Longitude: *event.Longitude,
		})
		if err != nil {
			logger.Warn("ReminderEngine:OnUserLocationUpdated: travel time unavailable, skipping event",
				"eventId", event.ID, "userId", userID, "error", err)
			continue
		}

		leaveTime := event.StartTime.Add(-travelTime)

		existing, err := s.reminders.Find(ctx, userID, event.ID, entity.KindLocation)
		if err != nil {
			logger.Error("ReminderEngine:OnUserLocationUpdated:Find:Error:", err)
			continue
		}

		if existing != nil {
			diff := existing.ScheduledTime.Sub(leaveTime)
			if diff < 0 {
				diff = -diff
			}
			if diff <= s.cfg.DebounceThreshold {
				// Anti-jitter: the stored decision is close enough.
				continue
			}
		}

		seconds := int(travelTime.Seconds())
		reminder := &entity.Reminder{
			UserID:            userID,
			EventID:           event.ID,
			Kind:              entity.KindLocation,
			ScheduledTime:     leaveTime,
			Status:            entity.StatusPending,
			TravelTimeSeconds: &seconds,
		}
		if existing != nil {
			reminder.BaseEntity = existing.BaseEntity
		}
		if err := s.reminders.Upsert(ctx, reminder); err != nil {
			logger.Error("ReminderEngine:OnUserLocationUpdated:Upsert:Error:", err)
			continue
		}

		payload := tasks.LocationReminderPayload{
			EventID:           event.ID,
			UserID:            userID,
			TravelTimeSeconds: seconds,
		}
		// A past-due leave time still gets enqueued; the scheduler clamps the
		// delay to its minimum.
		delay := leaveTime.Sub(now)
		if err := s.scheduler.Schedule(ctx, tasks.LocationJobID(event.ID, userID), tasks.TypeLocationReminder, payload, delay); err != nil {
			logger.Error("ReminderEngine:OnUserLocationUpdated:Schedule:Error:", err)
			degraded = true
			continue
		}

		logger.Info("Location reminder scheduled",
			"eventId", event.ID,
			"userId", userID,
			"leaveTime", leaveTime,
			"travelSeconds", seconds,
		)
	}

	if degraded {
		return errors.NewAppError(errors.ErrScheduleDegraded, "Location processed but some reminders could not be scheduled", nil)
	}
	return nil
}

func (s *ReminderEngine) GetByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.Reminder, *errors.AppError) {
	rows, err := s.reminders.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list reminders", err)
	}
	return rows, nil
}

func (s *ReminderEngine) GetByUser(ctx context.Context, userID uuid.UUID) ([]entity.Reminder, *errors.AppError) {
	rows, err := s.reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list reminders", err)
	}
	return rows, nil
}
