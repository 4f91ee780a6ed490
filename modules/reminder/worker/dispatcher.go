package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go-reminder-api/core/logger"
	"go-reminder-api/core/push"
	"go-reminder-api/core/queue"
	evententity "go-reminder-api/modules/event/entity"
	"go-reminder-api/modules/reminder/entity"
	"go-reminder-api/modules/reminder/repository"
	"go-reminder-api/modules/reminder/tasks"
	userentity "go-reminder-api/modules/user/entity"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// EventReader is the dispatcher's fresh-state view of the event store.
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*evententity.Event, error)
}

// UserReader reads users and manages their device tokens.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userentity.User, error)
	GetTokensByIDs(ctx context.Context, ids []uuid.UUID) ([]userentity.UserToken, error)
	ClearPushToken(ctx context.Context, id uuid.UUID) error
}

// NotificationLog records delivered notifications for the in-app feed.
type NotificationLog interface {
	Record(ctx context.Context, userID uuid.UUID, title, message, kind string, data map[string]any) error
}

// Dispatcher runs at job fire time. Its handlers never trust the captured
// payload for anything mutable: event state, participants and tokens are all
// re-read, which makes re-invocation under the retry policy safe and is the
// authoritative defense against jobs that outlived a cancellation race.
type Dispatcher struct {
	reminders repository.ReminderRepositoryInterface
	events    EventReader
	users     UserReader
	gateway   push.Gateway
	log       NotificationLog
	clock     clock.Clock
}

func NewDispatcher(
	reminders repository.ReminderRepositoryInterface,
	events EventReader,
	users UserReader,
	gateway push.Gateway,
	log NotificationLog,
	clk clock.Clock,
) *Dispatcher {
	return &Dispatcher{
		reminders: reminders,
		events:    events,
		users:     users,
		gateway:   gateway,
		log:       log,
		clock:     clk,
	}
}

// Register wires the dispatcher's handlers into the queue consumer.
func (d *Dispatcher) Register(srv *queue.Server) {
	srv.HandleFunc(tasks.TypeTimeReminder, d.HandleTimeReminder)
	srv.HandleFunc(tasks.TypeLocationReminder, d.HandleLocationReminder)
}

// HandleTimeReminder delivers the shared fixed-offset notice for one event to
// every current participant with a registered token.
func (d *Dispatcher) HandleTimeReminder(ctx context.Context, t *asynq.Task) error {
	var payload tasks.TimeReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal time reminder payload: %v: %w", err, asynq.SkipRetry)
	}

	event, err := d.events.GetByID(ctx, payload.EventID)
	if err != nil {
		return d.retryable(ctx, err, func() { d.markEventFailed(ctx, payload.EventID, entity.KindTime) })
	}
	if event == nil || event.Status == evententity.EventStatusCancelled {
		logger.Info("Time reminder skipped, event gone or cancelled", "eventId", payload.EventID)
		return nil
	}

	if !d.hasPendingForEvent(ctx, payload.EventID, entity.KindTime) {
		logger.Info("Time reminder already dispatched", "eventId", payload.EventID)
		return nil
	}

	userTokens, err := d.users.GetTokensByIDs(ctx, event.ParticipantIDs())
	if err != nil {
		return d.retryable(ctx, err, func() { d.markEventFailed(ctx, payload.EventID, entity.KindTime) })
	}
	if len(userTokens) == 0 {
		logger.Info("Time reminder skipped, no registered tokens", "eventId", payload.EventID)
		// Terminal: leaving the rows pending would have the reconciler
		// re-enqueue this same no-op forever.
		d.markEventFailed(ctx, payload.EventID, entity.KindTime)
		return nil
	}

	offsetMinutes := payload.OffsetSeconds / 60
	body := fmt.Sprintf("Starts in %d minutes", offsetMinutes)
	if event.Location != nil && *event.Location != "" {
		body = fmt.Sprintf("Starts in %d minutes at %s", offsetMinutes, *event.Location)
	}
	data := map[string]any{
		"event_id": event.ID.String(),
		"kind":     string(entity.KindTime),
	}

	tokens := distinctTokens(userTokens)
	results, err := d.gateway.Send(ctx, tokens, event.Title, body, data)
	if err != nil {
		return d.retryable(ctx, err, func() { d.markEventFailed(ctx, payload.EventID, entity.KindTime) })
	}

	d.handleInvalidTokens(ctx, results, userTokens)

	if err := d.reminders.UpdateStatusByEvent(ctx, event.ID, entity.KindTime, entity.StatusSent); err != nil {
		logger.Error("Dispatcher:HandleTimeReminder:MarkSent:Error:", err)
	}
	for _, ut := range userTokens {
		if err := d.log.Record(ctx, ut.UserID, event.Title, body, string(entity.KindTime), data); err != nil {
			logger.Error("Dispatcher:HandleTimeReminder:Log:Error:", err)
		}
	}

	logger.Info("Time reminder delivered", "eventId", event.ID, "recipients", len(tokens))
	return nil
}

// HandleLocationReminder delivers one user's "time to leave" notice, phrasing
// it from the remaining lead time at dispatch.
func (d *Dispatcher) HandleLocationReminder(ctx context.Context, t *asynq.Task) error {
	var payload tasks.LocationReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal location reminder payload: %v: %w", err, asynq.SkipRetry)
	}

	markFailed := func() {
		if err := d.reminders.UpdateStatus(ctx, payload.UserID, payload.EventID, entity.KindLocation, entity.StatusFailed); err != nil {
			logger.Error("Dispatcher:HandleLocationReminder:MarkFailed:Error:", err)
		}
	}

	event, err := d.events.GetByID(ctx, payload.EventID)
	if err != nil {
		return d.retryable(ctx, err, markFailed)
	}
	if event == nil || event.Status == evententity.EventStatusCancelled {
		logger.Info("Location reminder skipped, event gone or cancelled",
			"eventId", payload.EventID, "userId", payload.UserID)
		return nil
	}

	user, err := d.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return d.retryable(ctx, err, markFailed)
	}
	if user == nil || !user.HasPushToken() {
		logger.Info("Location reminder skipped, user gone or tokenless",
			"eventId", payload.EventID, "userId", payload.UserID)
		// Terminal outcome: the row must leave pending or the reconciler
		// re-enqueues it every sweep.
		markFailed()
		return nil
	}

	reminder, err := d.reminders.Find(ctx, payload.UserID, payload.EventID, entity.KindLocation)
	if err != nil {
		return d.retryable(ctx, err, markFailed)
	}
	if reminder == nil || reminder.Status != entity.StatusPending {
		logger.Info("Location reminder skipped, no pending row",
			"eventId", payload.EventID, "userId", payload.UserID)
		return nil
	}

	travelSeconds := payload.TravelTimeSeconds
	if reminder.TravelTimeSeconds != nil {
		travelSeconds = *reminder.TravelTimeSeconds
	}
	travelMinutes := (travelSeconds + 59) / 60

	destination := event.Title
	if event.Location != nil && *event.Location != "" {
		destination = *event.Location
	}

	lead := reminder.ScheduledTime.Sub(d.clock.Now())
	var body string
	if lead <= 0 {
		body = fmt.Sprintf("Leave now! About %d minutes of travel to %s.", travelMinutes, destination)
	} else {
		body = fmt.Sprintf("Leave in %d minutes. About %d minutes of travel to %s.",
			int(lead.Minutes()), travelMinutes, destination)
	}
	data := map[string]any{
		"event_id": event.ID.String(),
		"kind":     string(entity.KindLocation),
	}

	results, err := d.gateway.Send(ctx, []string{*user.PushToken}, event.Title, body, data)
	if err != nil {
		return d.retryable(ctx, err, markFailed)
	}

	if len(results) == 1 && results[0].Invalid {
		// Dead token: cleanup, not a retryable delivery failure. The row is
		// settled as failed so reconciliation converges.
		if err := d.users.ClearPushToken(ctx, user.ID); err != nil {
			logger.Error("Dispatcher:HandleLocationReminder:ClearToken:Error:", err)
		}
		markFailed()
		return nil
	}

	if err := d.reminders.UpdateStatus(ctx, payload.UserID, payload.EventID, entity.KindLocation, entity.StatusSent); err != nil {
		logger.Error("Dispatcher:HandleLocationReminder:MarkSent:Error:", err)
	}
	if err := d.log.Record(ctx, user.ID, event.Title, body, string(entity.KindLocation), data); err != nil {
		logger.Error("Dispatcher:HandleLocationReminder:Log:Error:", err)
	}

	logger.Info("Location reminder delivered", "eventId", event.ID, "userId", user.ID)
	return nil
}

// retryable hands the error to the queue's retry policy; on the final attempt
// the reminder is marked failed first so exhaustion is visible in the store.
func (d *Dispatcher) retryable(ctx context.Context, err error, markFailed func()) error {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		markFailed()
	}
	return err
}

func (d *Dispatcher) markEventFailed(ctx context.Context, eventID uuid.UUID, kind entity.ReminderKind) {
	if err := d.reminders.UpdateStatusByEvent(ctx, eventID, kind, entity.StatusFailed); err != nil {
		logger.Error("Dispatcher:markEventFailed:Error:", err)
	}
}

func (d *Dispatcher) hasPendingForEvent(ctx context.Context, eventID uuid.UUID, kind entity.ReminderKind) bool {
	rows, err := d.reminders.ListByEvent(ctx, eventID)
	if err != nil {
		// On a read failure assume pending; the send path re-reads anyway.
		return true
	}
	for _, row := range rows {
		if row.Kind == kind && row.Status == entity.StatusPending {
			return true
		}
	}
	return false
}

// handleInvalidTokens purges tokens the gateway reported as permanently dead.
func (d *Dispatcher) handleInvalidTokens(ctx context.Context, results []push.Result, userTokens []userentity.UserToken) {
	owners := make(map[string]uuid.UUID, len(userTokens))
	for _, ut := range userTokens {
		owners[ut.Token] = ut.UserID
	}
	for _, res := range results {
		if res.OK {
			continue
		}
		if res.Invalid {
			if userID, ok := owners[res.Token]; ok {
				if err := d.users.ClearPushToken(ctx, userID); err != nil {
					logger.Error("Dispatcher:handleInvalidTokens:Error:", err)
				}
			}
			continue
		}
		logger.Warn("Push delivery rejected for token", "reason", res.Reason)
	}
}

func distinctTokens(userTokens []userentity.UserToken) []string {
	seen := make(map[string]struct{}, len(userTokens))
	tokens := make([]string, 0, len(userTokens))
	for _, ut := range userTokens {
		if _, ok := seen[ut.Token]; ok {
			continue
		}
		seen[ut.Token] = struct{}{}
		tokens = append(tokens, ut.Token)
	}
	return tokens
}
