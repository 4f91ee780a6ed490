package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-reminder-api/core/config"
	coreentity "go-reminder-api/core/entity"
	apperrors "go-reminder-api/core/errors"
	"go-reminder-api/core/travel"
	evententity "go-reminder-api/modules/event/entity"
	"go-reminder-api/modules/reminder/entity"
	"go-reminder-api/modules/reminder/tasks"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduledJob struct {
	taskType string
	payload  any
	delay    time.Duration
}

// fakeScheduler keeps live jobs in a map keyed by job id, mirroring the
// replace-on-same-id contract of the real queue.
type fakeScheduler struct {
	jobs          map[string]scheduledJob
	scheduleCalls int
	failNext      error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[string]scheduledJob)}
}

func (f *fakeScheduler) Schedule(_ context.Context, jobID, taskType string, payload any, delay time.Duration) error {
	f.scheduleCalls++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.jobs[jobID] = scheduledJob{taskType: taskType, payload: payload, delay: delay}
	return nil
}

func (f *fakeScheduler) ScheduleRepeating(jobID, taskType string, payload any, _ time.Duration) error {
	f.jobs[jobID] = scheduledJob{taskType: taskType, payload: payload}
	return nil
}

func (f *fakeScheduler) Cancel(_ context.Context, jobID string) error {
	delete(f.jobs, jobID)
	return nil
}

type fakeReminderRepo struct {
	rows map[string]*entity.Reminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{rows: make(map[string]*entity.Reminder)}
}

func rowKey(userID, eventID uuid.UUID, kind entity.ReminderKind) string {
	return fmt.Sprintf("%s|%s|%s", userID, eventID, kind)
}

func (f *fakeReminderRepo) Upsert(_ context.Context, reminder *entity.Reminder) error {
	key := rowKey(reminder.UserID, reminder.EventID, reminder.Kind)
	if existing, ok := f.rows[key]; ok {
		reminder.ID = existing.ID
	} else if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	cp := *reminder
	f.rows[key] = &cp
	return nil
}

func (f *fakeReminderRepo) Find(_ context.Context, userID, eventID uuid.UUID, kind entity.ReminderKind) (*entity.Reminder, error) {
	if row, ok := f.rows[rowKey(userID, eventID, kind)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeReminderRepo) DeleteByEvent(_ context.Context, eventID uuid.UUID) error {
	for key, row := range f.rows {
		if row.EventID == eventID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeReminderRepo) DeleteByEventExcludingUsers(_ context.Context, eventID uuid.UUID, kind entity.ReminderKind, keep []uuid.UUID) error {
	keepSet := make(map[uuid.UUID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for key, row := range f.rows {
		if row.EventID != eventID || row.Kind != kind {
			continue
		}
		if _, ok := keepSet[row.UserID]; !ok {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeReminderRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]entity.Reminder, error) {
	var out []entity.Reminder
	for _, row := range f.rows {
		if row.EventID == eventID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.Reminder, error) {
	var out []entity.Reminder
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) ListPending(_ context.Context) ([]entity.Reminder, error) {
	var out []entity.Reminder
	for _, row := range f.rows {
		if row.Status == entity.StatusPending {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) UpdateStatus(_ context.Context, userID, eventID uuid.UUID, kind entity.ReminderKind, status entity.ReminderStatus) error {
	if row, ok := f.rows[rowKey(userID, eventID, kind)]; ok {
		row.Status = status
	}
	return nil
}

func (f *fakeReminderRepo) UpdateStatusByEvent(_ context.Context, eventID uuid.UUID, kind entity.ReminderKind, status entity.ReminderStatus) error {
	for _, row := range f.rows {
		if row.EventID == eventID && row.Kind == kind {
			row.Status = status
		}
	}
	return nil
}

type fakeEventSource struct {
	events []evententity.Event
}

func (f *fakeEventSource) ListUpcomingWithLocation(_ context.Context, _ uuid.UUID, from, until time.Time) ([]evententity.Event, error) {
	var out []evententity.Event
	for _, ev := range f.events {
		if ev.StartTime.After(from) && ev.StartTime.Before(until) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeEstimator struct {
	duration time.Duration
	err      error
	calls    int
}

func (f *fakeEstimator) GetTravelTime(_ context.Context, _, _ travel.Coordinates) (time.Duration, error) {
	f.calls++
	return f.duration, f.err
}

func testConfig() config.ReminderConfig {
	return config.ReminderConfig{
		TimeOffset:        15 * time.Minute,
		DebounceThreshold: 5 * time.Minute,
		Lookahead:         24 * time.Hour,
		ReconcileEvery:    5 * time.Minute,
	}
}

func testEvent(start time.Time, assignees ...uuid.UUID) *evententity.Event {
	ev := &evententity.Event{
		Title:       "Team Sync",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Status:      evententity.EventStatusScheduled,
		CreatedByID: uuid.New(),
		AssigneeIDs: assignees,
	}
	ev.ID = uuid.New()
	return ev
}

func locatedEvent(start time.Time, lat, lng float64, userID uuid.UUID) evententity.Event {
	ev := testEvent(start, userID)
	ev.Latitude = &lat
	ev.Longitude = &lng
	return *ev
}

func TestOnEventCreatedOrUpdated_SchedulesOneSharedJob(t *testing.T) {
	mockClock := clock.NewMock()
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	mockClock.Set(now)

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	engine := NewReminderEngine(repo, &fakeEventSource{}, sched, &fakeEstimator{}, mockClock, testConfig())

	assigneeA, assigneeB := uuid.New(), uuid.New()
	event := testEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), assigneeA, assigneeB)

	appErr := engine.OnEventCreatedOrUpdated(context.Background(), event)
	require.Nil(t, appErr)

	// One job shared by all participants, keyed to the event.
	require.Len(t, sched.jobs, 1)
	job, ok := sched.jobs[tasks.TimeJobID(event.ID)]
	require.True(t, ok)
	assert.Equal(t, tasks.TypeTimeReminder, job.taskType)
	assert.Equal(t, 45*time.Minute, job.delay)

	payload, ok := job.payload.(tasks.TimeReminderPayload)
	require.True(t, ok)
	assert.Equal(t, event.ID, payload.EventID)
	assert.Equal(t, 900, payload.OffsetSeconds)

	// One pending row per participant, creator included.
	rows, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	wantTime := time.Date(2025, 1, 10, 9, 45, 0, 0, time.UTC)
	for _, row := range rows {
		assert.Equal(t, entity.KindTime, row.Kind)
		assert.Equal(t, entity.StatusPending, row.Status)
		assert.Equal(t, wantTime, row.ScheduledTime)
	}
}

func TestOnEventCreatedOrUpdated_ReplacesOnUpdate(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	engine := NewReminderEngine(repo, &fakeEventSource{}, sched, &fakeEstimator{}, mockClock, testConfig())

	event := testEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC))
	require.Nil(t, engine.OnEventCreatedOrUpdated(context.Background(), event))

	// The event is rescheduled two hours later; the same trigger fires again.
	event.StartTime = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	require.Nil(t, engine.OnEventCreatedOrUpdated(context.Background(), event))

	require.Len(t, sched.jobs, 1)
	assert.Equal(t, (2*time.Hour)+(45*time.Minute), sched.jobs[tasks.TimeJobID(event.ID)].delay)

	rows, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, time.Date(2025, 1, 10, 11, 45, 0, 0, time.UTC), rows[0].ScheduledTime)
}

func TestOnEventCreatedOrUpdated_PrunesRemovedParticipants(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	engine := NewReminderEngine(repo, &fakeEventSource{}, sched, &fakeEstimator{}, mockClock, testConfig())

	kept, removed := uuid.New(), uuid.New()
	event := testEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), kept, removed)
	require.Nil(t, engine.OnEventCreatedOrUpdated(context.Background(), event))

	rows, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// The removed assignee's row must go away, not linger as pending.
	event.AssigneeIDs = []uuid.UUID{kept}
	require.Nil(t, engine.OnEventCreatedOrUpdated(context.Background(), event))

	rows, err = repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, removed, row.UserID)
	}
}

func TestOnEventCreatedOrUpdated_CancelledEventIsIgnored(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	engine := NewReminderEngine(repo, &fakeEventSource{}, sched, &fakeEstimator{}, mockClock, testConfig())

	event := testEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC))
	event.Status = evententity.EventStatusCancelled

	require.Nil(t, engine.OnEventCreatedOrUpdated(context.Background(), event))
	assert.Empty(t, sched.jobs)
	assert.Empty(t, repo.rows)
}

func TestOnEventCreatedOrUpdated_ScheduleFailureIsDegraded(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	sched.failNext = errors.New("redis down")
	engine := NewReminderEngine(repo, &fakeEventSource{}, sched, &fakeEstimator{}, mockClock, testConfig())

	event := testEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC))
	appErr := engine.OnEventCreatedOrUpdated(context.Background(), event)

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrScheduleDegraded, appErr.Code)

	// The persisted intent survives so the reconciler can recover the job.
	rows, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOnUserLocationUpdated_DebounceAndReschedule(t *testing.T) {
	mockClock := clock.NewMock()
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	mockClock.Set(now)

	userID := uuid.New()
	event := locatedEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), 52.52, 13.405, userID)

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	estimator := &fakeEstimator{duration: 1200 * time.Second}
	engine := NewReminderEngine(repo, &fakeEventSource{events: []evententity.Event{event}}, sched, estimator, mockClock, testConfig())

	// First report: 20 minutes of travel puts leave time at 09:40.
	require.Nil(t, engine.OnUserLocationUpdated(context.Background(), userID, 52.5, 13.4))

	jobID := tasks.LocationJobID(event.ID, userID)
	require.Len(t, sched.jobs, 1)
	assert.Equal(t, tasks.TypeLocationReminder, sched.jobs[jobID].taskType)
	assert.Equal(t, 100*time.Minute, sched.jobs[jobID].delay)

	row, err := repo.Find(context.Background(), userID, event.ID, entity.KindLocation)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 40, 0, 0, time.UTC), row.ScheduledTime)
	require.NotNil(t, row.TravelTimeSeconds)
	assert.Equal(t, 1200, *row.TravelTimeSeconds)
	firstID := row.ID

	// Second report: 50 seconds of drift is inside the debounce threshold, so
	// neither the row nor the job moves.
	estimator.duration = 1150 * time.Second
	require.Nil(t, engine.OnUserLocationUpdated(context.Background(), userID, 52.51, 13.41))

	assert.Equal(t, 1, sched.scheduleCalls)
	row, err = repo.Find(context.Background(), userID, event.ID, entity.KindLocation)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 40, 0, 0, time.UTC), row.ScheduledTime)
	assert.Equal(t, 1200, *row.TravelTimeSeconds)

	// Third report: an hour of travel moves leave time to 09:00, well past the
	// threshold. The row updates in place and the job is replaced.
	estimator.duration = 3600 * time.Second
	require.Nil(t, engine.OnUserLocationUpdated(context.Background(), userID, 52.3, 13.1))

	require.Len(t, sched.jobs, 1)
	assert.Equal(t, 60*time.Minute, sched.jobs[jobID].delay)

	row, err = repo.Find(context.Background(), userID, event.ID, entity.KindLocation)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), row.ScheduledTime)
	assert.Equal(t, 3600, *row.TravelTimeSeconds)
	assert.Equal(t, firstID, row.ID)
}

func TestOnUserLocationUpdated_PastDueLeaveTimeStillSchedules(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 9, 50, 0, 0, time.UTC))

	userID := uuid.New()
	event := locatedEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), 52.52, 13.405, userID)

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	engine := NewReminderEngine(repo, &fakeEventSource{events: []evententity.Event{event}}, sched, &fakeEstimator{duration: 1800 * time.Second}, mockClock, testConfig())

	require.Nil(t, engine.OnUserLocationUpdated(context.Background(), userID, 52.5, 13.4))

	// Leave time 09:30 is already past; the job is enqueued with a negative
	// delay for the queue layer to clamp, never invoked inline.
	job, ok := sched.jobs[tasks.LocationJobID(event.ID, userID)]
	require.True(t, ok)
	assert.Equal(t, -20*time.Minute, job.delay)
}

func TestOnUserLocationUpdated_TravelFailureSkipsEvent(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))

	userID := uuid.New()
	event := locatedEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), 52.52, 13.405, userID)

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	estimator := &fakeEstimator{err: travel.ErrNoRoute}
	engine := NewReminderEngine(repo, &fakeEventSource{events: []evententity.Event{event}}, sched, estimator, mockClock, testConfig())

	// The lookup failure affects only this event and the batch still succeeds.
	require.Nil(t, engine.OnUserLocationUpdated(context.Background(), userID, 52.5, 13.4))
	assert.Equal(t, 1, estimator.calls)
	assert.Empty(t, sched.jobs)
	assert.Empty(t, repo.rows)
}

func TestOnUserLocationUpdated_ScheduleFailureIsDegraded(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))

	userID := uuid.New()
	event := locatedEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), 52.52, 13.405, userID)

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	sched.failNext = errors.New("redis down")
	engine := NewReminderEngine(repo, &fakeEventSource{events: []evententity.Event{event}}, sched, &fakeEstimator{duration: 1200 * time.Second}, mockClock, testConfig())

	appErr := engine.OnUserLocationUpdated(context.Background(), userID, 52.5, 13.4)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrScheduleDegraded, appErr.Code)
}

func TestOnEventCancelledOrDeleted(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))

	userID := uuid.New()
	event := locatedEvent(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), 52.52, 13.405, userID)

	repo := newFakeReminderRepo()
	sched := newFakeScheduler()
	estimator := &fakeEstimator{duration: 1200 * time.Second}
	engine := NewReminderEngine(repo, &fakeEventSource{events: []evententity.Event{event}}, sched, estimator, mockClock, testConfig())

	require.Nil(t, engine.OnEventCreatedOrUpdated(context.Background(), &event))
	require.Nil(t, engine.OnUserLocationUpdated(context.Background(), userID, 52.5, 13.4))
	require.Len(t, sched.jobs, 2)

	// Cancellation drops every live job but keeps the rows for inspection.
	require.Nil(t, engine.OnEventCancelledOrDeleted(context.Background(), event.ID, false))
	assert.Empty(t, sched.jobs)
	rows, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	// Deletion removes the rows as well.
	require.Nil(t, engine.OnEventCancelledOrDeleted(context.Background(), event.ID, true))
	rows, err = repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetByUserAndEvent(t *testing.T) {
	repo := newFakeReminderRepo()
	userID, eventID := uuid.New(), uuid.New()
	seconds := 600
	row := &entity.Reminder{
		UserID:            userID,
		EventID:           eventID,
		Kind:              entity.KindLocation,
		ScheduledTime:     time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		Status:            entity.StatusPending,
		TravelTimeSeconds: &seconds,
	}
	row.BaseEntity = coreentity.BaseEntity{ID: uuid.New()}
	require.NoError(t, repo.Upsert(context.Background(), row))

	engine := NewReminderEngine(repo, &fakeEventSource{}, newFakeScheduler(), &fakeEstimator{}, clock.NewMock(), testConfig())

	byUser, appErr := engine.GetByUser(context.Background(), userID)
	require.Nil(t, appErr)
	assert.Len(t, byUser, 1)

	byEvent, appErr := engine.GetByEvent(context.Background(), eventID)
	require.Nil(t, appErr)
	assert.Len(t, byEvent, 1)

	byOther, appErr := engine.GetByUser(context.Background(), uuid.New())
	require.Nil(t, appErr)
	assert.Empty(t, byOther)
}
