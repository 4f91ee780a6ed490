package service

import (
	"context"
	"testing"
	"time"

	"go-reminder-api/core/errors"
	evententity "go-reminder-api/modules/event/entity"
	reminderentity "go-reminder-api/modules/reminder/entity"
	"go-reminder-api/modules/user/dto"
	"go-reminder-api/modules/user/entity"
	"go-reminder-api/modules/user/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetTokensByIDs(_ context.Context, ids []uuid.UUID) ([]entity.UserToken, error) {
	var out []entity.UserToken
	for _, id := range ids {
		if u, ok := f.users[id]; ok && u.HasPushToken() {
			out = append(out, entity.UserToken{UserID: id, Token: *u.PushToken})
		}
	}
	return out, nil
}

func (f *fakeUserRepo) SetPushToken(_ context.Context, id uuid.UUID, token string) error {
	if u, ok := f.users[id]; ok {
		u.PushToken = &token
	}
	return nil
}

func (f *fakeUserRepo) ClearPushToken(_ context.Context, id uuid.UUID) error {
	if u, ok := f.users[id]; ok {
		u.PushToken = nil
	}
	return nil
}

type fakeLocationCache struct {
	locations map[uuid.UUID]*repository.UserLocation
}

func newFakeLocationCache() *fakeLocationCache {
	return &fakeLocationCache{locations: make(map[uuid.UUID]*repository.UserLocation)}
}

func (f *fakeLocationCache) Set(_ context.Context, userID uuid.UUID, lat, lng float64) error {
	f.locations[userID] = &repository.UserLocation{Latitude: lat, Longitude: lng, ReportedAt: time.Now()}
	return nil
}

func (f *fakeLocationCache) Get(_ context.Context, userID uuid.UUID) (*repository.UserLocation, error) {
	return f.locations[userID], nil
}

type locationTrigger struct {
	userID uuid.UUID
	lat    float64
	lng    float64
}

type fakeEngine struct {
	triggers []locationTrigger
	degraded bool
}

func (f *fakeEngine) OnEventCreatedOrUpdated(_ context.Context, _ *evententity.Event) *errors.AppError {
	return nil
}

func (f *fakeEngine) OnEventCancelledOrDeleted(_ context.Context, _ uuid.UUID, _ bool) *errors.AppError {
	return nil
}

func (f *fakeEngine) OnUserLocationUpdated(_ context.Context, userID uuid.UUID, lat, lng float64) *errors.AppError {
	f.triggers = append(f.triggers, locationTrigger{userID: userID, lat: lat, lng: lng})
	if f.degraded {
		return errors.NewAppError(errors.ErrScheduleDegraded, "degraded", nil)
	}
	return nil
}

func (f *fakeEngine) GetByEvent(_ context.Context, _ uuid.UUID) ([]reminderentity.Reminder, *errors.AppError) {
	return nil, nil
}

func (f *fakeEngine) GetByUser(_ context.Context, _ uuid.UUID) ([]reminderentity.Reminder, *errors.AppError) {
	return nil, nil
}

func seedUser(repo *fakeUserRepo) uuid.UUID {
	user := &entity.User{DisplayName: "Alex"}
	user.ID = uuid.New()
	repo.users[user.ID] = user
	return user.ID
}

func TestUpdateLocation_StoresAndTriggersEngine(t *testing.T) {
	repo := newFakeUserRepo()
	cache := newFakeLocationCache()
	engine := &fakeEngine{}
	svc := NewUserService(repo, cache, engine)
	userID := seedUser(repo)

	resp, appErr := svc.UpdateLocation(context.Background(), userID, &dto.UpdateLocationRequest{
		Latitude:  52.52,
		Longitude: 13.405,
	})
	require.Nil(t, appErr)
	assert.False(t, resp.ReminderDegraded)
	assert.False(t, resp.ReportedAt.IsZero())

	require.NotNil(t, cache.locations[userID])
	assert.Equal(t, 52.52, cache.locations[userID].Latitude)

	require.Len(t, engine.triggers, 1)
	assert.Equal(t, userID, engine.triggers[0].userID)
	assert.Equal(t, 13.405, engine.triggers[0].lng)
}

func TestUpdateLocation_RejectsOutOfRangeCoordinates(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), newFakeLocationCache(), &fakeEngine{})

	for _, req := range []*dto.UpdateLocationRequest{
		{Latitude: 91, Longitude: 0},
		{Latitude: -91, Longitude: 0},
		{Latitude: 0, Longitude: 181},
		{Latitude: 0, Longitude: -181},
	} {
		_, appErr := svc.UpdateLocation(context.Background(), uuid.New(), req)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
	}
}

func TestUpdateLocation_DegradedSchedulingStillSucceeds(t *testing.T) {
	repo := newFakeUserRepo()
	cache := newFakeLocationCache()
	svc := NewUserService(repo, cache, &fakeEngine{degraded: true})
	userID := seedUser(repo)

	resp, appErr := svc.UpdateLocation(context.Background(), userID, &dto.UpdateLocationRequest{
		Latitude:  52.52,
		Longitude: 13.405,
	})
	require.Nil(t, appErr)
	assert.True(t, resp.ReminderDegraded)
	assert.NotNil(t, cache.locations[userID])
}

func TestGetLocation(t *testing.T) {
	repo := newFakeUserRepo()
	cache := newFakeLocationCache()
	svc := NewUserService(repo, cache, &fakeEngine{})
	userID := seedUser(repo)

	_, appErr := svc.GetLocation(context.Background(), userID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)

	require.NoError(t, cache.Set(context.Background(), userID, 52.52, 13.405))
	resp, appErr := svc.GetLocation(context.Background(), userID)
	require.Nil(t, appErr)
	assert.Equal(t, 52.52, resp.Latitude)
	assert.Equal(t, 13.405, resp.Longitude)
}

func TestPushTokenLifecycle(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newFakeLocationCache(), &fakeEngine{})
	userID := seedUser(repo)

	appErr := svc.SetPushToken(context.Background(), userID, "")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)

	require.Nil(t, svc.SetPushToken(context.Background(), userID, "ExponentPushToken[aaa]"))
	assert.True(t, repo.users[userID].HasPushToken())

	require.Nil(t, svc.ClearPushToken(context.Background(), userID))
	assert.False(t, repo.users[userID].HasPushToken())
}
