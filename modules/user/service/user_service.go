package service

import (
	"context"

	"go-reminder-api/core/errors"
	"go-reminder-api/core/logger"
	reminderservice "go-reminder-api/modules/reminder/service"
	"go-reminder-api/modules/user/dto"
	"go-reminder-api/modules/user/repository"

	"github.com/google/uuid"
)

// UserService manages profiles, device tokens and location reports. A
// location report feeds the reminder engine's recomputation trigger.
type UserService struct {
	repo      repository.UserRepositoryInterface
	locations repository.LocationCacheInterface
	engine    reminderservice.ReminderEngineInterface
}

type UserServiceInterface interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, *errors.AppError)
	SetPushToken(ctx context.Context, userID uuid.UUID, token string) *errors.AppError
	ClearPushToken(ctx context.Context, userID uuid.UUID) *errors.AppError
	UpdateLocation(ctx context.Context, userID uuid.UUID, req *dto.UpdateLocationRequest) (*dto.LocationResponse, *errors.AppError)
	GetLocation(ctx context.Context, userID uuid.UUID) (*dto.LocationResponse, *errors.AppError)
}

func NewUserService(
	repo repository.UserRepositoryInterface,
	locations repository.LocationCacheInterface,
	engine reminderservice.ReminderEngineInterface,
) UserServiceInterface {
	return &UserService{repo: repo, locations: locations, engine: engine}
}

func (s *UserService) GetMe(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, *errors.AppError) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "User not found", nil)
	}
	return dto.ToUserResponse(user), nil
}

func (s *UserService) SetPushToken(ctx context.Context, userID uuid.UUID, token string) *errors.AppError {
	if token == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "Token is required", nil)
	}
	if err := s.repo.SetPushToken(ctx, userID, token); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to save push token", err)
	}
	return nil
}

func (s *UserService) ClearPushToken(ctx context.Context, userID uuid.UUID) *errors.AppError {
	if err := s.repo.ClearPushToken(ctx, userID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to clear push token", err)
	}
	return nil
}

// UpdateLocation records the report and recomputes the user's location-based
// reminders. Scheduling degradation never fails the report itself.
func (s *UserService) UpdateLocation(ctx context.Context, userID uuid.UUID, req *dto.UpdateLocationRequest) (*dto.LocationResponse, *errors.AppError) {
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Coordinates out of range", nil)
	}

	if err := s.locations.Set(ctx, userID, req.Latitude, req.Longitude); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to store location", err)
	}

	resp := &dto.LocationResponse{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if loc, err := s.locations.Get(ctx, userID); err == nil && loc != nil {
		resp.ReportedAt = loc.ReportedAt
	}

	if appErr := s.engine.OnUserLocationUpdated(ctx, userID, req.Latitude, req.Longitude); appErr != nil {
		logger.Error("UserService:UpdateLocation:Engine:Error:", appErr)
		resp.ReminderDegraded = true
	}
	return resp, nil
}

func (s *UserService) GetLocation(ctx context.Context, userID uuid.UUID) (*dto.LocationResponse, *errors.AppError) {
	loc, err := s.locations.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to read location", err)
	}
	if loc == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "No location on record", nil)
	}
	return &dto.LocationResponse{
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		ReportedAt: loc.ReportedAt,
	}, nil
}
