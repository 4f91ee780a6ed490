package service

import (
	"context"
	"time"

	"go-reminder-api/core/errors"
	"go-reminder-api/core/logger"
	"go-reminder-api/core/utils"
	"go-reminder-api/modules/event/dto"
	"go-reminder-api/modules/event/entity"
	"go-reminder-api/modules/event/repository"
	reminderservice "go-reminder-api/modules/reminder/service"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// EventService handles event CRUD and feeds the reminder engine's inbound
// triggers on every lifecycle change.
type EventService struct {
	repo   repository.EventRepositoryInterface
	engine reminderservice.ReminderEngineInterface
}

type EventServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError)
	GetMyEvents(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError)
	Update(ctx context.Context, eventID, userID uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError)
	Cancel(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError
	Delete(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError
}

func NewEventService(repo repository.EventRepositoryInterface, engine reminderservice.ReminderEngineInterface) EventServiceInterface {
	return &EventService{repo: repo, engine: engine}
}

func (s *EventService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	if req.Title == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Title is required", nil)
	}
	if req.StartTime.IsZero() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Start time is required", nil)
	}

	endTime := req.EndTime
	if endTime.IsZero() {
		endTime = req.StartTime.Add(time.Hour)
	}

	event := &entity.Event{
		Slug:        slug.Make(req.Title) + "-" + utils.GenerateID(),
		Title:       req.Title,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		StartTime:   req.StartTime,
		EndTime:     endTime,
		Status:      entity.EventStatusScheduled,
		CreatedByID: userID,
		AssigneeIDs: parseAssigneeIDs(req.AssigneeIDs),
	}
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	if req.Location != "" {
		event.Location = &req.Location
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create event", err)
	}
	if err := s.repo.ReplaceAssignees(ctx, event.ID, event.AssigneeIDs); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save assignees", err)
	}

	resp := dto.ToEventResponse(event)
	resp.ReminderDegraded = s.notifyEngine(ctx, event)
	return resp, nil
}

func (s *EventService) GetByID(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return dto.ToEventResponse(event), nil
}

func (s *EventService) GetMyEvents(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError) {
	events, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list events", err)
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		events[i].AssigneeIDs, _ = s.repo.GetAssigneeIDs(ctx, events[i].ID)
		result = append(result, *dto.ToEventResponse(&events[i]))
	}
	return result, nil
}

func (s *EventService) Update(ctx context.Context, eventID, userID uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if event.CreatedByID != userID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Not authorized", nil)
	}
	if event.Status == entity.EventStatusCancelled {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Cannot update a cancelled event", nil)
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Location != nil {
		event.Location = req.Location
	}
	if req.Latitude != nil {
		event.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		event.Longitude = req.Longitude
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update event", err)
	}
	if req.AssigneeIDs != nil {
		event.AssigneeIDs = parseAssigneeIDs(*req.AssigneeIDs)
		if err := s.repo.ReplaceAssignees(ctx, event.ID, event.AssigneeIDs); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save assignees", err)
		}
	}

	resp := dto.ToEventResponse(event)
	resp.ReminderDegraded = s.notifyEngine(ctx, event)
	return resp, nil
}

func (s *EventService) Cancel(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if event.CreatedByID != userID {
		return errors.NewAppError(errors.ErrForbidden, "Not authorized", nil)
	}

	if err := s.repo.UpdateStatus(ctx, eventID, entity.EventStatusCancelled); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to cancel event", err)
	}
	if appErr := s.engine.OnEventCancelledOrDeleted(ctx, eventID, false); appErr != nil {
		logger.Error("EventService:Cancel:Engine:Error:", appErr)
	}
	return nil
}

func (s *EventService) Delete(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if event.CreatedByID != userID {
		return errors.NewAppError(errors.ErrForbidden, "Not authorized", nil)
	}

	// Clear jobs and reminder rows first; the engine needs the rows to find
	// the per-user location job keys.
	if appErr := s.engine.OnEventCancelledOrDeleted(ctx, eventID, true); appErr != nil {
		logger.Error("EventService:Delete:Engine:Error:", appErr)
	}
	if err := s.repo.Delete(ctx, eventID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to delete event", err)
	}
	return nil
}

// notifyEngine runs the create/update trigger. A scheduling failure degrades
// the background reminder but never fails the CRUD operation itself.
func (s *EventService) notifyEngine(ctx context.Context, event *entity.Event) bool {
	appErr := s.engine.OnEventCreatedOrUpdated(ctx, event)
	if appErr == nil {
		return false
	}
	logger.Error("EventService:notifyEngine:Error:", appErr)
	return true
}

func parseAssigneeIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
