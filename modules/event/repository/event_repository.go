package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-reminder-api/core/database"
	"go-reminder-api/core/logger"
	"go-reminder-api/modules/event/entity"

	"github.com/google/uuid"
)

type EventRepositoryInterface interface {
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error)
	ListUpcomingWithLocation(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]entity.Event, error)
	Update(ctx context.Context, event *entity.Event) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.EventStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceAssignees(ctx context.Context, eventID uuid.UUID, assigneeIDs []uuid.UUID) error
	GetAssigneeIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
}

type EventRepository struct {
	db database.IDatabase
}

func NewEventRepository(db database.IDatabase) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *entity.Event) error {
	query := `
		INSERT INTO events (id, slug, title, location, latitude, longitude, start_time, end_time, status, created_by_id, created_at, updated_at)
		VALUES (:id, :slug, :title, :location, :latitude, :longitude, :start_time, :end_time, :status, :created_by_id, :created_at, :updated_at)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, event)
	if err != nil {
		logger.Error("EventRepository:Create:Error:", err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&event.ID)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var event entity.Event
	err := r.db.GetContext(ctx, &event, `SELECT * FROM events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("EventRepository:GetByID:Error:", err)
		return nil, err
	}

	event.AssigneeIDs, err = r.GetAssigneeIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error) {
	var events []entity.Event
	query := `
		SELECT DISTINCT e.* FROM events e
		LEFT JOIN event_assignees a ON a.event_id = e.id
		WHERE e.created_by_id = $1 OR a.user_id = $1
		ORDER BY e.start_time
	`
	err := r.db.SelectContext(ctx, &events, query, userID)
	if err != nil {
		logger.Error("EventRepository:ListByUser:Error:", err)
		return nil, err
	}
	return events, nil
}

// ListUpcomingWithLocation returns the user's scheduled events starting in
// [from, until) that carry concrete coordinates. This is the candidate set
// for location-based reminder recomputation.
func (r *EventRepository) ListUpcomingWithLocation(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]entity.Event, error) {
	var events []entity.Event
	query := `
		SELECT DISTINCT e.* FROM events e
		LEFT JOIN event_assignees a ON a.event_id = e.id
		WHERE (e.created_by_id = $1 OR a.user_id = $1)
		  AND e.status = $2
		  AND e.start_time >= $3 AND e.start_time < $4
		  AND e.latitude IS NOT NULL AND e.longitude IS NOT NULL
		ORDER BY e.start_time
	`
	err := r.db.SelectContext(ctx, &events, query, userID, entity.EventStatusScheduled, from, until)
	if err != nil {
		logger.Error("EventRepository:ListUpcomingWithLocation:Error:", err)
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, event *entity.Event) error {
	event.UpdatedAt = time.Now()
	query := `
		UPDATE events SET
			title = :title,
			location = :location,
			latitude = :latitude,
			longitude = :longitude,
			start_time = :start_time,
			end_time = :end_time,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		logger.Error("EventRepository:Update:Error:", err)
		return err
	}
	return nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.EventStatus) error {
	err := r.db.ExecContext(ctx, `UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		logger.Error("EventRepository:UpdateStatus:Error:", err)
		return err
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.ExecContext(ctx, `DELETE FROM event_assignees WHERE event_id = $1`, id); err != nil {
		logger.Error("EventRepository:Delete:Assignees:Error:", err)
		return err
	}
	err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		logger.Error("EventRepository:Delete:Error:", err)
		return err
	}
	return nil
}

func (r *EventRepository) ReplaceAssignees(ctx context.Context, eventID uuid.UUID, assigneeIDs []uuid.UUID) error {
	if err := r.db.ExecContext(ctx, `DELETE FROM event_assignees WHERE event_id = $1`, eventID); err != nil {
		logger.Error("EventRepository:ReplaceAssignees:Delete:Error:", err)
		return err
	}
	for _, userID := range assigneeIDs {
		err := r.db.ExecContext(ctx, `INSERT INTO event_assignees (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, eventID, userID)
		if err != nil {
			logger.Error("EventRepository:ReplaceAssignees:Insert:Error:", err)
			return err
		}
	}
	return nil
}

func (r *EventRepository) GetAssigneeIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM event_assignees WHERE event_id = $1`, eventID)
	if err != nil {
		logger.Error("EventRepository:GetAssigneeIDs:Error:", err)
		return nil, err
	}
	return ids, nil
}
