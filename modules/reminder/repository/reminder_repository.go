package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-reminder-api/core/database"
	"go-reminder-api/core/logger"
	"go-reminder-api/modules/reminder/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReminderRepositoryInterface is pure persistence for reminder rows. The
// uniqueness constraint on (user_id, event_id, kind) is enforced here; no
// business rules live in this layer.
type ReminderRepositoryInterface interface {
	Upsert(ctx context.Context, reminder *entity.Reminder) error
	Find(ctx context.Context, userID, eventID uuid.UUID, kind entity.ReminderKind) (*entity.Reminder, error)
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
	DeleteByEventExcludingUsers(ctx context.Context, eventID uuid.UUID, kind entity.ReminderKind, keep []uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.Reminder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Reminder, error)
	ListPending(ctx context.Context) ([]entity.Reminder, error)
	UpdateStatus(ctx context.Context, userID, eventID uuid.UUID, kind entity.ReminderKind, status entity.ReminderStatus) error
	UpdateStatusByEvent(ctx context.Context, eventID uuid.UUID, kind entity.ReminderKind, status entity.ReminderStatus) error
}

type ReminderRepository struct {
	db database.IDatabase
}

func NewReminderRepository(db database.IDatabase) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Upsert inserts the row or, when the (user, event, kind) triple already
// exists, rewrites its scheduled time, status and travel time in place.
func (r *ReminderRepository) Upsert(ctx context.Context, reminder *entity.Reminder) error {
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	now := time.Now()
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = now
	}
	reminder.UpdatedAt = now

	query := `
		INSERT INTO reminders (id, user_id, event_id, kind, scheduled_time, status, travel_time_seconds, created_at, updated_at)
		VALUES (:id, :user_id, :event_id, :kind, :scheduled_time, :status, :travel_time_seconds, :created_at, :updated_at)
		ON CONFLICT (user_id, event_id, kind) DO UPDATE SET
			scheduled_time = EXCLUDED.scheduled_time,
			status = EXCLUDED.status,
			travel_time_seconds = EXCLUDED.travel_time_seconds,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, reminder)
	if err != nil {
		logger.Error("ReminderRepository:Upsert:Error:", err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&reminder.ID)
	}
	return nil
}

func (r *ReminderRepository) Find(ctx context.Context, userID, eventID uuid.UUID, kind entity.ReminderKind) (*entity.Reminder, error) {
	var reminder entity.Reminder
	query := `SELECT * FROM reminders WHERE user_id = $1 AND event_id = $2 AND kind = $3`
	err := r.db.GetContext(ctx, &reminder, query, userID, eventID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("ReminderRepository:Find:Error:", err)
		return nil, err
	}
	return &reminder, nil
}

func (r *ReminderRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE event_id = $1`, eventID)
	if err != nil {
		logger.Error("ReminderRepository:DeleteByEvent:Error:", err)
		return err
	}
	return nil
}

// DeleteByEventExcludingUsers removes the event's rows of the given kind for
// every user not in keep. Run after a participant change so rows of removed
// users do not linger as pending.
func (r *ReminderRepository) DeleteByEventExcludingUsers(ctx context.Context, eventID uuid.UUID, kind entity.ReminderKind, keep []uuid.UUID) error {
	if len(keep) == 0 {
		err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE event_id = $1 AND kind = $2`, eventID, kind)
		if err != nil {
			logger.Error("ReminderRepository:DeleteByEventExcludingUsers:Error:", err)
			return err
		}
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM reminders WHERE event_id = ? AND kind = ? AND user_id NOT IN (?)`, eventID, kind, keep)
	if err != nil {
		return err
	}
	query = r.db.SQLx().Rebind(query)

	if err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("ReminderRepository:DeleteByEventExcludingUsers:Error:", err)
		return err
	}
	return nil
}

func (r *ReminderRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.Reminder, error) {
	var reminders []entity.Reminder
	query := `SELECT * FROM reminders WHERE event_id = $1 ORDER BY scheduled_time`
	err := r.db.SelectContext(ctx, &reminders, query, eventID)
	if err != nil {
		logger.Error("ReminderRepository:ListByEvent:Error:", err)
		return nil, err
	}
	return reminders, nil
}

func (r *ReminderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Reminder, error) {
	var reminders []entity.Reminder
	query := `SELECT * FROM reminders WHERE user_id = $1 ORDER BY scheduled_time`
	err := r.db.SelectContext(ctx, &reminders, query, userID)
	if err != nil {
		logger.Error("ReminderRepository:ListByUser:Error:", err)
		return nil, err
	}
	return reminders, nil
}

// ListPending returns every pending reminder, due or not. The reconciler uses
// it to restore lost jobs after a crash.
func (r *ReminderRepository) ListPending(ctx context.Context) ([]entity.Reminder, error) {
	var reminders []entity.Reminder
	query := `SELECT * FROM reminders WHERE status = $1 ORDER BY scheduled_time`
	err := r.db.SelectContext(ctx, &reminders, query, entity.StatusPending)
	if err != nil {
		logger.Error("ReminderRepository:ListPending:Error:", err)
		return nil, err
	}
	return reminders, nil
}

func (r *ReminderRepository) UpdateStatus(ctx context.Context, userID, eventID uuid.UUID, kind entity.ReminderKind, status entity.ReminderStatus) error {
	query := `UPDATE reminders SET status = $1, updated_at = $2 WHERE user_id = $3 AND event_id = $4 AND kind = $5`
	err := r.db.ExecContext(ctx, query, status, time.Now(), userID, eventID, kind)
	if err != nil {
		logger.Error("ReminderRepository:UpdateStatus:Error:", err)
		return err
	}
	return nil
}

func (r *ReminderRepository) UpdateStatusByEvent(ctx context.Context, eventID uuid.UUID, kind entity.ReminderKind, status entity.ReminderStatus) error {
	query := `UPDATE reminders SET status = $1, updated_at = $2 WHERE event_id = $3 AND kind = $4`
	err := r.db.ExecContext(ctx, query, status, time.Now(), eventID, kind)
	if err != nil {
		logger.Error("ReminderRepository:UpdateStatusByEvent:Error:", err)
		return err
	}
	return nil
}
