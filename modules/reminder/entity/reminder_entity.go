package entity

import (
	"time"

	"go-reminder-api/core/entity"

	"github.com/google/uuid"
)

type ReminderKind string

const (
	KindTime     ReminderKind = "time"
	KindLocation ReminderKind = "location"
)

type ReminderStatus string

const (
	StatusPending ReminderStatus = "pending"
	StatusSent    ReminderStatus = "sent"
	StatusFailed  ReminderStatus = "failed"
)

// Reminder is the persisted intent to notify one user about one event at one
// computed time. Unique on (user_id, event_id, kind); recomputation updates
// the row in place.
type Reminder struct {
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	EventID           uuid.UUID      `db:"event_id" json:"event_id"`
	Kind              ReminderKind   `db:"kind" json:"kind"`
	ScheduledTime     time.Time      `db:"scheduled_time" json:"scheduled_time"`
	Status            ReminderStatus `db:"status" json:"status"`
	TravelTimeSeconds *int           `db:"travel_time_seconds" json:"travel_time_seconds,omitempty"`
	entity.BaseEntity
}
