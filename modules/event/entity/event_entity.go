package entity

import (
	"time"

	"go-reminder-api/core/entity"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusScheduled  EventStatus = "scheduled"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusCancelled  EventStatus = "cancelled"
)

// Event is a calendar event. Coordinates are optional; location-based
// reminders only apply to events that carry them.
type Event struct {
	Slug        string      `db:"slug" json:"slug"`
	Title       string      `db:"title" json:"title"`
	Location    *string     `db:"location" json:"location,omitempty"`
	Latitude    *float64    `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64    `db:"longitude" json:"longitude,omitempty"`
	StartTime   time.Time   `db:"start_time" json:"start_time"`
	EndTime     time.Time   `db:"end_time" json:"end_time"`
	Status      EventStatus `db:"status" json:"status"`
	CreatedByID uuid.UUID   `db:"created_by_id" json:"created_by_id"`

	// AssigneeIDs is loaded from the event_assignees join table.
	AssigneeIDs []uuid.UUID `db:"-" json:"assignee_ids"`

	entity.BaseEntity
}

func (e *Event) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// ParticipantIDs returns the creator plus assignees, de-duplicated.
func (e *Event) ParticipantIDs() []uuid.UUID {
	seen := map[uuid.UUID]struct{}{e.CreatedByID: {}}
	ids := []uuid.UUID{e.CreatedByID}
	for _, id := range e.AssigneeIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
