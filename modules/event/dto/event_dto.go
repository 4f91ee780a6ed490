package dto

import (
	"time"

	"go-reminder-api/modules/event/entity"
)

// ===================== Request DTOs =====================

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time"`
	AssigneeIDs []string  `json:"assignee_ids"`
}

type UpdateEventRequest struct {
	Title       string     `json:"title"`
	Location    *string    `json:"location"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	AssigneeIDs *[]string  `json:"assignee_ids"`
}

// ===================== Response DTOs =====================

type EventResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	CreatedByID string    `json:"created_by_id"`
	AssigneeIDs []string  `json:"assignee_ids"`
	CreatedAt   time.Time `json:"created_at"`

	// ReminderDegraded is set when the event was saved but its background
	// reminder could not be scheduled.
	ReminderDegraded bool `json:"reminder_degraded,omitempty"`
}

func ToEventResponse(e *entity.Event) *EventResponse {
	resp := &EventResponse{
		ID:          e.ID.String(),
		Slug:        e.Slug,
		Title:       e.Title,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Status:      string(e.Status),
		CreatedByID: e.CreatedByID.String(),
		AssigneeIDs: make([]string, 0, len(e.AssigneeIDs)),
		CreatedAt:   e.CreatedAt,
	}
	if e.Location != nil {
		resp.Location = *e.Location
	}
	for _, id := range e.AssigneeIDs {
		resp.AssigneeIDs = append(resp.AssigneeIDs, id.String())
	}
	return resp
}
