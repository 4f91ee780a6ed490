package dto

import (
	"time"

	"go-reminder-api/modules/reminder/entity"
)

// ReminderResponse is the persisted reminder record exposed for
// observability and debugging.
type ReminderResponse struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	EventID           string    `json:"event_id"`
	Kind              string    `json:"kind"`
	ScheduledTime     time.Time `json:"scheduled_time"`
	Status            string    `json:"status"`
	TravelTimeSeconds *int      `json:"travel_time_seconds,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func ToReminderResponse(r *entity.Reminder) *ReminderResponse {
	return &ReminderResponse{
		ID:                r.ID.String(),
		UserID:            r.UserID.String(),
		EventID:           r.EventID.String(),
		Kind:              string(r.Kind),
		ScheduledTime:     r.ScheduledTime,
		Status:            string(r.Status),
		TravelTimeSeconds: r.TravelTimeSeconds,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func ToReminderResponses(reminders []entity.Reminder) []ReminderResponse {
	result := make([]ReminderResponse, 0, len(reminders))
	for i := range reminders {
		result = append(result, *ToReminderResponse(&reminders[i]))
	}
	return result
}
