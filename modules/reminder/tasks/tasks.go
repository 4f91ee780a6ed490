package tasks

import "github.com/google/uuid"

// Task types routed by the queue consumer.
const (
	TypeTimeReminder     = "reminder:time"
	TypeLocationReminder = "reminder:location"
	TypeReconcile        = "reminder:reconcile"
)

// TimeReminderPayload is carried by the single shared job per event. The
// participant fan-out happens at dispatch time from fresh state, so the
// payload stays small no matter how many assignees the event has.
type TimeReminderPayload struct {
	EventID       uuid.UUID `json:"event_id"`
	OffsetSeconds int       `json:"offset_seconds"`
}

// LocationReminderPayload identifies one user's "time to leave" job. Anything
// mutable (scheduled time, token, event state) is re-read at dispatch.
type LocationReminderPayload struct {
	EventID           uuid.UUID `json:"event_id"`
	UserID            uuid.UUID `json:"user_id"`
	TravelTimeSeconds int       `json:"travel_time_seconds"`
}

// ReconcileJobID is the fixed id of the periodic reconciler registration.
const ReconcileJobID = "reminder:reconcile"

// TimeJobID is the deterministic job key for the shared time-based reminder
// of an event. At most one live job exists per key.
func TimeJobID(eventID uuid.UUID) string {
	return eventID.String() + ":time"
}

// LocationJobID is the deterministic job key for one user's location-based
// reminder for an event.
func LocationJobID(eventID, userID uuid.UUID) string {
	return eventID.String() + ":location:" + userID.String()
}
