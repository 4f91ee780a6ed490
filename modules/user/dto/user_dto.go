package dto

import (
	"time"

	"go-reminder-api/modules/user/entity"
)

// ===================== Request DTOs =====================

type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"required"`
	Longitude float64 `json:"longitude" validate:"required"`
}

type SetPushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ===================== Response DTOs =====================

type UserResponse struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	HasPushToken bool      `json:"has_push_token"`
	CreatedAt    time.Time `json:"created_at"`
}

type LocationResponse struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`

	// ReminderDegraded is set when the location was recorded but one or more
	// "time to leave" reminders could not be scheduled.
	ReminderDegraded bool `json:"reminder_degraded,omitempty"`
}

func ToUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:           u.ID.String(),
		DisplayName:  u.DisplayName,
		HasPushToken: u.HasPushToken(),
		CreatedAt:    u.CreatedAt,
	}
}
