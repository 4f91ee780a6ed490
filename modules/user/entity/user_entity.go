package entity

import (
	"go-reminder-api/core/entity"

	"github.com/google/uuid"
)

type User struct {
	DisplayName string  `db:"display_name" json:"display_name"`
	PushToken   *string `db:"push_token" json:"push_token,omitempty"`
	entity.BaseEntity
}

func (u *User) HasPushToken() bool {
	return u.PushToken != nil && *u.PushToken != ""
}

// UserToken pairs a user with their registered device token, used by the
// dispatcher to map delivery failures back to the owning user.
type UserToken struct {
	UserID uuid.UUID `db:"id"`
	Token  string    `db:"push_token"`
}
