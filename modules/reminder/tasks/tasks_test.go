package tasks

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJobIDsAreDeterministic(t *testing.T) {
	eventID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	userID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	assert.Equal(t, "11111111-2222-3333-4444-555555555555:time", TimeJobID(eventID))
	assert.Equal(t,
		"11111111-2222-3333-4444-555555555555:location:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		LocationJobID(eventID, userID))

	// Same inputs, same key: scheduling twice must target the same job.
	assert.Equal(t, TimeJobID(eventID), TimeJobID(eventID))
	assert.Equal(t, LocationJobID(eventID, userID), LocationJobID(eventID, userID))
	assert.NotEqual(t, LocationJobID(eventID, userID), LocationJobID(eventID, uuid.New()))
}
