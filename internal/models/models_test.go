package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookedDatesWireFormat(t *testing.T) {
	raw := `{
		"bookedDates": ["2025-03-10", "2025-03-12"],
		"timeBasedBookings": [
			{"date": "2025-03-10", "checkInTime": "14:00:00", "checkOutTime": "16:00:00", "status": "CONFIRMED"}
		]
	}`

	var got BookedDates
	require.NoError(t, json.Unmarshal([]byte(raw), &got))

	assert.Equal(t, []string{"2025-03-10", "2025-03-12"}, got.BookedDates)
	require.Len(t, got.TimeBasedBookings, 1)
	assert.Equal(t, "14:00:00", got.TimeBasedBookings[0].CheckInTime)
	assert.Equal(t, "CONFIRMED", got.TimeBasedBookings[0].Status)
}

func TestExtensionSubmissionOmitsBookingID(t *testing.T) {
	sub := ExtensionSubmission{BookingID: "b-1", NewCheckOutDate: "2025-03-11", Extension: true}

	data, err := json.Marshal(sub)
	require.NoError(t, err)

	assert.JSONEq(t, `{"newCheckOutDate":"2025-03-11","extension":true}`, string(data))
}
