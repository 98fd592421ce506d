package models

// BookedDates is the payload of GET /rooms/{roomId}/booked-dates on the booking-data service.
type BookedDates struct {
	BookedDates       []string           `json:"bookedDates"`
	TimeBasedBookings []TimeBasedBooking `json:"timeBasedBookings"`
}

// TimeBasedBooking is one hourly reservation as reported by the booking-data service.
type TimeBasedBooking struct {
	Date         string `json:"date"`         // YYYY-MM-DD
	CheckInTime  string `json:"checkInTime"`  // HH:MM or HH:MM:SS
	CheckOutTime string `json:"checkOutTime"` // HH:MM or HH:MM:SS
	Status       string `json:"status"`
}
