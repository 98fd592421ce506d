package models

// BookingSubmission mirrors the body of POST /bookings on the booking API.
// Guest fields are appended by the caller.
type BookingSubmission struct {
	RoomID       string `json:"roomId"`
	HotelID      string `json:"hotelId"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate,omitempty"`
	CheckInTime  string `json:"checkInTime,omitempty"`
	BookHours    int    `json:"bookHours,omitempty"`
	BookingType  string `json:"bookingType"`
}

// ExtensionSubmission mirrors the body of PUT /bookings/{id}/extend.
// It never carries a cost: pricing is recomputed server-side.
type ExtensionSubmission struct {
	BookingID       string `json:"-"`
	NewCheckOutDate string `json:"newCheckOutDate,omitempty"`
	NewCheckOutTime string `json:"newCheckOutTime,omitempty"`
	BookHour        int    `json:"bookHour,omitempty"`
	Extension       bool   `json:"extension"`
}
