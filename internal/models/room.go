package models

// Room is a catalog entry describing a bookable room.
type Room struct {
	ID            string `yaml:"id" json:"id"`
	HotelID       string `yaml:"hotel_id" json:"hotel_id"`
	Name          string `yaml:"name" json:"name"`
	HourlyEnabled bool   `yaml:"hourly_enabled" json:"hourly_enabled"`
	IsActive      bool   `yaml:"is_active" json:"is_active"`
}
