package models

import "time"

// PublicHoliday is a named date on which no classes are expanded.
type PublicHoliday struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// HolidayFilter limits holidays to an inclusive date range.
type HolidayFilter struct {
	From string
	To   string
}

// CreateHolidayRequest registers a holiday.
type CreateHolidayRequest struct {
	Name string `json:"name" validate:"required"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}
