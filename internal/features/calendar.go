package features

import "time"

// Calendar holds the fields derived from the combined date and time.
// Day is derived but is not a record column.
type Calendar struct {
	Minute    int `json:"minute"`
	Hour      int `json:"hour"`
	Day       int `json:"day"`
	DayOfWeek int `json:"day_of_week"`
	Month     int `json:"month"`
	Year      int `json:"year"`
}

// DeriveCalendar splits t into calendar fields. DayOfWeek counts from
// Monday = 0.
func DeriveCalendar(t time.Time) Calendar {
	return Calendar{
		Minute:    t.Minute(),
		Hour:      t.Hour(),
		Day:       t.Day(),
		DayOfWeek: (int(t.Weekday()) + 6) % 7,
		Month:     int(t.Month()),
		Year:      t.Year(),
	}
}

// Combine joins a calendar date and a wall-clock time into one timestamp.
func Combine(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.UTC)
}
