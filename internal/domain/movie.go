package domain

import "time"

// DateLayout is the calendar-date format used for release dates on the wire.
const DateLayout = "2006-01-02"

// Movie represents the canonical movie entity in the database/service.
// AverageRating is nil while the movie has no reviews.
type Movie struct {
	ID            string
	Name          string
	ReleaseDate   time.Time
	AverageRating *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
