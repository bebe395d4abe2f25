package domain

import "time"

// Review is a single reviewer's rating of a movie. MovieID is a plain reference;
// the store does not enforce that the movie exists.
type Review struct {
	ID           string
	MovieID      string
	ReviewerName *string
	Rating       float64
	Comments     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AverageRating returns the arithmetic mean of ratings, or nil for an empty set.
func AverageRating(ratings []float64) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	avg := sum / float64(len(ratings))
	return &avg
}
