package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
	"github.com/Clark-Hu/movie-reviews-api/internal/logging"
)

// Recompute recalculates and persists the average rating of movieID from its
// current review set and returns it (nil when there are no reviews). For a
// movie that does not exist nothing is written and no error is returned.
func (s *Service) Recompute(ctx context.Context, movieID string) (*float64, error) {
	var average *float64
	err := s.uow.WithinTx(ctx, func(st Stores) error {
		var err error
		average, err = s.recompute(ctx, st, movieID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return average, nil
}

// recompute must run inside a transaction. The movie row lock serialises
// concurrent recomputes of the same movie, so the last one to commit reads a
// review set that includes every earlier committed change.
func (s *Service) recompute(ctx context.Context, st Stores, movieID string) (*float64, error) {
	exists, err := st.Movies.LockForUpdate(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("lock movie %s: %w", movieID, err)
	}

	ratings, err := st.Reviews.RatingsForMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("load ratings for movie %s: %w", movieID, err)
	}
	average := domain.AverageRating(ratings)

	logger := logging.FromContext(ctx, s.logger)
	if !exists {
		logger.Debug("recompute skipped for unknown movie",
			zap.String("movie_id", movieID), zap.Int("reviews", len(ratings)))
		return average, nil
	}

	if _, err := st.Movies.SetAverageRating(ctx, movieID, average); err != nil {
		return nil, fmt.Errorf("store average rating for movie %s: %w", movieID, err)
	}

	fields := []zap.Field{zap.String("movie_id", movieID), zap.Int("reviews", len(ratings))}
	if average != nil {
		fields = append(fields, zap.Float64("average_rating", *average))
	}
	logger.Debug("average rating recomputed", fields...)
	return average, nil
}
