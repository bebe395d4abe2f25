// Package catalog implements the movie and review operations on top of the
// document store, including upkeep of each movie's derived average rating.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
	"github.com/Clark-Hu/movie-reviews-api/internal/logging"
	"github.com/Clark-Hu/movie-reviews-api/internal/repository"
)

// Options tunes Service behaviour.
type Options struct {
	// RecomputeOnReviewUpdate refreshes averageRating after a review update.
	// When false only review create and delete trigger a recompute.
	RecomputeOnReviewUpdate bool
	Logger                  *zap.Logger
}

// Service orchestrates CRUD over movies and reviews.
type Service struct {
	uow    UnitOfWork
	opts   Options
	logger *zap.Logger
}

// New constructs a Service over the given unit of work.
func New(uow UnitOfWork, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{uow: uow, opts: opts, logger: logger.Named("catalog")}
}

// ListMovies returns every movie.
func (s *Service) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	return s.uow.Stores().Movies.List(ctx)
}

// GetMovie returns one movie.
func (s *Service) GetMovie(ctx context.Context, id string) (domain.Movie, error) {
	return s.uow.Stores().Movies.GetByID(ctx, id)
}

// CreateMovie stores a new movie with an unset average rating.
func (s *Service) CreateMovie(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, error) {
	return s.uow.Stores().Movies.Create(ctx, params)
}

// UpdateMovie applies a partial update. The average rating is not part of the
// update surface.
func (s *Service) UpdateMovie(ctx context.Context, id string, params repository.MovieUpdateParams) (domain.Movie, error) {
	return s.uow.Stores().Movies.Update(ctx, id, params)
}

// DeleteMovie removes a movie and then every review referencing it, atomically.
// Reviews pointing at id are removed even when no movie row exists. It returns
// the number of reviews removed, or ErrNotFound when neither a movie nor any
// review matched.
func (s *Service) DeleteMovie(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := s.uow.WithinTx(ctx, func(st Stores) error {
		movieFound := true
		if err := st.Movies.Delete(ctx, id); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			movieFound = false
		}
		n, err := st.Reviews.DeleteByMovie(ctx, id)
		if err != nil {
			return fmt.Errorf("delete reviews of movie %s: %w", id, err)
		}
		if !movieFound && n == 0 {
			return repository.ErrNotFound
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx, s.logger).Info("movie deleted",
		zap.String("movie_id", id), zap.Int64("reviews_deleted", removed))
	return removed, nil
}

// ListReviews returns the reviews matching filter.
func (s *Service) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	return s.uow.Stores().Reviews.List(ctx, filter)
}

// GetReview returns one review.
func (s *Service) GetReview(ctx context.Context, id string) (domain.Review, error) {
	return s.uow.Stores().Reviews.GetByID(ctx, id)
}

// CreateReview stores a review and recomputes its movie's average rating in the
// same transaction. The movie does not have to exist.
func (s *Service) CreateReview(ctx context.Context, params repository.ReviewCreateParams) (domain.Review, error) {
	var review domain.Review
	err := s.uow.WithinTx(ctx, func(st Stores) error {
		created, err := st.Reviews.Create(ctx, params)
		if err != nil {
			return err
		}
		review = created
		_, err = s.recompute(ctx, st, created.MovieID)
		return err
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// UpdateReview applies a partial update. The average rating is only refreshed
// when Options.RecomputeOnReviewUpdate is set, in which case both the previous
// and the new movie are recomputed.
func (s *Service) UpdateReview(ctx context.Context, id string, params repository.ReviewUpdateParams) (domain.Review, error) {
	if !s.opts.RecomputeOnReviewUpdate {
		return s.uow.Stores().Reviews.Update(ctx, id, params)
	}

	var review domain.Review
	err := s.uow.WithinTx(ctx, func(st Stores) error {
		before, err := st.Reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated, err := st.Reviews.Update(ctx, id, params)
		if err != nil {
			return err
		}
		review = updated
		movieIDs := []string{updated.MovieID}
		if before.MovieID != updated.MovieID {
			// Lock in a stable order so two opposite moves cannot deadlock.
			movieIDs = append(movieIDs, before.MovieID)
			sort.Strings(movieIDs)
		}
		for _, movieID := range movieIDs {
			if _, err := s.recompute(ctx, st, movieID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// DeleteReview removes a review and recomputes the average rating of the movie
// it referenced.
func (s *Service) DeleteReview(ctx context.Context, id string) (domain.Review, error) {
	var review domain.Review
	err := s.uow.WithinTx(ctx, func(st Stores) error {
		deleted, err := st.Reviews.Delete(ctx, id)
		if err != nil {
			return err
		}
		review = deleted
		_, err = s.recompute(ctx, st, deleted.MovieID)
		return err
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
