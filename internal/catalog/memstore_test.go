package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
	"github.com/Clark-Hu/movie-reviews-api/internal/repository"
)

// memStore is an in-memory UnitOfWork. Transactions are serialised and roll
// back by restoring a snapshot taken when they begin.
type memStore struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	seq     int64
	movies  map[string]domain.Movie
	reviews map[string]domain.Review

	failSetAverage error
	setAverageHits int
}

func newMemStore() *memStore {
	return &memStore{
		movies:  make(map[string]domain.Movie),
		reviews: make(map[string]domain.Review),
	}
}

func (m *memStore) Stores() Stores {
	return Stores{Movies: memMovies{m}, Reviews: memReviews{m}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(Stores) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	movies := make(map[string]domain.Movie, len(m.movies))
	for k, v := range m.movies {
		movies[k] = v
	}
	reviews := make(map[string]domain.Review, len(m.reviews))
	for k, v := range m.reviews {
		reviews[k] = v
	}
	m.mu.Unlock()

	if err := fn(m.Stores()); err != nil {
		m.mu.Lock()
		m.movies, m.reviews = movies, reviews
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) next() time.Time {
	m.seq++
	return time.Unix(0, m.seq)
}

type memMovies struct{ m *memStore }

func (s memMovies) List(ctx context.Context) ([]domain.Movie, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.Movie, 0, len(s.m.movies))
	for _, v := range s.m.movies {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s memMovies) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	movie, ok := s.m.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return movie, nil
}

func (s memMovies) Create(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, error) {
	if strings.TrimSpace(params.Name) == "" || params.ReleaseDate == nil {
		return domain.Movie{}, repository.ErrValidation
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := s.m.next()
	movie := domain.Movie{
		ID:          uuid.NewString(),
		Name:        params.Name,
		ReleaseDate: *params.ReleaseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.m.movies[movie.ID] = movie
	return movie, nil
}

func (s memMovies) Update(ctx context.Context, id string, params repository.MovieUpdateParams) (domain.Movie, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	movie, ok := s.m.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	if params.Name != nil {
		movie.Name = *params.Name
	}
	if params.ReleaseDate != nil {
		movie.ReleaseDate = *params.ReleaseDate
	}
	movie.UpdatedAt = s.m.next()
	s.m.movies[id] = movie
	return movie, nil
}

func (s memMovies) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.m.movies, id)
	return nil
}

func (s memMovies) LockForUpdate(ctx context.Context, id string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	_, ok := s.m.movies[id]
	return ok, nil
}

func (s memMovies) SetAverageRating(ctx context.Context, id string, average *float64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.setAverageHits++
	if s.m.failSetAverage != nil {
		return false, s.m.failSetAverage
	}
	movie, ok := s.m.movies[id]
	if !ok {
		return false, nil
	}
	movie.AverageRating = average
	s.m.movies[id] = movie
	return true, nil
}

type memReviews struct{ m *memStore }

func (s memReviews) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.Review, 0)
	for _, v := range s.m.reviews {
		if filter.MovieID != nil && v.MovieID != *filter.MovieID {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s memReviews) GetByID(ctx context.Context, id string) (domain.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	review, ok := s.m.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	return review, nil
}

func (s memReviews) Create(ctx context.Context, params repository.ReviewCreateParams) (domain.Review, error) {
	if params.MovieID == "" || params.Rating == nil {
		return domain.Review{}, repository.ErrValidation
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := s.m.next()
	review := domain.Review{
		ID:           uuid.NewString(),
		MovieID:      params.MovieID,
		ReviewerName: params.ReviewerName,
		Rating:       *params.Rating,
		Comments:     params.Comments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.m.reviews[review.ID] = review
	return review, nil
}

func (s memReviews) Update(ctx context.Context, id string, params repository.ReviewUpdateParams) (domain.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	review, ok := s.m.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	if params.MovieID != nil {
		review.MovieID = *params.MovieID
	}
	if params.ReviewerName != nil {
		review.ReviewerName = clearable(params.ReviewerName)
	}
	if params.Rating != nil {
		review.Rating = *params.Rating
	}
	if params.Comments != nil {
		review.Comments = clearable(params.Comments)
	}
	review.UpdatedAt = s.m.next()
	s.m.reviews[id] = review
	return review, nil
}

func (s memReviews) Delete(ctx context.Context, id string) (domain.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	review, ok := s.m.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	delete(s.m.reviews, id)
	return review, nil
}

func (s memReviews) DeleteByMovie(ctx context.Context, movieID string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for id, v := range s.m.reviews {
		if v.MovieID == movieID {
			delete(s.m.reviews, id)
			n++
		}
	}
	return n, nil
}

func (s memReviews) RatingsForMovie(ctx context.Context, movieID string) ([]float64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []float64
	for _, v := range s.m.reviews {
		if v.MovieID == movieID {
			out = append(out, v.Rating)
		}
	}
	return out, nil
}

func clearable(v *string) *string {
	if *v == "" {
		return nil
	}
	return v
}
