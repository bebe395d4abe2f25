package catalog

import (
	"context"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
	"github.com/Clark-Hu/movie-reviews-api/internal/repository"
)

// MovieStore is the movie half of the document store contract.
type MovieStore interface {
	List(ctx context.Context) ([]domain.Movie, error)
	GetByID(ctx context.Context, id string) (domain.Movie, error)
	Create(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, error)
	Update(ctx context.Context, id string, params repository.MovieUpdateParams) (domain.Movie, error)
	Delete(ctx context.Context, id string) error
	LockForUpdate(ctx context.Context, id string) (bool, error)
	SetAverageRating(ctx context.Context, id string, average *float64) (bool, error)
}

// ReviewStore is the review half of the document store contract.
type ReviewStore interface {
	List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, error)
	GetByID(ctx context.Context, id string) (domain.Review, error)
	Create(ctx context.Context, params repository.ReviewCreateParams) (domain.Review, error)
	Update(ctx context.Context, id string, params repository.ReviewUpdateParams) (domain.Review, error)
	Delete(ctx context.Context, id string) (domain.Review, error)
	DeleteByMovie(ctx context.Context, movieID string) (int64, error)
	RatingsForMovie(ctx context.Context, movieID string) ([]float64, error)
}

// Stores groups the collections a single unit of work operates on.
type Stores struct {
	Movies  MovieStore
	Reviews ReviewStore
}

// UnitOfWork hands out stores, either directly or bound to one transaction.
type UnitOfWork interface {
	Stores() Stores
	WithinTx(ctx context.Context, fn func(Stores) error) error
}

type repositoryUnitOfWork struct {
	repo *repository.Repository
}

// NewUnitOfWork adapts the Postgres repositories to UnitOfWork.
func NewUnitOfWork(repo *repository.Repository) UnitOfWork {
	return repositoryUnitOfWork{repo: repo}
}

func (u repositoryUnitOfWork) Stores() Stores {
	return storesOf(u.repo)
}

func (u repositoryUnitOfWork) WithinTx(ctx context.Context, fn func(Stores) error) error {
	return u.repo.InTx(ctx, func(tx *repository.Repository) error {
		return fn(storesOf(tx))
	})
}

func storesOf(repo *repository.Repository) Stores {
	return Stores{Movies: repo.Movies, Reviews: repo.Reviews}
}
