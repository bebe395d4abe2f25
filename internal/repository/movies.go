package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	db DBTX
}

const movieColumns = `
    id,
    name,
    release_date,
    average_rating,
    created_at,
    updated_at
`

// MovieCreateParams bundles the fields required to create a movie.
// ReleaseDate is a pointer so a missing value reaches storage validation.
type MovieCreateParams struct {
	Name        string
	ReleaseDate *time.Time
}

// MovieUpdateParams holds a partial update; nil fields are left unchanged.
type MovieUpdateParams struct {
	Name        *string
	ReleaseDate *time.Time
}

// Create inserts a new movie row and returns the stored entity. The average
// rating of a new movie is always unset.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	if strings.TrimSpace(params.Name) == "" {
		return domain.Movie{}, validationErr("name is required")
	}
	if params.ReleaseDate == nil || params.ReleaseDate.IsZero() {
		return domain.Movie{}, validationErr("releaseDate is required")
	}

	query := fmt.Sprintf(`
        INSERT INTO movies (id, name, release_date)
        VALUES ($1,$2,$3)
        RETURNING %s
    `, movieColumns)

	row := r.db.QueryRow(ctx, query, uuid.NewString(), params.Name, *params.ReleaseDate)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	id, ok := parseID(id)
	if !ok {
		return domain.Movie{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	movie, err := scanMovie(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// List returns every movie in creation order.
func (r *MoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY created_at, id`, movieColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies a partial update and returns the stored entity.
func (r *MoviesRepository) Update(ctx context.Context, id string, params MovieUpdateParams) (domain.Movie, error) {
	id, ok := parseID(id)
	if !ok {
		return domain.Movie{}, ErrNotFound
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return domain.Movie{}, validationErr("name must not be empty")
	}
	if params.ReleaseDate != nil && params.ReleaseDate.IsZero() {
		return domain.Movie{}, validationErr("releaseDate must not be empty")
	}

	query := fmt.Sprintf(`
        UPDATE movies
        SET name = COALESCE($2, name),
            release_date = COALESCE($3, release_date),
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, movieColumns)

	movie, err := scanMovie(r.db.QueryRow(ctx, query, id, params.Name, params.ReleaseDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// Delete removes a movie. Its reviews are not touched here.
func (r *MoviesRepository) Delete(ctx context.Context, id string) error {
	id, ok := parseID(id)
	if !ok {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LockForUpdate takes a row lock on the movie for the rest of the surrounding
// transaction. It reports whether the movie exists; a missing movie is not an error.
func (r *MoviesRepository) LockForUpdate(ctx context.Context, id string) (bool, error) {
	id, ok := parseID(id)
	if !ok {
		return false, nil
	}
	var locked string
	err := r.db.QueryRow(ctx, `SELECT id FROM movies WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetAverageRating persists the derived average (nil clears it). Updating a
// movie that does not exist is a no-op reported as false.
func (r *MoviesRepository) SetAverageRating(ctx context.Context, id string, average *float64) (bool, error) {
	id, ok := parseID(id)
	if !ok {
		return false, nil
	}
	tag, err := r.db.Exec(ctx, `
        UPDATE movies
        SET average_rating = $2,
            updated_at = now()
        WHERE id = $1
    `, id, average)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Name,
		&movie.ReleaseDate,
		&movie.AverageRating,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
