package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
)

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	db DBTX
}

const reviewColumns = `
    id,
    movie_id,
    reviewer_name,
    rating,
    comments,
    created_at,
    updated_at
`

// ReviewCreateParams captures the payload required to create a review. Rating
// is a pointer so a missing value reaches storage validation.
type ReviewCreateParams struct {
	MovieID      string
	ReviewerName *string
	Rating       *float64
	Comments     *string
}

// ReviewUpdateParams holds a partial update; nil fields are left unchanged.
// An empty ReviewerName or Comments clears the stored value.
type ReviewUpdateParams struct {
	MovieID      *string
	ReviewerName *string
	Rating       *float64
	Comments     *string
}

// ReviewFilter narrows List. A zero filter matches every review.
type ReviewFilter struct {
	MovieID *string
}

// Create inserts a review. The referenced movie is not required to exist.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	if params.MovieID == "" {
		return domain.Review{}, validationErr("movieId is required")
	}
	movieID, ok := parseID(params.MovieID)
	if !ok {
		return domain.Review{}, validationErr("movieId %q is not a valid identifier", params.MovieID)
	}
	if params.Rating == nil {
		return domain.Review{}, validationErr("rating is required")
	}
	if err := checkRating(*params.Rating); err != nil {
		return domain.Review{}, err
	}

	query := fmt.Sprintf(`
        INSERT INTO reviews (id, movie_id, reviewer_name, rating, comments)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING %s
    `, reviewColumns)

	row := r.db.QueryRow(ctx, query, uuid.NewString(), movieID, params.ReviewerName, *params.Rating, params.Comments)
	review, err := scanReview(row)
	if err != nil {
		return domain.Review{}, translateError(err)
	}
	return review, nil
}

// GetByID fetches a review by its identifier.
func (r *ReviewsRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	id, ok := parseID(id)
	if !ok {
		return domain.Review{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)
	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// List returns the reviews matching filter in creation order.
func (r *ReviewsRepository) List(ctx context.Context, filter ReviewFilter) ([]domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews`, reviewColumns)
	args := make([]any, 0, 1)
	if filter.MovieID != nil {
		movieID, ok := parseID(*filter.MovieID)
		if !ok {
			return nil, validationErr("movieId %q is not a valid identifier", *filter.MovieID)
		}
		query += ` WHERE movie_id = $1`
		args = append(args, movieID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies a partial update and returns the stored entity.
func (r *ReviewsRepository) Update(ctx context.Context, id string, params ReviewUpdateParams) (domain.Review, error) {
	id, ok := parseID(id)
	if !ok {
		return domain.Review{}, ErrNotFound
	}
	var movieID *string
	if params.MovieID != nil {
		parsed, ok := parseID(*params.MovieID)
		if !ok {
			return domain.Review{}, validationErr("movieId %q is not a valid identifier", *params.MovieID)
		}
		movieID = &parsed
	}
	if params.Rating != nil {
		if err := checkRating(*params.Rating); err != nil {
			return domain.Review{}, err
		}
	}

	query := fmt.Sprintf(`
        UPDATE reviews
        SET movie_id = COALESCE($2::uuid, movie_id),
            reviewer_name = CASE WHEN $3::text IS NULL THEN reviewer_name ELSE NULLIF($3::text, '') END,
            rating = COALESCE($4, rating),
            comments = CASE WHEN $5::text IS NULL THEN comments ELSE NULLIF($5::text, '') END,
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, reviewColumns)

	review, err := scanReview(r.db.QueryRow(ctx, query, id, movieID, params.ReviewerName, params.Rating, params.Comments))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, translateError(err)
	}
	return review, nil
}

// Delete removes a review and returns it as it was stored, so callers can act
// on its movie reference after the row is gone.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) (domain.Review, error) {
	id, ok := parseID(id)
	if !ok {
		return domain.Review{}, ErrNotFound
	}
	query := fmt.Sprintf(`DELETE FROM reviews WHERE id = $1 RETURNING %s`, reviewColumns)
	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// DeleteByMovie removes every review referencing movieID and returns how many were removed.
func (r *ReviewsRepository) DeleteByMovie(ctx context.Context, movieID string) (int64, error) {
	movieID, ok := parseID(movieID)
	if !ok {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE movie_id = $1`, movieID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RatingsForMovie returns the rating of every review referencing movieID.
func (r *ReviewsRepository) RatingsForMovie(ctx context.Context, movieID string) ([]float64, error) {
	movieID, ok := parseID(movieID)
	if !ok {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT rating FROM reviews WHERE movie_id = $1`, movieID)
	if err != nil {
		return nil, err
	}
	ratings, err := pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("collect ratings: %w", err)
	}
	return ratings, nil
}

// Postgres accepts NaN and infinities in double precision columns; they would
// poison every average they take part in.
func checkRating(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return validationErr("rating must be a finite number")
	}
	return nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.MovieID,
		&review.ReviewerName,
		&review.Rating,
		&review.Comments,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
