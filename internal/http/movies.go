package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
	"github.com/Clark-Hu/movie-reviews-api/internal/repository"
)

// movieRequest serves both create and partial update. AverageRating is only
// declared so that a client trying to set it gets a precise error.
type movieRequest struct {
	Name          *string         `json:"name"`
	ReleaseDate   *string         `json:"releaseDate"`
	AverageRating json.RawMessage `json:"averageRating"`
}

type movieResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ReleaseDate   string   `json:"releaseDate"`
	AverageRating *float64 `json:"averageRating"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.catalog.ListMovies(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err, "list movies")
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	movie, err := s.catalog.GetMovie(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err, "fetch movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.AverageRating != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "averageRating is derived from reviews and cannot be set")
		return
	}

	params := repository.MovieCreateParams{}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.ReleaseDate != nil {
		releaseDate, err := parseReleaseDate(*req.ReleaseDate)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
			return
		}
		params.ReleaseDate = &releaseDate
	}

	movie, err := s.catalog.CreateMovie(r.Context(), params)
	if err != nil {
		s.respondServiceError(w, r, err, "create movie")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%s", movie.ID))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie))
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.AverageRating != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "averageRating is derived from reviews and cannot be set")
		return
	}

	var params repository.MovieUpdateParams
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		params.Name = &name
	}
	if req.ReleaseDate != nil {
		releaseDate, err := parseReleaseDate(*req.ReleaseDate)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
			return
		}
		params.ReleaseDate = &releaseDate
	}

	movie, err := s.catalog.UpdateMovie(r.Context(), id, params)
	if err != nil {
		s.respondServiceError(w, r, err, "update movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	removed, err := s.catalog.DeleteMovie(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err, "delete movie")
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{
		Message:        "Movie and reviews deleted",
		ReviewsDeleted: &removed,
	})
}

// parseReleaseDate accepts a calendar date or an RFC 3339 timestamp. A
// timestamp keeps the calendar date written in its own offset.
func parseReleaseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("releaseDate is required")
	}
	if d, err := time.Parse(domain.DateLayout, raw); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("releaseDate must follow YYYY-MM-DD or RFC 3339 format")
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		ID:            movie.ID,
		Name:          movie.Name,
		ReleaseDate:   movie.ReleaseDate.Format(domain.DateLayout),
		AverageRating: movie.AverageRating,
	}
}
