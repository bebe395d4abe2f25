package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Clark-Hu/movie-reviews-api/internal/domain"
	"github.com/Clark-Hu/movie-reviews-api/internal/repository"
)

type reviewRequest struct {
	MovieID      *string  `json:"movieId"`
	ReviewerName *string  `json:"reviewerName"`
	Rating       *float64 `json:"rating"`
	Comments     *string  `json:"comments"`
}

type reviewResponse struct {
	ID           string  `json:"id"`
	MovieID      string  `json:"movieId"`
	ReviewerName *string `json:"reviewerName,omitempty"`
	Rating       float64 `json:"rating"`
	Comments     *string `json:"comments,omitempty"`
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	var filter repository.ReviewFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("movieId")); raw != "" {
		movieID, err := uuid.Parse(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid movieId value")
			return
		}
		id := movieID.String()
		filter.MovieID = &id
	}

	reviews, err := s.catalog.ListReviews(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err, "list reviews")
		return
	}

	items := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, toReviewResponse(review))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	review, err := s.catalog.GetReview(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err, "fetch review")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	params := repository.ReviewCreateParams{
		ReviewerName: normalizeStringPtr(req.ReviewerName),
		Rating:       req.Rating,
		Comments:     normalizeStringPtr(req.Comments),
	}
	if req.MovieID != nil {
		params.MovieID = strings.TrimSpace(*req.MovieID)
	}

	review, err := s.catalog.CreateReview(r.Context(), params)
	if err != nil {
		s.respondServiceError(w, r, err, "create review")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/reviews/%s", review.ID))
	s.respondJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	// An empty reviewerName or comments clears the field.
	params := repository.ReviewUpdateParams{
		ReviewerName: trimStringPtr(req.ReviewerName),
		Rating:       req.Rating,
		Comments:     trimStringPtr(req.Comments),
	}
	if req.MovieID != nil {
		movieID := strings.TrimSpace(*req.MovieID)
		params.MovieID = &movieID
	}

	review, err := s.catalog.UpdateReview(r.Context(), id, params)
	if err != nil {
		s.respondServiceError(w, r, err, "update review")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if _, err := s.catalog.DeleteReview(r.Context(), id); err != nil {
		s.respondServiceError(w, r, err, "delete review")
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "Review deleted"})
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:           review.ID,
		MovieID:      review.MovieID,
		ReviewerName: review.ReviewerName,
		Rating:       review.Rating,
		Comments:     review.Comments,
	}
}
