package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/service"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	reviews   *service.ReviewService
	reviewers *service.ReviewerService
	logger    *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, reviewers *service.ReviewerService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews:   reviews,
		reviewers: reviewers,
		logger:    logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review.
type CreateReviewRequest struct {
	ReviewText string   `json:"reviewText" validate:"required,max=5000"`
	Rating     *float64 `json:"rating" validate:"required"`
	Images     []string `json:"images" validate:"omitempty,max=10,dive,httpurl"`
}

// UpdateReviewRequest is the JSON request body for updating a review.
type UpdateReviewRequest struct {
	ReviewText *string   `json:"reviewText" validate:"omitempty,min=1,max=5000"`
	Rating     *float64  `json:"rating"`
	Images     *[]string `json:"images" validate:"omitempty,max=10,dive,httpurl"`
}

// ReplyRequest is the JSON request body for replying to a review.
type ReplyRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// --- Handlers ---

// ListByTour handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) ListByTour(w http.ResponseWriter, r *http.Request) {
	tourID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	reviews, err := h.reviews.ListByTour(r.Context(), tourID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, reviews)
}

// CreateReview handles POST /api/v1/reviews/{id}
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tourID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateReviewRequest
	if !decode(w, r, &req) {
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), p, &service.CreateReviewInput{
		TourID:     tourID.String(),
		ReviewText: req.ReviewText,
		Rating:     req.Rating,
		Images:     req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success: true,
		Message: "review submitted",
		Data:    review,
	})
}

// UpdateReview handles PUT /api/v1/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if !decode(w, r, &req) {
		return
	}

	review, err := h.reviews.UpdateReview(r.Context(), p, reviewID.String(), &service.UpdateReviewInput{
		ReviewText: req.ReviewText,
		Rating:     req.Rating,
		Images:     req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success: true,
		Message: "review updated",
		Data:    review,
	})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(r.Context(), p, reviewID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "review deleted")
}

// Like handles POST /api/v1/reviews/{id}/like
func (h *ReviewHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, h.reviews.Like)
}

// Unlike handles DELETE /api/v1/reviews/{id}/like
func (h *ReviewHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, h.reviews.Unlike)
}

type likeFunc func(ctx context.Context, p domain.Principal, reviewID string) (*domain.Review, error)

func (h *ReviewHandler) like(w http.ResponseWriter, r *http.Request, op likeFunc) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := op(r.Context(), p, reviewID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// AddReply handles POST /api/v1/reviews/{id}/replies
func (h *ReviewHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ReplyRequest
	if !decode(w, r, &req) {
		return
	}

	reply, err := h.reviews.AddReply(r.Context(), p, reviewID.String(), req.Text)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, reply)
}

// DeleteReply handles DELETE /api/v1/reviews/{id}/replies/{replyId}
func (h *ReviewHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	replyID, ok := httputil.ParseUUID(w, chi.URLParam(r, "replyId"))
	if !ok {
		return
	}

	if err := h.reviews.DeleteReply(r.Context(), p, reviewID.String(), replyID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "reply deleted")
}

// TopReviewers handles GET /api/v1/reviews/top-reviewers?limit=
func (h *ReviewHandler) TopReviewers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("limit must be an integer"), h.logger)
			return
		}
		limit = n
	}

	stats, err := h.reviewers.TopReviewers(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, stats)
}

// AllReviewers handles GET /api/v1/reviews/reviewers
func (h *ReviewHandler) AllReviewers(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reviewers.AllReviewers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, stats)
}
