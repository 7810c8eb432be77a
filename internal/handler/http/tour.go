package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/service"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
	"github.com/tiendatttt234/GoGo-Be/pkg/pagination"
)

// TourHandler handles HTTP requests for tour endpoints.
type TourHandler struct {
	service *service.TourService
	logger  *slog.Logger
}

// NewTourHandler creates a new tour HTTP handler.
func NewTourHandler(svc *service.TourService, logger *slog.Logger) *TourHandler {
	return &TourHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateTourRequest is the JSON request body for creating a tour.
type CreateTourRequest struct {
	Title        string   `json:"title" validate:"required,min=1,max=200"`
	City         string   `json:"city" validate:"required"`
	Address      string   `json:"address" validate:"required"`
	Distance     float64  `json:"distance" validate:"gte=0"`
	Price        float64  `json:"price" validate:"gte=0"`
	MaxGroupSize int      `json:"maxGroupSize" validate:"required,gt=0"`
	Description  string   `json:"desc" validate:"required"`
	Photo        string   `json:"photo" validate:"omitempty,httpurl"`
	Featured     bool     `json:"featured"`
	Gallery      []string `json:"gallery" validate:"omitempty,max=50,dive,httpurl"`
}

// UpdateTourRequest is the JSON request body for a partial tour update.
type UpdateTourRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=1,max=200"`
	City         *string  `json:"city" validate:"omitempty,min=1"`
	Address      *string  `json:"address" validate:"omitempty,min=1"`
	Distance     *float64 `json:"distance" validate:"omitempty,gte=0"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	MaxGroupSize *int     `json:"maxGroupSize" validate:"omitempty,gt=0"`
	Description  *string  `json:"desc"`
	Photo        *string  `json:"photo" validate:"omitempty,httpurl"`
	Featured     *bool    `json:"featured"`
}

// GalleryImageRequest is the JSON request body for adding a gallery image.
type GalleryImageRequest struct {
	ImageURL string `json:"imageUrl" validate:"required,httpurl"`
}

// --- Handlers ---

// CreateTour handles POST /api/v1/tours
func (h *TourHandler) CreateTour(w http.ResponseWriter, r *http.Request) {
	var req CreateTourRequest
	if !decode(w, r, &req) {
		return
	}

	tour, err := h.service.CreateTour(r.Context(), &service.CreateTourInput{
		Title:        req.Title,
		City:         req.City,
		Address:      req.Address,
		Distance:     req.Distance,
		Price:        req.Price,
		MaxGroupSize: req.MaxGroupSize,
		Description:  req.Description,
		Photo:        req.Photo,
		Featured:     req.Featured,
		Gallery:      req.Gallery,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Success: true,
		Message: "successfully created",
		Data:    tour,
	})
}

// GetTour handles GET /api/v1/tours/{id}
func (h *TourHandler) GetTour(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	tour, err := h.service.GetTour(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, tour)
}

// ListTours handles GET /api/v1/tours
func (h *TourHandler) ListTours(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	tours, total, err := h.service.ListTours(r.Context(), params.Offset, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(tours, total, params.Page, params.Limit, false))
}

// SearchTours handles GET /api/v1/tours/search/getTourBySearch?title=
func (h *TourHandler) SearchTours(w http.ResponseWriter, r *http.Request) {
	tours, err := h.service.SearchTours(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, tours)
}

// FeaturedTours handles GET /api/v1/tours/search/getFeaturedTours
func (h *TourHandler) FeaturedTours(w http.ResponseWriter, r *http.Request) {
	tours, err := h.service.FeaturedTours(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, tours)
}

// CountTours handles GET /api/v1/tours/search/getTourCount
func (h *TourHandler) CountTours(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountTours(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, n)
}

// UpdateTour handles PUT /api/v1/tours/{id}
func (h *TourHandler) UpdateTour(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateTourRequest
	if !decode(w, r, &req) {
		return
	}

	tour, err := h.service.UpdateTour(r.Context(), id.String(), &service.UpdateTourInput{
		Title:        req.Title,
		City:         req.City,
		Address:      req.Address,
		Distance:     req.Distance,
		Price:        req.Price,
		MaxGroupSize: req.MaxGroupSize,
		Description:  req.Description,
		Photo:        req.Photo,
		Featured:     req.Featured,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success: true,
		Message: "successfully updated",
		Data:    tour,
	})
}

// DeleteTour handles DELETE /api/v1/tours/{id}
func (h *TourHandler) DeleteTour(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteTour(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "successfully deleted")
}

// AddGalleryImage handles POST /api/v1/tours/{id}/gallery
func (h *TourHandler) AddGalleryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req GalleryImageRequest
	if !decode(w, r, &req) {
		return
	}

	tour, err := h.service.AddGalleryImage(r.Context(), id.String(), req.ImageURL)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, tour)
}

// RemoveGalleryImage handles DELETE /api/v1/tours/{id}/gallery/{imageIndex}
func (h *TourHandler) RemoveGalleryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "imageIndex"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid image index"), h.logger)
		return
	}

	tour, err := h.service.RemoveGalleryImage(r.Context(), id.String(), index)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, tour)
}
