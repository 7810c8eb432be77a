package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/service"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
)

// AdminHandler exposes the review repair operations.
type AdminHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(reviews *service.ReviewService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		reviews: reviews,
		logger:  logger,
	}
}

// ListUnlinked handles GET /api/v1/admin/reviews/unlinked
func (h *AdminHandler) ListUnlinked(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListUnlinked(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, reviews)
}

// Reconcile handles POST /api/v1/admin/reviews/{id}/reconcile
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res, err := h.reviews.Reconcile(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// FinishDelete handles POST /api/v1/admin/reviews/{id}/finish-delete
func (h *AdminHandler) FinishDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.reviews.FinishDelete(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "review deleted")
}
