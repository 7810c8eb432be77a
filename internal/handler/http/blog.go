package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/service"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
	"github.com/tiendatttt234/GoGo-Be/pkg/pagination"
)

const blogPageSize = 8

// BlogHandler handles HTTP requests for blog endpoints.
type BlogHandler struct {
	service *service.BlogService
	logger  *slog.Logger
}

// NewBlogHandler creates a new blog HTTP handler.
func NewBlogHandler(svc *service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateBlogRequest is the JSON request body for creating a blog.
type CreateBlogRequest struct {
	Title       string            `json:"title" validate:"required,min=1,max=200"`
	Description string            `json:"description" validate:"max=1000"`
	Content     string            `json:"content" validate:"required"`
	Photo       string            `json:"photo" validate:"omitempty,httpurl"`
	Links       []domain.BlogLink `json:"links" validate:"omitempty,max=20,dive"`
	Featured    bool              `json:"featured"`
	Category    string            `json:"category" validate:"max=100"`
	Tags        []string          `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// UpdateBlogRequest is the JSON request body for a partial blog update.
type UpdateBlogRequest struct {
	Title       *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=1000"`
	Content     *string            `json:"content"`
	Photo       *string            `json:"photo" validate:"omitempty,httpurl"`
	Links       *[]domain.BlogLink `json:"links" validate:"omitempty,max=20,dive"`
	Featured    *bool              `json:"featured"`
	Category    *string            `json:"category" validate:"omitempty,max=100"`
	Tags        *[]string          `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// --- Handlers ---

// ListBlogs handles GET /api/v1/blogs. Pages are zero-based.
func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequestWith(r, pagination.Options{ZeroBased: true, DefaultLimit: blogPageSize})

	blogs, total, err := h.service.ListBlogs(r.Context(), params.Offset, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(blogs, total, params.Page, params.Limit, true))
}

// FeaturedBlogs handles GET /api/v1/blogs/featured
func (h *BlogHandler) FeaturedBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.FeaturedBlogs(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, blogs)
}

// CountBlogs handles GET /api/v1/blogs/count
func (h *BlogHandler) CountBlogs(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountBlogs(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, n)
}

// GetBlog handles GET /api/v1/blogs/{id}
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	blog, err := h.service.GetBlog(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, blog)
}

// CreateBlog handles POST /api/v1/blogs
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateBlogRequest
	if !decode(w, r, &req) {
		return
	}

	blog, err := h.service.CreateBlog(r.Context(), p, &service.CreateBlogInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Photo:       req.Photo,
		Links:       req.Links,
		Featured:    req.Featured,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Success: true,
		Message: "successfully created",
		Data:    blog,
	})
}

// UpdateBlog handles PUT /api/v1/blogs/{id}
func (h *BlogHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateBlogRequest
	if !decode(w, r, &req) {
		return
	}

	blog, err := h.service.UpdateBlog(r.Context(), p, id.String(), &service.UpdateBlogInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Photo:       req.Photo,
		Links:       req.Links,
		Featured:    req.Featured,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success: true,
		Message: "successfully updated",
		Data:    blog,
	})
}

// DeleteBlog handles DELETE /api/v1/blogs/{id}
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteBlog(r.Context(), p, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "successfully deleted")
}
