package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/service"
	"github.com/tiendatttt234/GoGo-Be/pkg/health"
	"github.com/tiendatttt234/GoGo-Be/pkg/middleware"
)

const (
	serviceName = "gogo-api"

	// publicCacheSeconds applies to anonymous list and lookup endpoints.
	publicCacheSeconds = 30
)

// RouterDeps groups what NewRouter needs.
type RouterDeps struct {
	Tours     *service.TourService
	Reviews   *service.ReviewService
	Reviewers *service.ReviewerService
	Blogs     *service.BlogService
	Users     *service.UserService
	Auth      *service.AuthService

	Guard  *auth.Guard
	Health *health.Handler
	Logger *slog.Logger

	CORS       middleware.CORSConfig
	Cookie     CookieConfig
	TrustProxy bool
	// RateLimiter throttles every API request per client IP. Nil disables it.
	RateLimiter *middleware.RateLimiter
	// AdminCIDRs restricts the admin routes by client address. Empty allows all.
	AdminCIDRs []string
}

// NewRouter creates a chi router with all GoGo API routes registered.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.CORS(d.CORS))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	guard := d.Guard

	r.Route("/api/v1", func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Handler)
		}
		r.Use(ContentTypeJSON)

		// Auth endpoints
		authHandler := NewAuthHandler(d.Auth, d.Cookie, d.TrustProxy, d.Logger)
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// Tour endpoints
		tourHandler := NewTourHandler(d.Tours, d.Logger)
		r.Route("/tours", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(publicCacheSeconds))

				r.Get("/", tourHandler.ListTours)
				r.Get("/search/getTourBySearch", tourHandler.SearchTours)
				r.Get("/search/getFeaturedTours", tourHandler.FeaturedTours)
				r.Get("/search/getTourCount", tourHandler.CountTours)
				r.Get("/{id}", tourHandler.GetTour)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireElevated)

				r.Post("/", tourHandler.CreateTour)
				r.Put("/{id}", tourHandler.UpdateTour)
				r.Delete("/{id}", tourHandler.DeleteTour)
				r.Post("/{id}/gallery", tourHandler.AddGalleryImage)
				r.Delete("/{id}/gallery/{imageIndex}", tourHandler.RemoveGalleryImage)
			})
		})

		// Review endpoints
		reviewHandler := NewReviewHandler(d.Reviews, d.Reviewers, d.Logger)
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/top-reviewers", reviewHandler.TopReviewers)
			r.Get("/reviewers", reviewHandler.AllReviewers)
			r.Get("/{id}", reviewHandler.ListByTour)

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuthenticated)

				r.Post("/{id}", reviewHandler.CreateReview)
				r.Put("/{id}", reviewHandler.UpdateReview)
				r.Delete("/{id}", reviewHandler.DeleteReview)
				r.Post("/{id}/like", reviewHandler.Like)
				r.Delete("/{id}/like", reviewHandler.Unlike)
				r.Post("/{id}/replies", reviewHandler.AddReply)
				r.Delete("/{id}/replies/{replyId}", reviewHandler.DeleteReply)
			})
		})

		// User endpoints
		userHandler := NewUserHandler(d.Users, d.Logger)
		r.Route("/users", func(r chi.Router) {
			r.Get("/count", userHandler.CountUsers)

			r.With(guard.RequireAuthenticated).Get("/{id}", userHandler.GetUser)

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireElevated)

				r.Get("/", userHandler.ListUsers)
				r.Post("/", userHandler.CreateUser)
				r.Put("/{id}", userHandler.UpdateUser)
				r.Delete("/{id}", userHandler.DeleteUser)
			})
		})

		// Blog endpoints
		blogHandler := NewBlogHandler(d.Blogs, d.Logger)
		r.Route("/blogs", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(publicCacheSeconds))

				r.Get("/", blogHandler.ListBlogs)
				r.Get("/featured", blogHandler.FeaturedBlogs)
				r.Get("/count", blogHandler.CountBlogs)
				r.Get("/{id}", blogHandler.GetBlog)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuthenticated)

				r.Post("/", blogHandler.CreateBlog)
				r.Put("/{id}", blogHandler.UpdateBlog)
				r.Delete("/{id}", blogHandler.DeleteBlog)
			})
		})

		// Admin endpoints
		adminHandler := NewAdminHandler(d.Reviews, d.Logger)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.IPAllowlist(d.AdminCIDRs, d.Logger))
			r.Use(guard.RequireElevated)
			r.Use(middleware.NoStore)

			r.Get("/reviews/unlinked", adminHandler.ListUnlinked)
			r.Post("/reviews/{id}/reconcile", adminHandler.Reconcile)
			r.Post("/reviews/{id}/finish-delete", adminHandler.FinishDelete)
		})
	})

	return r
}
