package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/event"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

// FeaturedToursLimit is the number of tours returned by FeaturedTours.
const FeaturedToursLimit = 8

// TourService implements the business logic for tour operations.
type TourService struct {
	tours    repository.TourRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewTourService creates a new tour service.
func NewTourService(tours repository.TourRepository, reviews repository.ReviewRepository, producer *event.Producer, logger *slog.Logger) *TourService {
	return &TourService{
		tours:    tours,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// CreateTourInput holds the parameters for creating a tour.
type CreateTourInput struct {
	Title        string
	City         string
	Address      string
	Distance     float64
	Price        float64
	MaxGroupSize int
	Description  string
	Photo        string
	Featured     bool
	Gallery      []string
}

// UpdateTourInput holds the parameters for updating a tour. Nil fields are
// left unchanged.
type UpdateTourInput struct {
	Title        *string
	City         *string
	Address      *string
	Distance     *float64
	Price        *float64
	MaxGroupSize *int
	Description  *string
	Photo        *string
	Featured     *bool
}

// CreateTour creates a new tour. The slug is derived from the title.
func (s *TourService) CreateTour(ctx context.Context, input *CreateTourInput) (*domain.Tour, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.InvalidInput("tour title is required")
	}
	if input.MaxGroupSize <= 0 {
		return nil, apperrors.InvalidInput("max group size must be positive")
	}

	now := time.Now().UTC()
	tour := &domain.Tour{
		ID:           uuid.New().String(),
		Title:        title,
		City:         input.City,
		Address:      input.Address,
		Distance:     input.Distance,
		Price:        input.Price,
		MaxGroupSize: input.MaxGroupSize,
		Description:  input.Description,
		Photo:        input.Photo,
		Featured:     input.Featured,
		Gallery:      input.Gallery,
		ReviewIDs:    []string{},
		Reviews:      []domain.Review{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tour.Gallery == nil {
		tour.Gallery = []string{}
	}

	if _, err := saveWithSlug(tour.Title, func(slug string) error {
		tour.Slug = slug
		return s.tours.Create(ctx, tour)
	}); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}

	if err := s.producer.PublishTourCreated(ctx, tour); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tour.created event",
			slog.String("tour_id", tour.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tour created",
		slog.String("tour_id", tour.ID),
		slog.String("slug", tour.Slug),
	)

	return tour, nil
}

// GetTour retrieves a tour with its reviews populated.
func (s *TourService) GetTour(ctx context.Context, id string) (*domain.Tour, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tour: %w", err)
	}

	tours := []domain.Tour{*tour}
	if err := s.populate(ctx, tours); err != nil {
		return nil, err
	}
	return &tours[0], nil
}

// ListTours returns a page of tours, newest first, with reviews populated.
func (s *TourService) ListTours(ctx context.Context, offset, limit int) ([]domain.Tour, int, error) {
	return s.list(ctx, repository.TourFilter{Offset: offset, Limit: limit})
}

// SearchTours returns every tour whose title contains title, ignoring case.
func (s *TourService) SearchTours(ctx context.Context, title string) ([]domain.Tour, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.InvalidInput("title query is required")
	}
	tours, _, err := s.list(ctx, repository.TourFilter{Title: &title})
	return tours, err
}

// FeaturedTours returns the newest featured tours.
func (s *TourService) FeaturedTours(ctx context.Context) ([]domain.Tour, error) {
	featured := true
	tours, _, err := s.list(ctx, repository.TourFilter{Featured: &featured, Limit: FeaturedToursLimit})
	return tours, err
}

// CountTours returns the number of tours.
func (s *TourService) CountTours(ctx context.Context) (int, error) {
	n, err := s.tours.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tours: %w", err)
	}
	return n, nil
}

// UpdateTour applies a partial update. A changed title regenerates the slug.
func (s *TourService) UpdateTour(ctx context.Context, id string, input *UpdateTourInput) (*domain.Tour, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tour: %w", err)
	}

	titleChanged := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.InvalidInput("tour title must not be empty")
		}
		titleChanged = title != tour.Title
		tour.Title = title
	}
	if input.City != nil {
		tour.City = *input.City
	}
	if input.Address != nil {
		tour.Address = *input.Address
	}
	if input.Distance != nil {
		tour.Distance = *input.Distance
	}
	if input.Price != nil {
		tour.Price = *input.Price
	}
	if input.MaxGroupSize != nil {
		if *input.MaxGroupSize <= 0 {
			return nil, apperrors.InvalidInput("max group size must be positive")
		}
		tour.MaxGroupSize = *input.MaxGroupSize
	}
	if input.Description != nil {
		tour.Description = *input.Description
	}
	if input.Photo != nil {
		tour.Photo = *input.Photo
	}
	if input.Featured != nil {
		tour.Featured = *input.Featured
	}
	tour.UpdatedAt = time.Now().UTC()

	if titleChanged {
		_, err = saveWithSlug(tour.Title, func(slug string) error {
			tour.Slug = slug
			return s.tours.Update(ctx, tour)
		})
	} else {
		err = s.tours.Update(ctx, tour)
	}
	if err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}

	tours := []domain.Tour{*tour}
	if err := s.populate(ctx, tours); err != nil {
		return nil, err
	}
	return &tours[0], nil
}

// DeleteTour removes a tour and, through the store, its reviews.
func (s *TourService) DeleteTour(ctx context.Context, id string) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}

	if err := s.producer.PublishTourDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tour.deleted event",
			slog.String("tour_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tour deleted", slog.String("tour_id", id))
	return nil
}

// AddGalleryImage appends an image URL to a tour's gallery.
func (s *TourService) AddGalleryImage(ctx context.Context, id, url string) (*domain.Tour, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperrors.InvalidInput("image url is required")
	}

	tour, err := s.tours.AddGalleryImage(ctx, id, url)
	if err != nil {
		return nil, fmt.Errorf("add gallery image: %w", err)
	}
	return tour, nil
}

// RemoveGalleryImage removes the gallery image at a zero-based index.
func (s *TourService) RemoveGalleryImage(ctx context.Context, id string, index int) (*domain.Tour, error) {
	tour, err := s.tours.RemoveGalleryImage(ctx, id, index)
	if err != nil {
		return nil, fmt.Errorf("remove gallery image: %w", err)
	}
	return tour, nil
}

func (s *TourService) list(ctx context.Context, filter repository.TourFilter) ([]domain.Tour, int, error) {
	tours, total, err := s.tours.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list tours: %w", err)
	}
	if err := s.populate(ctx, tours); err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

// populate fills Reviews from each tour's review id list with one query.
// Only reviews the tour lists are shown.
func (s *TourService) populate(ctx context.Context, tours []domain.Tour) error {
	var ids []string
	for _, t := range tours {
		ids = append(ids, t.ReviewIDs...)
	}

	reviews, err := s.reviews.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load tour reviews: %w", err)
	}

	for i := range tours {
		tours[i].Reviews = []domain.Review{}
		for _, rv := range reviews {
			if rv.TourID == tours[i].ID && tours[i].HasReview(rv.ID) {
				tours[i].Reviews = append(tours[i].Reviews, rv)
			}
		}
	}
	return nil
}
