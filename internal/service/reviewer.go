package service

import (
	"context"
	"fmt"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
)

// Top reviewer limits.
const (
	DefaultTopReviewers = 5
	MaxTopReviewers     = 100
)

// ReviewerService computes per-reviewer statistics. Results are recomputed
// from the review table on every call.
type ReviewerService struct {
	reviews repository.ReviewRepository
}

// NewReviewerService creates a new reviewer service.
func NewReviewerService(reviews repository.ReviewRepository) *ReviewerService {
	return &ReviewerService{reviews: reviews}
}

// TopReviewers returns the reviewers with the most reviews. A limit <= 0
// uses the default and larger limits are capped.
func (s *ReviewerService) TopReviewers(ctx context.Context, limit int) ([]domain.ReviewerStats, error) {
	switch {
	case limit <= 0:
		limit = DefaultTopReviewers
	case limit > MaxTopReviewers:
		limit = MaxTopReviewers
	}

	stats, err := s.reviews.ReviewerStats(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top reviewers: %w", err)
	}
	return stats, nil
}

// AllReviewers returns statistics for every reviewer.
func (s *ReviewerService) AllReviewers(ctx context.Context) ([]domain.ReviewerStats, error) {
	stats, err := s.reviews.ReviewerStats(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("all reviewers: %w", err)
	}
	return stats, nil
}
