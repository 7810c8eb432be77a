package domain

import (
	"time"
)

// Tour is a bookable tour. ReviewIDs caches membership of the tour's reviews;
// the source of truth is Review.TourID.
type Tour struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	City         string    `json:"city"`
	Address      string    `json:"address"`
	Distance     float64   `json:"distance"`
	Price        float64   `json:"price"`
	MaxGroupSize int       `json:"maxGroupSize"`
	Description  string    `json:"description"`
	Photo        string    `json:"photo,omitempty"`
	Featured     bool      `json:"featured"`
	Gallery      []string  `json:"gallery"`
	ReviewIDs    []string  `json:"-"`
	Reviews      []Review  `json:"reviews"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasReview reports whether reviewID is linked in the tour's review list.
func (t *Tour) HasReview(reviewID string) bool {
	for _, id := range t.ReviewIDs {
		if id == reviewID {
			return true
		}
	}
	return false
}
