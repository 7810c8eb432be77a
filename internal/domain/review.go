package domain

import (
	"time"
)

// Review is a user's review of a tour. Username is a snapshot of the author's
// display name taken when the review was written.
type Review struct {
	ID         string    `json:"id"`
	TourID     string    `json:"productId"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	ReviewText string    `json:"reviewText"`
	Rating     float64   `json:"rating"`
	Images     []string  `json:"images"`
	Likes      []string  `json:"likes"`
	Replies    []Reply   `json:"replies"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OwnerID returns the author of the review.
func (r *Review) OwnerID() string { return r.UserID }

// Reply is a comment attached to a review.
type Reply struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"-"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnerID returns the author of the reply.
func (r *Reply) OwnerID() string { return r.UserID }

// ReviewerStats is the per-reviewer aggregate, grouped by the username
// snapshot stored on each review. It is derived on every read.
type ReviewerStats struct {
	Username      string  `json:"_id"`
	ReviewCount   int     `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
}

// RatingBound is the inclusive range a review rating must fall in.
type RatingBound struct {
	Min float64
	Max float64
}

// DefaultRatingBound is the [0, 5] range.
var DefaultRatingBound = RatingBound{Min: 0, Max: 5}

// Contains reports whether rating lies within the bound.
func (b RatingBound) Contains(rating float64) bool {
	return rating >= b.Min && rating <= b.Max
}
