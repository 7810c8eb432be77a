package service

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

// memDB is an in-memory store with the same link semantics as the
// PostgreSQL repositories, used for end-to-end coordinator tests.
type memDB struct {
	mu      sync.Mutex
	tours   map[string]*domain.Tour
	reviews map[string]*domain.Review
	order   []string
}

func newMemDB() *memDB {
	return &memDB{
		tours:   make(map[string]*domain.Tour),
		reviews: make(map[string]*domain.Review),
	}
}

type memTours struct{ db *memDB }

type memReviews struct{ db *memDB }

var (
	_ repository.TourRepository   = memTours{}
	_ repository.ReviewRepository = memReviews{}
)

func (m memTours) Create(_ context.Context, t *domain.Tour) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cp := *t
	cp.ReviewIDs = []string{}
	m.db.tours[t.ID] = &cp
	return nil
}

func (m memTours) GetByID(_ context.Context, id string) (*domain.Tour, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tours[id]
	if !ok {
		return nil, apperrors.NotFound("tour", id)
	}
	cp := *t
	cp.ReviewIDs = slices.Clone(t.ReviewIDs)
	return &cp, nil
}

func (m memTours) Exists(_ context.Context, id string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	_, ok := m.db.tours[id]
	return ok, nil
}

func (m memTours) List(ctx context.Context, _ repository.TourFilter) ([]domain.Tour, int, error) {
	m.db.mu.Lock()
	ids := make([]string, 0, len(m.db.tours))
	for id := range m.db.tours {
		ids = append(ids, id)
	}
	m.db.mu.Unlock()

	out := []domain.Tour{}
	for _, id := range ids {
		t, _ := m.GetByID(ctx, id)
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m memTours) Update(_ context.Context, t *domain.Tour) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cur, ok := m.db.tours[t.ID]
	if !ok {
		return apperrors.NotFound("tour", t.ID)
	}
	cp := *t
	cp.ReviewIDs = cur.ReviewIDs
	m.db.tours[t.ID] = &cp
	return nil
}

func (m memTours) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.tours[id]; !ok {
		return apperrors.NotFound("tour", id)
	}
	delete(m.db.tours, id)
	for rid, r := range m.db.reviews {
		if r.TourID == id {
			delete(m.db.reviews, rid)
		}
	}
	return nil
}

func (m memTours) Count(_ context.Context) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return len(m.db.tours), nil
}

func (m memTours) AddReviewID(_ context.Context, tourID, reviewID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tours[tourID]
	if !ok {
		return apperrors.NotFound("tour", tourID)
	}
	if !slices.Contains(t.ReviewIDs, reviewID) {
		t.ReviewIDs = append(t.ReviewIDs, reviewID)
	}
	return nil
}

func (m memTours) LinkReviewIfPresent(_ context.Context, tourID, reviewID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tours[tourID]
	if !ok {
		return false, nil
	}
	r, ok := m.db.reviews[reviewID]
	if !ok || r.TourID != tourID {
		return false, nil
	}
	if !slices.Contains(t.ReviewIDs, reviewID) {
		t.ReviewIDs = append(t.ReviewIDs, reviewID)
	}
	return true, nil
}

func (m memTours) RemoveReviewID(_ context.Context, tourID, reviewID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tours[tourID]
	if !ok {
		return apperrors.NotFound("tour", tourID)
	}
	t.ReviewIDs = slices.DeleteFunc(t.ReviewIDs, func(id string) bool { return id == reviewID })
	return nil
}

func (m memTours) RemoveReviewIDEverywhere(_ context.Context, reviewID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, t := range m.db.tours {
		if slices.Contains(t.ReviewIDs, reviewID) {
			t.ReviewIDs = slices.DeleteFunc(t.ReviewIDs, func(id string) bool { return id == reviewID })
			n++
		}
	}
	return n, nil
}

func (m memTours) AddGalleryImage(ctx context.Context, tourID, url string) (*domain.Tour, error) {
	m.db.mu.Lock()
	t, ok := m.db.tours[tourID]
	if ok {
		t.Gallery = append(t.Gallery, url)
	}
	m.db.mu.Unlock()
	if !ok {
		return nil, apperrors.NotFound("tour", tourID)
	}
	return m.GetByID(ctx, tourID)
}

func (m memTours) RemoveGalleryImage(ctx context.Context, tourID string, index int) (*domain.Tour, error) {
	m.db.mu.Lock()
	t, ok := m.db.tours[tourID]
	if !ok {
		m.db.mu.Unlock()
		return nil, apperrors.NotFound("tour", tourID)
	}
	if index < 0 || index >= len(t.Gallery) {
		m.db.mu.Unlock()
		return nil, apperrors.InvalidInput("invalid image index")
	}
	t.Gallery = slices.Delete(t.Gallery, index, index+1)
	m.db.mu.Unlock()
	return m.GetByID(ctx, tourID)
}

func (m memReviews) Create(_ context.Context, r *domain.Review) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.tours[r.TourID]; !ok {
		return apperrors.NotFound("tour", r.TourID)
	}
	cp := *r
	m.db.reviews[r.ID] = &cp
	m.db.order = append(m.db.order, r.ID)
	return nil
}

func (m memReviews) GetByID(_ context.Context, id string) (*domain.Review, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	cp := *r
	return &cp, nil
}

// collect returns reviews matching keep, newest first.
func (m memReviews) collect(keep func(*domain.Review) bool) []domain.Review {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []domain.Review{}
	for i := len(m.db.order) - 1; i >= 0; i-- {
		r, ok := m.db.reviews[m.db.order[i]]
		if ok && keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

func (m memReviews) ListByTour(_ context.Context, tourID string) ([]domain.Review, error) {
	return m.collect(func(r *domain.Review) bool { return r.TourID == tourID }), nil
}

func (m memReviews) ListByIDs(_ context.Context, ids []string) ([]domain.Review, error) {
	return m.collect(func(r *domain.Review) bool { return slices.Contains(ids, r.ID) }), nil
}

func (m memReviews) Update(_ context.Context, r *domain.Review) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.reviews[r.ID]; !ok {
		return apperrors.NotFound("review", r.ID)
	}
	cp := *r
	m.db.reviews[r.ID] = &cp
	return nil
}

func (m memReviews) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[id]
	if !ok {
		return apperrors.NotFound("review", id)
	}
	delete(m.db.reviews, id)
	if t, ok := m.db.tours[r.TourID]; ok {
		t.ReviewIDs = slices.DeleteFunc(t.ReviewIDs, func(rid string) bool { return rid == id })
	}
	return nil
}

func (m memReviews) AddLike(_ context.Context, reviewID, userID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[reviewID]
	if !ok {
		return apperrors.NotFound("review", reviewID)
	}
	if !slices.Contains(r.Likes, userID) {
		r.Likes = append(r.Likes, userID)
	}
	return nil
}

func (m memReviews) RemoveLike(_ context.Context, reviewID, userID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[reviewID]
	if !ok {
		return apperrors.NotFound("review", reviewID)
	}
	r.Likes = slices.DeleteFunc(r.Likes, func(id string) bool { return id == userID })
	return nil
}

func (m memReviews) AddReply(_ context.Context, reply *domain.Reply) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[reply.ReviewID]
	if !ok {
		return apperrors.NotFound("review", reply.ReviewID)
	}
	r.Replies = append(r.Replies, *reply)
	return nil
}

func (m memReviews) GetReply(_ context.Context, reviewID, replyID string) (*domain.Reply, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if r, ok := m.db.reviews[reviewID]; ok {
		for _, reply := range r.Replies {
			if reply.ID == replyID {
				cp := reply
				return &cp, nil
			}
		}
	}
	return nil, apperrors.NotFound("reply", replyID)
}

func (m memReviews) DeleteReply(_ context.Context, reviewID, replyID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reviews[reviewID]
	if !ok {
		return apperrors.NotFound("reply", replyID)
	}
	before := len(r.Replies)
	r.Replies = slices.DeleteFunc(r.Replies, func(reply domain.Reply) bool { return reply.ID == replyID })
	if len(r.Replies) == before {
		return apperrors.NotFound("reply", replyID)
	}
	return nil
}

func (m memReviews) ListUnlinked(_ context.Context) ([]domain.Review, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []domain.Review{}
	for _, id := range m.db.order {
		r, ok := m.db.reviews[id]
		if !ok {
			continue
		}
		if t, ok := m.db.tours[r.TourID]; ok && !slices.Contains(t.ReviewIDs, r.ID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m memReviews) ReviewerStats(_ context.Context, limit int) ([]domain.ReviewerStats, error) {
	m.db.mu.Lock()
	type agg struct {
		count int
		sum   float64
	}
	groups := make(map[string]*agg)
	for _, r := range m.db.reviews {
		g, ok := groups[r.Username]
		if !ok {
			g = &agg{}
			groups[r.Username] = g
		}
		g.count++
		g.sum += r.Rating
	}
	m.db.mu.Unlock()

	stats := []domain.ReviewerStats{}
	for name, g := range groups {
		stats = append(stats, domain.ReviewerStats{
			Username:      name,
			ReviewCount:   g.count,
			AverageRating: math.Round(g.sum/float64(g.count)*100) / 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ReviewCount != stats[j].ReviewCount {
			return stats[i].ReviewCount > stats[j].ReviewCount
		}
		return stats[i].Username < stats[j].Username
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
