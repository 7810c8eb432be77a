package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/event"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	pkgkafka "github.com/tiendatttt234/GoGo-Be/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Recording event publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []*pkgkafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) published(topic string) []*pkgkafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*pkgkafka.Event
	for i, t := range p.topics {
		if t == topic {
			out = append(out, p.events[i])
		}
	}
	return out
}

func newTestProducer() (*event.Producer, *recordingPublisher) {
	pub := &recordingPublisher{}
	return event.NewProducer(pub, newTestLogger()), pub
}

// --- Mock Tour Repository ---

type mockTourRepository struct {
	mock.Mock
}

var _ repository.TourRepository = (*mockTourRepository)(nil)

func (m *mockTourRepository) Create(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *mockTourRepository) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

func (m *mockTourRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockTourRepository) List(ctx context.Context, filter repository.TourFilter) ([]domain.Tour, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Tour), args.Int(1), args.Error(2)
}

func (m *mockTourRepository) Update(ctx context.Context, tour *domain.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *mockTourRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTourRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockTourRepository) AddReviewID(ctx context.Context, tourID, reviewID string) error {
	args := m.Called(ctx, tourID, reviewID)
	return args.Error(0)
}

func (m *mockTourRepository) LinkReviewIfPresent(ctx context.Context, tourID, reviewID string) (bool, error) {
	args := m.Called(ctx, tourID, reviewID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTourRepository) RemoveReviewID(ctx context.Context, tourID, reviewID string) error {
	args := m.Called(ctx, tourID, reviewID)
	return args.Error(0)
}

func (m *mockTourRepository) RemoveReviewIDEverywhere(ctx context.Context, reviewID string) (int64, error) {
	args := m.Called(ctx, reviewID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTourRepository) AddGalleryImage(ctx context.Context, tourID, url string) (*domain.Tour, error) {
	args := m.Called(ctx, tourID, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

func (m *mockTourRepository) RemoveGalleryImage(ctx context.Context, tourID string, index int) (*domain.Tour, error) {
	args := m.Called(ctx, tourID, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

var _ repository.ReviewRepository = (*mockReviewRepository)(nil)

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByTour(ctx context.Context, tourID string) ([]domain.Review, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Review, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) AddLike(ctx context.Context, reviewID, userID string) error {
	args := m.Called(ctx, reviewID, userID)
	return args.Error(0)
}

func (m *mockReviewRepository) RemoveLike(ctx context.Context, reviewID, userID string) error {
	args := m.Called(ctx, reviewID, userID)
	return args.Error(0)
}

func (m *mockReviewRepository) AddReply(ctx context.Context, reply *domain.Reply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}

func (m *mockReviewRepository) GetReply(ctx context.Context, reviewID, replyID string) (*domain.Reply, error) {
	args := m.Called(ctx, reviewID, replyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reply), args.Error(1)
}

func (m *mockReviewRepository) DeleteReply(ctx context.Context, reviewID, replyID string) error {
	args := m.Called(ctx, reviewID, replyID)
	return args.Error(0)
}

func (m *mockReviewRepository) ListUnlinked(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ReviewerStats(ctx context.Context, limit int) ([]domain.ReviewerStats, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewerStats), args.Error(1)
}

// --- Mock Blog Repository ---

type mockBlogRepository struct {
	mock.Mock
}

var _ repository.BlogRepository = (*mockBlogRepository)(nil)

func (m *mockBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	args := m.Called(ctx, blog)
	return args.Error(0)
}

func (m *mockBlogRepository) GetByID(ctx context.Context, id string) (*domain.Blog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Blog), args.Error(1)
}

func (m *mockBlogRepository) List(ctx context.Context, offset, limit int) ([]domain.Blog, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Blog), args.Int(1), args.Error(2)
}

func (m *mockBlogRepository) ListFeatured(ctx context.Context, limit int) ([]domain.Blog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Blog), args.Error(1)
}

func (m *mockBlogRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	args := m.Called(ctx, blog)
	return args.Error(0)
}

func (m *mockBlogRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*mockUserRepository)(nil)

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
