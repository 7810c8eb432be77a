package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

// FeaturedBlogsLimit is the number of blogs returned by FeaturedBlogs.
const FeaturedBlogsLimit = 8

// BlogService implements the business logic for blog operations.
type BlogService struct {
	blogs  repository.BlogRepository
	logger *slog.Logger
}

// NewBlogService creates a new blog service.
func NewBlogService(blogs repository.BlogRepository, logger *slog.Logger) *BlogService {
	return &BlogService{
		blogs:  blogs,
		logger: logger,
	}
}

// CreateBlogInput holds the parameters for creating a blog.
type CreateBlogInput struct {
	Title       string
	Description string
	Content     string
	Photo       string
	Links       []domain.BlogLink
	Featured    bool
	Category    string
	Tags        []string
}

// UpdateBlogInput holds the parameters for updating a blog. Nil fields are
// left unchanged.
type UpdateBlogInput struct {
	Title       *string
	Description *string
	Content     *string
	Photo       *string
	Links       *[]domain.BlogLink
	Featured    *bool
	Category    *string
	Tags        *[]string
}

// CreateBlog creates a blog authored by the principal.
func (s *BlogService) CreateBlog(ctx context.Context, p domain.Principal, input *CreateBlogInput) (*domain.Blog, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.InvalidInput("blog title is required")
	}

	now := time.Now().UTC()
	blog := &domain.Blog{
		ID:          uuid.New().String(),
		Title:       title,
		Description: input.Description,
		Content:     input.Content,
		Photo:       input.Photo,
		Links:       input.Links,
		AuthorID:    p.ID,
		Featured:    input.Featured,
		Category:    input.Category,
		Tags:        input.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if blog.Links == nil {
		blog.Links = []domain.BlogLink{}
	}
	if blog.Tags == nil {
		blog.Tags = []string{}
	}

	if _, err := saveWithSlug(blog.Title, func(slug string) error {
		blog.Slug = slug
		return s.blogs.Create(ctx, blog)
	}); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	blog.Author = &domain.AuthorInfo{ID: p.ID, Username: p.Username}

	s.logger.InfoContext(ctx, "blog created",
		slog.String("blog_id", blog.ID),
		slog.String("author_id", p.ID),
	)

	return blog, nil
}

// GetBlog retrieves a blog by its ID.
func (s *BlogService) GetBlog(ctx context.Context, id string) (*domain.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return blog, nil
}

// ListBlogs returns a page of blogs, newest first, with the total count.
func (s *BlogService) ListBlogs(ctx context.Context, offset, limit int) ([]domain.Blog, int, error) {
	blogs, total, err := s.blogs.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, total, nil
}

// FeaturedBlogs returns the newest featured blogs.
func (s *BlogService) FeaturedBlogs(ctx context.Context) ([]domain.Blog, error) {
	blogs, err := s.blogs.ListFeatured(ctx, FeaturedBlogsLimit)
	if err != nil {
		return nil, fmt.Errorf("list featured blogs: %w", err)
	}
	return blogs, nil
}

// CountBlogs returns the number of blogs.
func (s *BlogService) CountBlogs(ctx context.Context) (int, error) {
	n, err := s.blogs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	return n, nil
}

// UpdateBlog applies a partial update. Only the author may edit.
func (s *BlogService) UpdateBlog(ctx context.Context, p domain.Principal, id string, input *UpdateBlogInput) (*domain.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}

	if err := auth.RequireOwnerOrRole(p, blog, domain.RoleNone); err != nil {
		return nil, err
	}

	titleChanged := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.InvalidInput("blog title must not be empty")
		}
		titleChanged = title != blog.Title
		blog.Title = title
	}
	if input.Description != nil {
		blog.Description = *input.Description
	}
	if input.Content != nil {
		blog.Content = *input.Content
	}
	if input.Photo != nil {
		blog.Photo = *input.Photo
	}
	if input.Links != nil {
		blog.Links = *input.Links
	}
	if input.Featured != nil {
		blog.Featured = *input.Featured
	}
	if input.Category != nil {
		blog.Category = *input.Category
	}
	if input.Tags != nil {
		blog.Tags = *input.Tags
	}
	blog.UpdatedAt = time.Now().UTC()

	if titleChanged {
		_, err = saveWithSlug(blog.Title, func(slug string) error {
			blog.Slug = slug
			return s.blogs.Update(ctx, blog)
		})
	} else {
		err = s.blogs.Update(ctx, blog)
	}
	if err != nil {
		return nil, fmt.Errorf("update blog: %w", err)
	}

	return blog, nil
}

// DeleteBlog removes a blog. The author or an admin may delete.
func (s *BlogService) DeleteBlog(ctx context.Context, p domain.Principal, id string) error {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get blog: %w", err)
	}

	if err := auth.RequireOwnerOrRole(p, blog, domain.RoleAdmin); err != nil {
		return err
	}

	if err := s.blogs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	s.logger.InfoContext(ctx, "blog deleted", slog.String("blog_id", id))
	return nil
}
