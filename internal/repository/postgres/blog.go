package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	"github.com/tiendatttt234/GoGo-Be/pkg/database"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

const blogSelect = `
	SELECT b.id, b.title, b.slug, b.description, b.content, b.photo, b.links,
	       b.author_id, u.username, u.photo,
	       b.featured, b.category, b.tags, b.created_at, b.updated_at`

const blogFrom = `
	FROM blogs b
	LEFT JOIN users u ON u.id = b.author_id`

// BlogRepository implements repository.BlogRepository using PostgreSQL.
type BlogRepository struct {
	pool database.DBTX
}

// NewBlogRepository creates a new PostgreSQL-backed blog repository.
func NewBlogRepository(pool database.DBTX) *BlogRepository {
	return &BlogRepository{pool: pool}
}

// Create inserts a new blog into the database.
func (r *BlogRepository) Create(ctx context.Context, b *domain.Blog) (err error) {
	query := `
		INSERT INTO blogs (id, title, slug, description, content, photo, links, author_id,
		                   featured, category, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	ctx, end := database.TraceQuery(ctx, "blogs", "Create", query)
	defer func() { end(err) }()

	links, err := marshalLinks(b.Links)
	if err != nil {
		return err
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	_, err = r.pool.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Slug,
		b.Description,
		b.Content,
		b.Photo,
		links,
		nullableID(b.AuthorID),
		b.Featured,
		b.Category,
		b.Tags,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return blogConflict(err, b)
		}
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("user", b.AuthorID)
		}
		return fmt.Errorf("insert blog: %w", err)
	}

	return nil
}

// GetByID retrieves a blog and its author summary.
func (r *BlogRepository) GetByID(ctx context.Context, id string) (b *domain.Blog, err error) {
	query := blogSelect + blogFrom + ` WHERE b.id = $1`

	ctx, end := database.TraceQuery(ctx, "blogs", "GetByID", query)
	defer func() { end(err) }()

	b, err = scanBlog(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("blog", id)
	}
	return b, err
}

// List returns a page of blogs, newest first, with the total count.
func (r *BlogRepository) List(ctx context.Context, offset, limit int) (blogs []domain.Blog, total int, err error) {
	query := blogSelect + `,
	       count(*) OVER() AS total_count` + blogFrom + `
	ORDER BY b.created_at DESC
	LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "blogs", "List", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, limit, max(offset, 0))
	if err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	blogs = []domain.Blog{}
	for rows.Next() {
		b, scanErr := scanBlog(rows, &total)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		blogs = append(blogs, *b)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate blog rows: %w", err)
	}

	return blogs, total, nil
}

// ListFeatured returns up to limit featured blogs, newest first.
func (r *BlogRepository) ListFeatured(ctx context.Context, limit int) (blogs []domain.Blog, err error) {
	query := blogSelect + blogFrom + `
	WHERE b.featured = true
	ORDER BY b.created_at DESC
	LIMIT $1`

	ctx, end := database.TraceQuery(ctx, "blogs", "ListFeatured", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured blogs: %w", err)
	}
	defer rows.Close()

	blogs = []domain.Blog{}
	for rows.Next() {
		b, scanErr := scanBlog(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		blogs = append(blogs, *b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog rows: %w", err)
	}

	return blogs, nil
}

// Count returns the number of blogs.
func (r *BlogRepository) Count(ctx context.Context) (n int, err error) {
	query := `SELECT count(*) FROM blogs`

	ctx, end := database.TraceQuery(ctx, "blogs", "Count", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	return n, nil
}

// Update overwrites the editable fields of a blog. The author never changes.
func (r *BlogRepository) Update(ctx context.Context, b *domain.Blog) (err error) {
	query := `
		UPDATE blogs
		SET title = $1, slug = $2, description = $3, content = $4, photo = $5, links = $6,
		    featured = $7, category = $8, tags = $9, updated_at = $10
		WHERE id = $11`

	ctx, end := database.TraceQuery(ctx, "blogs", "Update", query)
	defer func() { end(err) }()

	links, err := marshalLinks(b.Links)
	if err != nil {
		return err
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	ct, err := r.pool.Exec(ctx, query,
		b.Title,
		b.Slug,
		b.Description,
		b.Content,
		b.Photo,
		links,
		b.Featured,
		b.Category,
		b.Tags,
		b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return blogConflict(err, b)
		}
		return fmt.Errorf("update blog: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("blog", b.ID)
	}

	return nil
}

// Delete removes a blog by its ID.
func (r *BlogRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM blogs WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "blogs", "Delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("blog", id)
	}

	return nil
}

func scanBlog(row pgx.Row, total ...*int) (*domain.Blog, error) {
	var (
		b              domain.Blog
		linksJSON      []byte
		authorID       *string
		authorUsername *string
		authorPhoto    *string
	)

	dest := []any{
		&b.ID,
		&b.Title,
		&b.Slug,
		&b.Description,
		&b.Content,
		&b.Photo,
		&linksJSON,
		&authorID,
		&authorUsername,
		&authorPhoto,
		&b.Featured,
		&b.Category,
		&b.Tags,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
	if len(total) > 0 {
		dest = append(dest, total[0])
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan blog: %w", err)
	}

	b.Links = []domain.BlogLink{}
	if len(linksJSON) > 0 {
		if err := json.Unmarshal(linksJSON, &b.Links); err != nil {
			return nil, fmt.Errorf("unmarshal blog links: %w", err)
		}
	}

	if authorID != nil {
		b.AuthorID = *authorID
		b.Author = &domain.AuthorInfo{ID: *authorID}
		if authorUsername != nil {
			b.Author.Username = *authorUsername
		}
		if authorPhoto != nil {
			b.Author.Photo = *authorPhoto
		}
	}

	if b.Tags == nil {
		b.Tags = []string{}
	}

	return &b, nil
}

func marshalLinks(links []domain.BlogLink) ([]byte, error) {
	if links == nil {
		links = []domain.BlogLink{}
	}
	data, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("marshal blog links: %w", err)
	}
	return data, nil
}

// nullableID maps an empty id to SQL NULL.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func blogConflict(err error, b *domain.Blog) error {
	if database.ConstraintName(err) == "blogs_slug_key" {
		return errors.Join(repository.ErrSlugTaken, apperrors.AlreadyExists("blog", "slug", b.Slug))
	}
	return apperrors.AlreadyExists("blog", "title", b.Title)
}
