package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/pkg/database"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

const userColumns = `id, username, email, password_hash, photo, role, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "users", "Create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.Photo,
		string(u.Role),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return userConflict(err, u)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their unique identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (u *domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "users", "GetByID", query)
	defer func() { end(err) }()

	u, err = scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", id)
	}
	return u, err
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	ctx, end := database.TraceQuery(ctx, "users", "GetByEmail", query)
	defer func() { end(err) }()

	u, err = scanUser(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", email)
	}
	return u, err
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) (users []domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "users", "List", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users = []domain.User{}
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, *u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, photo = $4, role = $5, updated_at = $6
		WHERE id = $7`

	ctx, end := database.TraceQuery(ctx, "users", "Update", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.Photo,
		string(u.Role),
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return userConflict(err, u)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// Delete removes a user from the database by their ID.
func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "users", "Delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (n int, err error) {
	query := `SELECT count(*) FROM users`

	ctx, end := database.TraceQuery(ctx, "users", "Count", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Photo,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func userConflict(err error, u *domain.User) error {
	if database.ConstraintName(err) == "users_username_key" {
		return apperrors.AlreadyExists("user", "username", u.Username)
	}
	return apperrors.AlreadyExists("user", "email", u.Email)
}
