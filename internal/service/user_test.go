package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

func TestCreateUser_DefaultsToUserRole(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.CreateUser(ctx, &CreateUserInput{
		Username: "carol", Email: " Carol@Example.com ", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, "carol@example.com", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	ok, err := auth.CheckPassword("s3cret-pass", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateUser_AdminRole(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.CreateUser(ctx, &CreateUserInput{
		Username: "root", Email: "root@example.com", Password: "pw", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestCreateUser_UnknownRole(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo, newTestLogger())

	_, err := svc.CreateUser(context.Background(), &CreateUserInput{
		Username: "x", Email: "x@example.com", Password: "pw", Role: "superuser",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateUser_RehashesPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo, newTestLogger())
	ctx := context.Background()

	existing := &domain.User{ID: "u-1", Username: "dave", Email: "dave@example.com", PasswordHash: "old", Role: domain.RoleUser}
	repo.On("GetByID", ctx, "u-1").Return(existing, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	pw := "new-password"
	role := "admin"
	user, err := svc.UpdateUser(ctx, "u-1", &UpdateUserInput{Password: &pw, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	ok, err := auth.CheckPassword(pw, user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "u-1").Return(&domain.User{ID: "u-1", Role: domain.RoleUser}, nil)

	role := "owner"
	_, err := svc.UpdateUser(ctx, "u-1", &UpdateUserInput{Role: &role})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteUser_NotFound(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Delete", ctx, "u-404").Return(apperrors.NotFound("user", "u-404"))

	err := svc.DeleteUser(ctx, "u-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
