package user_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"invoice-system/internal/domain/user"
	"invoice-system/internal/platform/validate"
	"invoice-system/internal/repository/memory"
)

func newStore() *user.Store {
	return user.NewStore(memory.NewUserRepo(), user.WithCost(bcrypt.MinCost))
}

func TestCreateHashesPasswordAndDefaults(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	u, err := store.Create(ctx, user.NewUser{Name: "John", Email: "john@example.com", Password: "s3cret"})
	require.NoError(t, err)

	assert.NotZero(t, u.ID)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.Equal(t, user.StatusActive, u.Status)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, store.Verify(u, "s3cret"))
	assert.False(t, store.Verify(u, "wrong"))
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	_, err := store.Create(ctx, user.NewUser{Name: "A", Email: "a@example.com", Password: "x"})
	require.NoError(t, err)
	_, err = store.Create(ctx, user.NewUser{Name: "B", Email: "a@example.com", Password: "y"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestFindByEmailIsCaseSensitive(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	_, err := store.Create(ctx, user.NewUser{Name: "A", Email: "Ann@example.com", Password: "x"})
	require.NoError(t, err)

	_, err = store.FindByEmail(ctx, "ann@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)

	u, err := store.FindByEmail(ctx, "Ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "A", u.Name)
}

func TestTouchLastLoginAndRoles(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	u, err := store.Create(ctx, user.NewUser{Name: "Root", Email: "root@example.com", Password: "x", Role: user.RoleSuperAdmin})
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.TouchLastLogin(ctx, u.ID, at))

	got, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, at, *got.LastLogin)

	ok, err := store.ExistsWithRole(ctx, user.RoleSuperAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ExistsWithRole(ctx, user.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRejectsPasswordOverBcryptLimit(t *testing.T) {
	repo := memory.NewUserRepo()
	store := user.NewStore(repo, user.WithCost(bcrypt.MinCost))
	ctx := context.Background()

	_, err := store.Create(ctx, user.NewUser{Name: "A", Email: "a@example.com", Password: strings.Repeat("é", 37)})
	assert.ErrorIs(t, err, validate.ErrValidation)
	assert.EqualError(t, err, "password must be at most 72 bytes")

	_, err = repo.GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}
