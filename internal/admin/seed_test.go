package admin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2beens/portfolio/internal/admin"
	"github.com/2beens/portfolio/internal/admin/admintest"
	"github.com/2beens/portfolio/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := admintest.NewMemoryStore()

	a, created, err := admin.Seed(ctx, store, " Admin@Portfolio.com", "Admin@123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin@portfolio.com", a.Email)
	assert.Equal(t, admin.RoleAdmin, a.Role)
	assert.True(t, pkg.CheckPasswordHash("Admin@123", a.PasswordHash))

	again, created, err := admin.Seed(ctx, store, "admin@portfolio.com", "Other#456", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, 1, store.Count())

	stored, err := store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, pkg.CheckPasswordHash("Admin@123", stored.PasswordHash))
	assert.True(t, pkg.CheckPasswordHash("Other#456", stored.PasswordHash))
}

func TestSeed_Errors(t *testing.T) {
	ctx := context.Background()
	store := admintest.NewMemoryStore()

	_, _, err := admin.Seed(ctx, store, "", "pass", bcrypt.MinCost)
	assert.Error(t, err)
	_, _, err = admin.Seed(ctx, store, "a@x.com", "", bcrypt.MinCost)
	assert.Error(t, err)

	store.FailWith = errors.New("db down")
	_, _, err = admin.Seed(ctx, store, "a@x.com", "pass", bcrypt.MinCost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
