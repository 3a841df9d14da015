package service

import (
	"context"
	"errors"
	"testing"

	"quickcart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sessions.Register(ctx, "Someone", "customer@test.com", "pw")
	assert.True(t, errors.Is(err, models.ErrEmailAlreadyRegistered))

	// exact match only
	_, err = h.sessions.Register(ctx, "Someone", "Customer@test.com", "pw")
	assert.NoError(t, err)
}

func TestRegisterRequiresFields(t *testing.T) {
	h := newHarness(t)

	_, err := h.sessions.Register(context.Background(), "", "x@test.com", "pw")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestRegisterPersistsPasswordButNeverReturnsIt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.sessions.Register(ctx, "Alice", "alice@test.com", "pw123")
	require.NoError(t, err)
	assert.Empty(t, sess.User.Password)
	assert.NotEmpty(t, sess.User.ID)

	state, err := h.store.Load(ctx)
	require.NoError(t, err)
	idx := state.FindUserByEmail("alice@test.com")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "pw123", state.Users[idx].Password)
	require.NotNil(t, state.CurrentUser)
	assert.Empty(t, state.CurrentUser.Password)

	current, err := h.sessions.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, current.ID)
}

func TestLogoutClearsSessionAndCurrentUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.login(t, "customer@test.com", "password123")

	resolved, err := h.sessions.Resolve(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, resolved.User.ID)

	require.NoError(t, h.sessions.Logout(ctx, sess))

	_, err = h.sessions.Resolve(sess.ID)
	assert.True(t, errors.Is(err, models.ErrNotAuthenticated))

	current, err := h.sessions.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLogoutKeepsAnotherUsersCurrentPointer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.login(t, "customer@test.com", "password123")
	h.login(t, "admin@test.com", "root")

	require.NoError(t, h.sessions.Logout(ctx, first))

	current, err := h.sessions.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "admin", current.ID)
}

func TestUpdateWishlist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.login(t, "customer@test.com", "password123")

	user, err := h.sessions.UpdateWishlist(ctx, sess, []string{"p1", "p3", "p1", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, user.Wishlist)

	resolved, err := h.sessions.Resolve(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, resolved.User.Wishlist)

	_, err = h.sessions.UpdateWishlist(ctx, nil, []string{"p1"})
	assert.True(t, errors.Is(err, models.ErrNotAuthenticated))
}

func TestEnsureAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.sessions.EnsureAdmin(ctx, "", "customer@test.com", "newpw"))
	sess := h.login(t, "customer@test.com", "newpw")
	assert.True(t, sess.User.IsAdmin())

	require.NoError(t, h.sessions.EnsureAdmin(ctx, "Ops", "ops@test.com", "secret"))
	ops := h.login(t, "ops@test.com", "secret")
	assert.Equal(t, "Ops", ops.User.Name)
	assert.True(t, ops.User.IsAdmin())
}
