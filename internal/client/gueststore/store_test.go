package gueststore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/linemk/bookstore/internal/client/gueststore"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*gueststore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guest.db")
	s, err := gueststore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestEmptyStoreReadsAsEmpty(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	cart, err := s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart)
	assert.NotNil(t, cart)

	wishlist, err := s.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Empty(t, wishlist)

	_, ok, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartRoundTripKeepsOrder(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	items := []models.CartItem{{BookID: 303, Quantity: 1}, {BookID: 101, Quantity: 2}}
	require.NoError(t, s.SaveCart(ctx, items))

	got, err := s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, got)

	// повторное сохранение заменяет, а не дописывает
	require.NoError(t, s.SaveCart(ctx, []models.CartItem{{BookID: 202, Quantity: 3}}))
	got, err = s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{BookID: 202, Quantity: 3}}, got)

	require.NoError(t, s.ClearCart(ctx))
	got, err = s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveCartRejectsBadQuantityAtomically(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCart(ctx, []models.CartItem{{BookID: 101, Quantity: 1}}))
	err := s.SaveCart(ctx, []models.CartItem{{BookID: 202, Quantity: 1}, {BookID: 303, Quantity: 0}})
	require.Error(t, err)

	got, err := s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{BookID: 101, Quantity: 1}}, got)
}

func TestWishlistRoundTrip(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	entries := []models.WishlistEntry{{BookID: 202}, {BookID: 101}}
	require.NoError(t, s.SaveWishlist(ctx, entries))
	got, err := s.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	require.NoError(t, s.ClearWishlist(ctx))
	got, err = s.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionSurvivesReopen(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, gueststore.Session{Token: "a", UserID: 7, Username: "reader"}))
	require.NoError(t, s.SaveSession(ctx, gueststore.Session{Token: "b", UserID: 7, Username: "reader"}))
	require.NoError(t, s.Close())

	reopened, err := gueststore.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	sess, ok, err := reopened.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, gueststore.Session{Token: "b", UserID: 7, Username: "reader"}, sess)

	require.NoError(t, reopened.ClearSession(ctx))
	_, ok, err = reopened.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeviceIDIsStable(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	first, err := s.DeviceID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := s.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
