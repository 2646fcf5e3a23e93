package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepperswap/apiserver/internal/store"
	"github.com/pepperswap/apiserver/types"
)

func insertTrader(t *testing.T, repo *store.MemoryUserRepository, username string, wishlist, inventory []string) types.User {
	t.Helper()
	user, err := repo.Insert(context.Background(), types.User{
		Username:        username,
		HashedPassword:  "x",
		CountryCode:     "US",
		Wishlist:        wishlist,
		Inventory:       inventory,
		GrowLog:         []string{},
		ProfileComments: []string{},
	})
	require.NoError(t, err)
	return user
}

func TestNClosestWishlistMatchesOrdering(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", []string{"X", "Y"}, nil)
	insertTrader(t, repo, "alice", nil, []string{"X"})
	insertTrader(t, repo, "bob", nil, []string{"X", "Y"})
	insertTrader(t, repo, "carol", nil, []string{"Z"})

	got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, 2, got[0].WishlistMatches)
	assert.Equal(t, "alice", got[1].Username)
	assert.Equal(t, 1, got[1].WishlistMatches)
}

func TestNClosestWishlistMatchesIncludesZeroCounts(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", []string{"X"}, nil)
	insertTrader(t, repo, "alice", nil, []string{"X"})
	insertTrader(t, repo, "carol", nil, []string{"Z"})

	got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, "carol", got[1].Username)
	assert.Equal(t, 0, got[1].WishlistMatches)
}

func TestNClosestWishlistMatchesExcludesSubject(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", []string{"X"}, []string{"X"})
	insertTrader(t, repo, "alice", nil, []string{"X"})

	got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

func TestNClosestWishlistMatchesCountsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", []string{"X"}, nil)
	insertTrader(t, repo, "alice", nil, []string{"X", "X", "X"})

	got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].WishlistMatches)
}

func TestNClosestWishlistMatchesTieBreakByUsername(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", []string{"X"}, nil)
	insertTrader(t, repo, "dave", nil, []string{"X"})
	insertTrader(t, repo, "bob", nil, []string{"X"})
	insertTrader(t, repo, "carol", nil, []string{"X"})

	got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, "carol", got[1].Username)
	assert.Equal(t, "dave", got[2].Username)
}

func TestNClosestWishlistMatchesEdgeCases(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", []string{"X"}, nil)
	insertTrader(t, repo, "alice", nil, []string{"X"})

	t.Run("n zero returns empty", func(t *testing.T) {
		got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("n beyond candidate count returns all", func(t *testing.T) {
		got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 100)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := matches.NClosestWishlistMatches(ctx, "3c7f9a2e-1b4d-4c8a-9e6f-0a1b2c3d4e5f", 10)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed subject id", func(t *testing.T) {
		_, err := matches.NClosestWishlistMatches(ctx, "not valid!", 10)
		require.ErrorIs(t, err, ErrInvalidID)
	})
}

func TestNClosestWishlistMatchesEmptyWishlist(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", nil, nil)
	insertTrader(t, repo, "carol", nil, []string{"Z"})
	insertTrader(t, repo, "alice", nil, []string{"X"})

	got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, 0, got[0].WishlistMatches)
	assert.Equal(t, "carol", got[1].Username)
}

func TestNClosestWishlistMatchesAloneInDirectory(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryUserRepository()
	matches := NewMatchService(NewDirectoryService(repo))

	subject := insertTrader(t, repo, "subject", []string{"X"}, nil)

	got, err := matches.NClosestWishlistMatches(ctx, subject.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
