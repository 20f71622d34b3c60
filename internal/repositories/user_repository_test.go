package repositories_test

import (
	"context"
	"testing"

	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLookupsReturnNilWhenAbsent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresUserRepository(db)

	user, err := repo.GetUserByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetUserBySpotifyID(ctx, "sp-missing")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetUserByEmailIgnoresCase(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresUserRepository(db)
	stored := testutil.NewUserStub().WithEmail("Mixed@Example.com").Insert(t, db)

	user, err := repo.GetUserByEmail(ctx, "mixed@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, stored.ID, user.ID)
}

func TestUsersExist(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresUserRepository(db)
	users := testutil.InsertUsers(t, db, 2)

	ok, err := repo.UsersExist(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UsersExist(ctx, users[0].ID, users[0].ID)
	require.NoError(t, err)
	assert.True(t, ok, "duplicates count once")

	ok, err = repo.UsersExist(ctx, users[0].ID, 12345)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UsersExist(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchUsersAndSpotifyLinked(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresUserRepository(db)

	me := testutil.NewUserStub().WithUsername("melody").WithSpotify("sp-me", "tok-me").Insert(t, db)
	testutil.NewUserStub().WithUsername("harmony").WithSpotify("sp-h", "tok-h").Insert(t, db)
	testutil.NewUserStub().WithUsername("silence").Insert(t, db)

	found, err := repo.SearchUsers(ctx, "MONY")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "harmony", found[0].Username)

	linked, err := repo.GetSpotifyLinkedUsers(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "harmony", linked[0].Username)
}
