package services

import (
	"context"
	"strings"
	"testing"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) (*gorm.DB, *UserService) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return db, NewUserService(repositories.NewPostgresUserRepository(db), testutil.NewLogger())
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	_, svc := newUserService(t)

	user, err := svc.Register(ctx, "alice", "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "correct-horse", user.Password)
	assert.Equal(t, ProfileIcons[0], user.ProfileIcon)
	assert.Equal(t, BannerColors[0], user.BannerColor)

	byName, err := svc.Authenticate(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := svc.Authenticate(ctx, "ALICE@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	_, svc := newUserService(t)

	_, err := svc.Register(ctx, "bob", "bob@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob", "other@example.com", "password1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = svc.Register(ctx, "robert", "bob@example.com", "password1")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = svc.Register(ctx, "", "x@example.com", "password1")
	assert.ErrorIs(t, err, ErrMissingFields)
}

// lateSignupRepository lets a competing account commit after Register's
// availability checks, then reports the unique violation.
type lateSignupRepository struct {
	repositories.UserRepository
	competitor models.User
}

func (r *lateSignupRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.UserRepository.CreateUser(ctx, &r.competitor); err != nil {
		return err
	}
	return gorm.ErrDuplicatedKey
}

func TestRegisterRaceReportsWhichFieldClashed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		competitor models.User
		want       error
	}{
		{"email taken", models.User{Username: "carol2", Email: "carol@example.com"}, ErrEmailTaken},
		{"username taken", models.User{Username: "carol", Email: "c@example.com"}, ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewTestDB(t)
			repo := &lateSignupRepository{
				UserRepository: repositories.NewPostgresUserRepository(db),
				competitor:     tt.competitor,
			}
			svc := NewUserService(repo, testutil.NewLogger())

			_, err := svc.Register(ctx, "carol", "carol@example.com", "password1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoginExternal(t *testing.T) {
	ctx := context.Background()
	db, svc := newUserService(t)
	existing := testutil.NewUserStub().WithEmail("carol@example.com").Insert(t, db)

	linked, err := svc.LoginExternal(ctx, ExternalIdentity{UID: "uid-carol", Email: "carol@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)
	require.NotNil(t, linked.FirebaseUID)
	assert.Equal(t, "uid-carol", *linked.FirebaseUID)

	again, err := svc.LoginExternal(ctx, ExternalIdentity{UID: "uid-carol"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, again.ID)

	created, err := svc.LoginExternal(ctx, ExternalIdentity{UID: "uid-dave", Email: "dave.smith@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, created.ID)
	assert.Equal(t, "davesmith", created.Username)

	clash, err := svc.LoginExternal(ctx, ExternalIdentity{UID: "uid-dave2", Email: "dave.smith@other.org"})
	require.NoError(t, err)
	assert.Equal(t, "davesmith1", clash.Username)
}

func TestUpdateProfileIgnoresInvalidValues(t *testing.T) {
	ctx := context.Background()
	db, svc := newUserService(t)
	user := testutil.NewUserStub().Insert(t, db)

	updated, err := svc.UpdateProfile(ctx, user.ID, models.UpdateProfileRequest{
		ProfileIcon:      "🎸",
		BannerColor:      "#4ECDC4",
		Bio:              "  synth nerd  ",
		FavoriteSongID:   "track-1",
		FavoriteSongName: "Windowlicker",
	})
	require.NoError(t, err)
	assert.Equal(t, "🎸", updated.ProfileIcon)
	assert.Equal(t, "#4ECDC4", updated.BannerColor)
	assert.Equal(t, "synth nerd", updated.Bio)
	assert.Equal(t, "Windowlicker", updated.FavoriteSongName)

	unchanged, err := svc.UpdateProfile(ctx, user.ID, models.UpdateProfileRequest{
		ProfileIcon: "not-an-icon",
		BannerColor: "#000000",
		Bio:         strings.Repeat("b", 501),
	})
	require.NoError(t, err)
	assert.Equal(t, "🎸", unchanged.ProfileIcon)
	assert.Equal(t, "#4ECDC4", unchanged.BannerColor)
	assert.Equal(t, "synth nerd", unchanged.Bio)
	assert.Equal(t, "track-1", unchanged.FavoriteSongID)

	_, err = svc.UpdateProfile(ctx, 999, models.UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSpotifyLinking(t *testing.T) {
	ctx := context.Background()
	db, svc := newUserService(t)
	users := testutil.InsertUsers(t, db, 2)
	a, b := users[0].ID, users[1].ID

	_, err := svc.SpotifyAccessToken(ctx, a)
	assert.ErrorIs(t, err, ErrSpotifyNotLinked)

	linked, err := svc.LinkSpotify(ctx, a, SpotifyAccount{
		UserID:      "spotify-a",
		DisplayName: "A on Spotify",
		AccessToken: "token-a",
		TopArtists:  []string{"Björk", "Aphex Twin"},
	})
	require.NoError(t, err)
	assert.True(t, linked.SpotifyLinked())
	assert.Equal(t, "Björk, Aphex Twin", linked.TopArtists)

	token, err := svc.SpotifyAccessToken(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "token-a", token)

	_, err = svc.LinkSpotify(ctx, b, SpotifyAccount{UserID: "spotify-a", AccessToken: "token-b"})
	assert.ErrorIs(t, err, ErrSpotifyInUse)

	// relinking the same account refreshes the token
	_, err = svc.LinkSpotify(ctx, a, SpotifyAccount{UserID: "spotify-a", AccessToken: "token-a2"})
	require.NoError(t, err)

	matches, err := svc.MusicMatches(ctx, b)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, a, matches[0].ID)

	unlinked, err := svc.UnlinkSpotify(ctx, a)
	require.NoError(t, err)
	assert.False(t, unlinked.SpotifyLinked())

	_, err = svc.SpotifyAccessToken(ctx, a)
	assert.ErrorIs(t, err, ErrSpotifyNotLinked)
}
