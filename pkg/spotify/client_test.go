package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		APIBaseURL:   srv.URL,
		TokenURL:     srv.URL + "/token",
	})
}

func TestProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sp-1","display_name":"DJ Test","email":"dj@example.com","images":[{"url":"http://img/1"}]}`))
	})

	profile, err := client.Profile(context.Background(), "access-token")
	require.NoError(t, err)
	assert.Equal(t, "sp-1", profile.ID)
	assert.Equal(t, "DJ Test", profile.DisplayName)
	assert.Equal(t, "http://img/1", profile.ProfileImage)
}

func TestCurrentlyPlaying(t *testing.T) {
	t.Run("playing", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/me/player/currently-playing", r.URL.Path)
			_, _ = w.Write([]byte(`{"is_playing":true,"item":{"name":"Song","artists":[{"name":"Artist"}],"album":{"name":"Album","images":[{"url":"http://img/a"}]},"external_urls":{"spotify":"http://open/track"}}}`))
		})

		np, err := client.CurrentlyPlaying(context.Background(), "tok")
		require.NoError(t, err)
		assert.True(t, np.IsPlaying)
		assert.Equal(t, "Song", np.TrackName)
		assert.Equal(t, "Artist", np.ArtistName)
		assert.Equal(t, "Album", np.AlbumName)
		assert.Equal(t, "http://img/a", np.AlbumImage)
	})

	t.Run("idle player", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		np, err := client.CurrentlyPlaying(context.Background(), "tok")
		require.NoError(t, err)
		assert.False(t, np.IsPlaying)
		assert.Equal(t, "No track currently playing", np.TrackName)
	})

	t.Run("expired token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.CurrentlyPlaying(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestTopArtists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/top/artists", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":[{"name":"A"},{"name":"B"}]}`))
	})

	names, err := client.TopArtists(context.Background(), "tok", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestAuthCodeURL(t *testing.T) {
	client := NewClient(Config{ClientID: "client", RedirectURL: "http://localhost/callback"})

	u, err := url.Parse(client.AuthCodeURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.spotify.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Contains(t, u.Query().Get("scope"), "user-read-currently-playing")
}

func TestExchange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	})

	tok, err := client.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
}
