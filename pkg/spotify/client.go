// Package spotify is a thin client for the parts of the Spotify Web API the
// backend displays: the account profile, top artists and the current track.
// Access tokens are used as stored; refreshing them is left to the user
// reconnecting the account.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const (
	DefaultAPIBaseURL = "https://api.spotify.com/v1"
	authURL           = "https://accounts.spotify.com/authorize"
	tokenURL          = "https://accounts.spotify.com/api/token"
)

var DefaultScopes = []string{
	"user-read-email",
	"user-read-private",
	"user-top-read",
	"user-read-currently-playing",
	"user-read-playback-state",
}

// ErrUnauthorized means Spotify rejected the stored access token.
var ErrUnauthorized = errors.New("spotify: access token rejected")

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	APIBaseURL   string
	AuthURL      string
	TokenURL     string
}

type Client struct {
	oauth   *oauth2.Config
	apiBase string
}

func NewClient(cfg Config) *Client {
	endpoint := oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInHeader}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       DefaultScopes,
		},
		apiBase: strings.TrimRight(apiBase, "/"),
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.oauth.Exchange(ctx, code)
}

type Profile struct {
	ID           string
	DisplayName  string
	Email        string
	ProfileImage string
}

type NowPlaying struct {
	IsPlaying  bool   `json:"isPlaying"`
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName,omitempty"`
	AlbumName  string `json:"albumName,omitempty"`
	AlbumImage string `json:"albumImage,omitempty"`
	TrackURL   string `json:"trackUrl,omitempty"`
}

type image struct {
	URL string `json:"url"`
}

type profileResponse struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Images      []image `json:"images"`
}

type currentlyPlayingResponse struct {
	IsPlaying bool `json:"is_playing"`
	Item      *struct {
		Name    string `json:"name"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
		Album struct {
			Name   string  `json:"name"`
			Images []image `json:"images"`
		} `json:"album"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	} `json:"item"`
}

type topArtistsResponse struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
}

// Profile fetches /me.
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var body profileResponse
	if _, err := c.get(ctx, accessToken, "/me", &body); err != nil {
		return nil, err
	}

	p := &Profile{ID: body.ID, DisplayName: body.DisplayName, Email: body.Email}
	if p.DisplayName == "" {
		p.DisplayName = body.ID
	}
	if len(body.Images) > 0 {
		p.ProfileImage = body.Images[0].URL
	}
	return p, nil
}

// CurrentlyPlaying fetches /me/player/currently-playing. An idle player is
// reported as IsPlaying=false, not as an error.
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (*NowPlaying, error) {
	var body currentlyPlayingResponse
	status, err := c.get(ctx, accessToken, "/me/player/currently-playing", &body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || !body.IsPlaying || body.Item == nil {
		return &NowPlaying{IsPlaying: false, TrackName: "No track currently playing"}, nil
	}

	np := &NowPlaying{
		IsPlaying: true,
		TrackName: body.Item.Name,
		AlbumName: body.Item.Album.Name,
		TrackURL:  body.Item.ExternalURLs.Spotify,
	}
	if len(body.Item.Artists) > 0 {
		np.ArtistName = body.Item.Artists[0].Name
	}
	if len(body.Item.Album.Images) > 0 {
		np.AlbumImage = body.Item.Album.Images[0].URL
	}
	return np, nil
}

// TopArtists returns up to limit artist names, most listened first.
func (c *Client) TopArtists(ctx context.Context, accessToken string, limit int) ([]string, error) {
	var body topArtistsResponse
	if _, err := c.get(ctx, accessToken, fmt.Sprintf("/me/top/artists?limit=%d", limit), &body); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(body.Items))
	for _, a := range body.Items {
		names = append(names, a.Name)
	}
	return names, nil
}

func (c *Client) get(ctx context.Context, accessToken, path string, out interface{}) (int, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("spotify: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return resp.StatusCode, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return resp.StatusCode, fmt.Errorf("spotify: GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("spotify: decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}
