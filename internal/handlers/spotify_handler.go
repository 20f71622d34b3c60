package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/soundscape/backend/internal/middleware"
	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/anonto42/soundscape/backend/pkg/spotify"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const topArtistsLimit = 5

// SpotifyHandler links Spotify accounts and proxies now-playing lookups
type SpotifyHandler struct {
	client      *spotify.Client
	userService *services.UserService
	issuer      *middleware.TokenIssuer
	log         *logrus.Logger
}

// NewSpotifyHandler creates a new SpotifyHandler. client may be nil when
// Spotify is not configured; every route then answers 503.
func NewSpotifyHandler(client *spotify.Client, userService *services.UserService, issuer *middleware.TokenIssuer, log *logrus.Logger) *SpotifyHandler {
	return &SpotifyHandler{client: client, userService: userService, issuer: issuer, log: log}
}

// RegisterSpotifyRoutes registers routes that need an authenticated user
func (h *SpotifyHandler) RegisterSpotifyRoutes(g *echo.Group) {
	g.GET("/spotify/connect", h.Connect)
	g.GET("/spotify/now-playing", h.NowPlaying)
	g.GET("/spotify/matches", h.Matches)
	g.DELETE("/spotify/link", h.Unlink)
}

// RegisterCallbackRoute registers the OAuth redirect target. It is public:
// the state token identifies the user.
func (h *SpotifyHandler) RegisterCallbackRoute(g *echo.Group) {
	g.GET("/spotify/callback", h.Callback)
}

func (h *SpotifyHandler) enabled() error {
	if h.client == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Spotify integration is not configured")
	}
	return nil
}

// Connect returns the Spotify consent URL for the caller
func (h *SpotifyHandler) Connect(c echo.Context) error {
	if err := h.enabled(); err != nil {
		return err
	}
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	state, err := h.issuer.IssueSpotifyState(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to start Spotify login").SetInternal(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"url": h.client.AuthCodeURL(state)}})
}

// Callback completes the OAuth round trip and stores the account on the user
func (h *SpotifyHandler) Callback(c echo.Context) error {
	if err := h.enabled(); err != nil {
		return err
	}
	if reason := c.QueryParam("error"); reason != "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Spotify authorization failed: "+reason)
	}

	code, state := c.QueryParam("code"), c.QueryParam("state")
	if code == "" || state == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing code or state")
	}
	userID, err := h.issuer.ParseSpotifyState(state)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired state")
	}

	ctx := c.Request().Context()
	token, err := h.client.Exchange(ctx, code)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("spotify code exchange failed")
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to exchange Spotify authorization code")
	}

	profile, err := h.client.Profile(ctx, token.AccessToken)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("spotify profile fetch failed")
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to fetch Spotify profile")
	}

	artists, err := h.client.TopArtists(ctx, token.AccessToken, topArtistsLimit)
	if err != nil {
		// not fatal, the link still works without them
		h.log.WithError(err).WithField("user_id", userID).Info("spotify top artists unavailable")
	}

	user, err := h.userService.LinkSpotify(ctx, userID, services.SpotifyAccount{
		UserID:       profile.ID,
		DisplayName:  profile.DisplayName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TopArtists:   artists,
	})
	if err != nil {
		return serviceError(err, "Failed to link Spotify account")
	}

	h.log.WithFields(logrus.Fields{"user_id": user.ID, "spotify_user_id": profile.ID}).Info("spotify account linked")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}

// NowPlaying returns the caller's currently playing track
func (h *SpotifyHandler) NowPlaying(c echo.Context) error {
	if err := h.enabled(); err != nil {
		return err
	}
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	accessToken, err := h.userService.SpotifyAccessToken(ctx, currentUserID)
	if err != nil {
		return serviceError(err, "Failed to load Spotify account")
	}

	playing, err := h.client.CurrentlyPlaying(ctx, accessToken)
	if err != nil {
		if errors.Is(err, spotify.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Spotify session expired, reconnect your account")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to reach Spotify").SetInternal(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": playing})
}

// Matches lists other users with a connected Spotify account
func (h *SpotifyHandler) Matches(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	users, err := h.userService.MusicMatches(c.Request().Context(), currentUserID)
	if err != nil {
		return serviceError(err, "Failed to load matches")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}

// Unlink removes the caller's Spotify account
func (h *SpotifyHandler) Unlink(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	user, err := h.userService.UnlinkSpotify(c.Request().Context(), currentUserID)
	if err != nil {
		return serviceError(err, "Failed to unlink Spotify account")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}
