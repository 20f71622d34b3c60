package router

import (
	"github.com/anonto42/soundscape/backend/internal/handlers"
	"github.com/anonto42/soundscape/backend/internal/middleware"
	"github.com/anonto42/soundscape/backend/pkg/config"
	"github.com/anonto42/soundscape/backend/pkg/metrics"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Follow       *handlers.FollowHandler
	Message      *handlers.MessageHandler
	Post         *handlers.PostHandler
	Like         *handlers.LikeHandler
	Feed         *handlers.FeedHandler
	Notification *handlers.NotificationHandler
	Spotify      *handlers.SpotifyHandler
	Health       handlers.HealthChecker
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, log *logrus.Logger) {
	e.Use(eMiddleware.Recover())
	// metrics wraps the request logger so it sees the final status
	e.Use(metrics.EchoMiddleware())
	e.Use(config.RequestLogger(log))
	e.Use(eMiddleware.CORS())
	log.Debug("Global middleware configured.")
}

// SetupRoutes registers all application routes
func SetupRoutes(e *echo.Echo, h Handlers, issuer *middleware.TokenIssuer, log *logrus.Logger) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(h.Health))

	// --- Unprotected routes ---
	authGroup := e.Group("/api/v1/auth")
	h.Auth.RegisterAuthRoutes(authGroup)

	public := e.Group("/api/v1")
	h.Spotify.RegisterCallbackRoute(public)
	log.Debug("Public routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(issuer))

	h.Auth.RegisterSessionRoutes(api)
	h.User.RegisterProfileRoutes(api)
	h.Follow.RegisterFollowRoutes(api)
	h.Message.RegisterMessageRoutes(api)
	h.Post.RegisterPostRoutes(api)
	h.Like.RegisterLikeRoutes(api)
	h.Feed.RegisterFeedRoutes(api)
	h.Notification.RegisterNotificationRoutes(api)
	h.Spotify.RegisterSpotifyRoutes(api)

	log.Info("All routes configured.")
}
