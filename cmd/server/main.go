package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/soundscape/backend/internal/handlers"
	"github.com/anonto42/soundscape/backend/internal/middleware"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/internal/router"
	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/anonto42/soundscape/backend/pkg/cache"
	"github.com/anonto42/soundscape/backend/pkg/config"
	"github.com/anonto42/soundscape/backend/pkg/firebase"
	"github.com/anonto42/soundscape/backend/pkg/metrics"
	"github.com/anonto42/soundscape/backend/pkg/spotify"
	"github.com/anonto42/soundscape/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		// Infrastructure
		fx.Provide(
			config.Load,
			config.NewLogger,
			config.InitDB,
			newPostgres,
			newRedisClient,
			newFollowStatsCache,
			newFirebaseVerifier,
			newTokenIssuer,
			newSpotifyClient,
		),

		// Repositories
		fx.Provide(
			newUserRepository,
			newFollowRepository,
			repositories.NewPostgresMessageRepository,
			repositories.NewPostgresNotificationRepository,
			newMongoPostRepository,
			newPostRepository,
		),

		// Services
		fx.Provide(
			services.NewFollowService,
			services.NewMessageService,
			services.NewPostService,
			services.NewUserService,
		),

		// HTTP
		fx.Provide(
			handlers.NewAuthHandler,
			handlers.NewUserHandler,
			handlers.NewFollowHandler,
			handlers.NewMessageHandler,
			handlers.NewPostHandler,
			handlers.NewLikeHandler,
			handlers.NewFeedHandler,
			handlers.NewNotificationHandler,
			handlers.NewSpotifyHandler,
			newRouterHandlers,
			newServer,
		),

		fx.Invoke(registerStoreHooks, registerServerHooks, registerMetricsHooks),
	)

	if err := app.Start(context.Background()); err != nil {
		logrus.Fatalf("Failed to start application: %v", err)
	}

	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logrus.Errorf("Failed to stop application cleanly: %v", err)
	}
}

func newPostgres(db *config.DB) *gorm.DB {
	return db.Postgres
}

func newRedisClient(cfg *config.Config, log *logrus.Logger) (*redis.Client, error) {
	return cache.NewRedisClient(cfg.RedisURL, log)
}

// newFollowStatsCache returns a nil interface, not a typed nil, when Redis is off.
func newFollowStatsCache(cfg *config.Config, client *redis.Client) repositories.FollowStatsCache {
	if client == nil {
		return nil
	}
	return repositories.NewRedisFollowStatsCache(client, cfg.FollowStatsTTL)
}

func newFirebaseVerifier(cfg *config.Config, log *logrus.Logger) (handlers.TokenVerifier, error) {
	app, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath, log)
	if err != nil || app == nil {
		return nil, err
	}
	return app.AuthClient, nil
}

func newTokenIssuer(cfg *config.Config) *middleware.TokenIssuer {
	return middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
}

func newSpotifyClient(cfg *config.Config, log *logrus.Logger) *spotify.Client {
	if !cfg.SpotifyEnabled() {
		log.Warn("SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET not set, Spotify linking disabled")
		return nil
	}
	return spotify.NewClient(spotify.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURL:  cfg.SpotifyRedirectURL,
	})
}

func newUserRepository(db *gorm.DB) repositories.UserRepository {
	return repositories.NewPostgresUserRepository(db)
}

func newFollowRepository(db *gorm.DB) repositories.FollowRepository {
	return repositories.NewPostgresFollowRepository(db)
}

func newMongoPostRepository(db *config.DB) *repositories.MongoPostRepository {
	return repositories.NewMongoPostRepository(db.MongoDB)
}

func newPostRepository(repo *repositories.MongoPostRepository) repositories.PostRepository {
	return repo
}

func newRouterHandlers(
	db *config.DB,
	auth *handlers.AuthHandler,
	user *handlers.UserHandler,
	follow *handlers.FollowHandler,
	message *handlers.MessageHandler,
	post *handlers.PostHandler,
	like *handlers.LikeHandler,
	feed *handlers.FeedHandler,
	notification *handlers.NotificationHandler,
	spotifyHandler *handlers.SpotifyHandler,
) router.Handlers {
	return router.Handlers{
		Auth:         auth,
		User:         user,
		Follow:       follow,
		Message:      message,
		Post:         post,
		Like:         like,
		Feed:         feed,
		Notification: notification,
		Spotify:      spotifyHandler,
		Health:       db,
	}
}

func newServer(h router.Handlers, issuer *middleware.TokenIssuer, log *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, log)
	router.SetupRoutes(e, h, issuer, log)
	return e
}

// registerStoreHooks migrates the schema before serving and closes the stores last.
func registerStoreHooks(lc fx.Lifecycle, db *config.DB, posts *repositories.MongoPostRepository, redisClient *redis.Client, log *logrus.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := repositories.Migrate(db.Postgres); err != nil {
				return err
			}
			log.Info("PostgreSQL auto-migrations completed.")

			if err := posts.EnsureIndexes(ctx); err != nil {
				return err
			}
			log.Info("MongoDB post indexes ensured.")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					log.WithError(err).Warn("Error closing Redis client")
				}
			}
			db.CloseDB()
			return nil
		},
	})
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, log *logrus.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			log.Infof("API server listening on :%s", cfg.Port)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			log.Info("Shutting down server...")
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Errorf("Server forced to shutdown: %v", err)
				return err
			}
			log.Info("Server exited gracefully")
			return nil
		},
	})
}

// registerMetricsHooks serves Prometheus metrics on a separate port.
func registerMetricsHooks(lc fx.Lifecycle, cfg *config.Config, log *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("Metrics server failed: %v", err)
				}
			}()
			log.Infof("Metrics server listening on :%s", cfg.MetricsPort)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return nil
}
