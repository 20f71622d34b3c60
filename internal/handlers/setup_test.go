package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/soundscape/backend/internal/handlers"
	"github.com/anonto42/soundscape/backend/internal/middleware"
	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/internal/router"
	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/anonto42/soundscape/backend/internal/testutil"
	"github.com/anonto42/soundscape/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeHealth map[string]string

func (f fakeHealth) Health(context.Context) map[string]string { return f }

type testServer struct {
	t       *testing.T
	e       *echo.Echo
	db      *gorm.DB
	issuer  *middleware.TokenIssuer
	follows *services.FollowService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewLogger()

	userRepo := repositories.NewPostgresUserRepository(db)
	notifRepo := repositories.NewPostgresNotificationRepository(db)
	followService := services.NewFollowService(repositories.NewPostgresFollowRepository(db), userRepo, notifRepo, nil, log)
	userService := services.NewUserService(userRepo, log)
	messageService := services.NewMessageService(repositories.NewPostgresMessageRepository(db), userRepo, followService, notifRepo, log)
	postService := services.NewPostService(testutil.NewMemoryPostRepository(), userRepo, followService, notifRepo, log)
	issuer := middleware.NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e, log)
	router.SetupRoutes(e, router.Handlers{
		Auth:         handlers.NewAuthHandler(userService, followService, nil, issuer, log),
		User:         handlers.NewUserHandler(userService, followService),
		Follow:       handlers.NewFollowHandler(followService, userService, log),
		Message:      handlers.NewMessageHandler(messageService, userService),
		Post:         handlers.NewPostHandler(postService),
		Like:         handlers.NewLikeHandler(postService),
		Feed:         handlers.NewFeedHandler(postService),
		Notification: handlers.NewNotificationHandler(notifRepo, userRepo),
		Spotify:      handlers.NewSpotifyHandler(nil, userService, issuer, log),
		Health:       fakeHealth{"postgres": "up", "mongo": "up"},
	}, issuer, log)

	return &testServer{t: t, e: e, db: db, issuer: issuer, follows: followService}
}

func (s *testServer) token(user models.User) string {
	s.t.Helper()
	tok, err := s.issuer.Issue(&user)
	require.NoError(s.t, err)
	return tok
}

// do performs a request as user (zero value for anonymous) and decodes the JSON body.
func (s *testServer) do(method, path string, user models.User, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user.ID != 0 {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token(user))
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}
