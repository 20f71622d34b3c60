package handlers

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/soundscape/backend/internal/middleware"
	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userService   *services.UserService
	followService *services.FollowService
	firebaseAuth  TokenVerifier
	issuer        *middleware.TokenIssuer
	log           *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables Firebase login.
func NewAuthHandler(userService *services.UserService, followService *services.FollowService, firebaseAuth TokenVerifier, issuer *middleware.TokenIssuer, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		followService: followService,
		firebaseAuth:  firebaseAuth,
		issuer:        issuer,
		log:           log,
	}
}

// RegisterAuthRoutes registers the public authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// RegisterSessionRoutes registers routes that need an authenticated user
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.GET("/me", h.Me)
}

// Signup handles local user registration with username, email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userService.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return serviceError(err, "Failed to create user")
	}

	return h.respondWithToken(c, http.StatusCreated, user)
}

// SignIn accepts a username or an email as login
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userService.Authenticate(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		return serviceError(err, "Failed to sign in")
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		h.log.WithError(err).Debug("firebase token rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	identity := services.ExternalIdentity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}

	user, err := h.userService.LoginExternal(ctx, identity)
	if err != nil {
		return serviceError(err, "Failed to sign in with Firebase")
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

// Me returns the authenticated user with follow stats
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		return serviceError(err, "Failed to load profile")
	}
	if err := h.followService.PopulateFollowStats(ctx, user, userID); err != nil {
		return serviceError(err, "Failed to load profile")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := h.issuer.Issue(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}
	return c.JSON(status, echo.Map{
		"success": true,
		"data": echo.Map{
			"token": token,
			"user":  user,
		},
	})
}
