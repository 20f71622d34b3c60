package handlers

import (
	"net/http"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	userService   *services.UserService
	followService *services.FollowService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService, followService *services.FollowService) *UserHandler {
	return &UserHandler{userService: userService, followService: followService}
}

// profileView is a user as seen by the caller.
type profileView struct {
	*models.User
	IsOwnProfile bool `json:"is_own_profile"`
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/by-username/:username", h.GetUserByUsername)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/profile/options", h.ProfileOptions)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUserIDParam(c)
	if err != nil {
		return err
	}
	user, err := h.userService.GetByID(c.Request().Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load user")
	}
	return h.respondWithProfile(c, user)
}

func (h *UserHandler) GetUserByUsername(c echo.Context) error {
	user, err := h.userService.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return serviceError(err, "Failed to load user")
	}
	return h.respondWithProfile(c, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(err, "Failed to update profile")
	}
	return h.respondWithProfile(c, user)
}

// ProfileOptions lists the icons and banner colors a profile may use
func (h *UserHandler) ProfileOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"profileIcons": services.ProfileIcons,
			"bannerColors": services.BannerColors,
		},
	})
}

// SearchUsers searches for users by username or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	ctx := c.Request().Context()
	users, err := h.userService.Search(ctx, query)
	if err != nil {
		return serviceError(err, "Failed to search users")
	}
	if err := h.followService.PopulateFollowStatsAll(ctx, users, getUserIDFromContext(c)); err != nil {
		return serviceError(err, "Failed to search users")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}

func (h *UserHandler) respondWithProfile(c echo.Context, user *models.User) error {
	viewerID := getUserIDFromContext(c)
	if err := h.followService.PopulateFollowStats(c.Request().Context(), user, viewerID); err != nil {
		return serviceError(err, "Failed to load follow stats")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": profileView{
			User:         user,
			IsOwnProfile: viewerID != 0 && viewerID == user.ID,
		},
	})
}
