package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followService *services.FollowService
	userService   *services.UserService
	log           *logrus.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followService *services.FollowService, userService *services.UserService, log *logrus.Logger) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		userService:   userService,
		log:           log,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
}

// followResult is the envelope clients use to update a follow button in place.
type followResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	FollowerCount int64  `json:"followerCount"`
	IsFollowing   bool   `json:"isFollowing"`
}

// FollowUser follows a user. Refusals (self, unknown user, already following)
// are reported in the envelope rather than as HTTP errors.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUserIDParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ok, err := h.followService.Follow(ctx, currentUserID, targetID)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"follower_id": currentUserID, "followee_id": targetID}).Error("follow failed")
		return c.JSON(http.StatusOK, followResult{Message: "Failed to follow user"})
	}
	if !ok {
		return c.JSON(http.StatusOK, followResult{Message: "Failed to follow user"})
	}

	return h.respondWithState(ctx, c, currentUserID, targetID, "User followed")
}

// UnfollowUser unfollows a user. Unfollowing someone you don't follow succeeds.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUserIDParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.followService.Unfollow(ctx, currentUserID, targetID); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"follower_id": currentUserID, "followee_id": targetID}).Error("unfollow failed")
		return c.JSON(http.StatusOK, followResult{Message: "Failed to unfollow user"})
	}

	return h.respondWithState(ctx, c, currentUserID, targetID, "User unfollowed")
}

func (h *FollowHandler) respondWithState(ctx context.Context, c echo.Context, viewerID, targetID uint, message string) error {
	count, err := h.followService.FollowerCount(ctx, targetID)
	if err != nil {
		return serviceError(err, "Failed to load follower count")
	}
	following, err := h.followService.IsFollowing(ctx, viewerID, targetID)
	if err != nil {
		return serviceError(err, "Failed to load follow state")
	}
	return c.JSON(http.StatusOK, followResult{
		Success:       true,
		Message:       message,
		FollowerCount: count,
		IsFollowing:   following,
	})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listUsers(c, h.followService.Followers)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listUsers(c, h.followService.Following)
}

func (h *FollowHandler) listUsers(c echo.Context, list func(context.Context, uint) ([]models.User, error)) error {
	userID, err := parseUserIDParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.userService.GetByID(ctx, userID); err != nil {
		return serviceError(err, "Failed to load user")
	}

	users, err := list(ctx, userID)
	if err != nil {
		return serviceError(err, "Failed to load users")
	}
	if err := h.followService.PopulateFollowStatsAll(ctx, users, getUserIDFromContext(c)); err != nil {
		return serviceError(err, "Failed to load follow stats")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"users": users,
			"count": len(users),
		},
	})
}

// GetFollowStatus reports the relationship between the caller and a user
func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUserIDParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	isFollowing, err := h.followService.IsFollowing(ctx, currentUserID, targetID)
	if err != nil {
		return serviceError(err, "Failed to load follow status")
	}
	areMutual, err := h.followService.AreMutualFollowers(ctx, currentUserID, targetID)
	if err != nil {
		return serviceError(err, "Failed to load follow status")
	}
	followers, err := h.followService.FollowerCount(ctx, targetID)
	if err != nil {
		return serviceError(err, "Failed to load follow status")
	}
	following, err := h.followService.FollowingCount(ctx, targetID)
	if err != nil {
		return serviceError(err, "Failed to load follow status")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"isFollowing":    isFollowing,
			"areMutual":      areMutual,
			"followerCount":  followers,
			"followingCount": following,
		},
	})
}
