package handlers

import (
	"net/http"

	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postService *services.PostService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postService *services.PostService) *FeedHandler {
	return &FeedHandler{postService: postService}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns posts by followed users and the caller, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	page, limit := pageParams(c, 10, 50)
	skip := int64((page - 1) * limit)

	feed, err := h.postService.Feed(c.Request().Context(), currentUserID, skip, int64(limit))
	if err != nil {
		return serviceError(err, "Failed to load feed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": feed.Posts,
		},
		"meta": pageMeta(page, limit, feed.Total),
	})
}
