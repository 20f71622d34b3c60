package handlers

import (
	"net/http"

	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	postService *services.PostService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(postService *services.PostService) *LikeHandler {
	return &LikeHandler{postService: postService}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.ToggleLike)
}

// ToggleLike likes a post, or removes the caller's like if present
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	post, err := h.postService.ToggleLike(c.Request().Context(), c.Param("id"), currentUserID)
	if err != nil {
		return serviceError(err, "Failed to update like")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"liked":      post.IsLiked,
			"likesCount": post.LikesCount,
		},
	})
}
