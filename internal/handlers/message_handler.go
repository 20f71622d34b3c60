package handlers

import (
	"net/http"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles direct messages between mutual followers
type MessageHandler struct {
	messageService *services.MessageService
	userService    *services.UserService
}

func NewMessageHandler(messageService *services.MessageService, userService *services.UserService) *MessageHandler {
	return &MessageHandler{messageService: messageService, userService: userService}
}

func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/messages", h.GetContacts)
	g.GET("/messages/:username", h.GetConversation)
	g.POST("/messages/:username", h.SendMessage)
}

// GetContacts lists the users the caller can message
func (h *MessageHandler) GetContacts(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	users, err := h.messageService.Contacts(c.Request().Context(), currentUserID)
	if err != nil {
		return serviceError(err, "Failed to load contacts")
	}

	contacts := make([]models.UserCompact, len(users))
	for i := range users {
		contacts[i] = users[i].ToCompact()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"contacts": contacts}})
}

func (h *MessageHandler) GetConversation(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	other, err := h.userService.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		return serviceError(err, "Failed to load user")
	}

	messages, err := h.messageService.Conversation(ctx, currentUserID, other.ID)
	if err != nil {
		return serviceError(err, "Failed to load conversation")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"with":     other.ToCompact(),
			"messages": messages,
		},
	})
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	other, err := h.userService.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		return serviceError(err, "Failed to load user")
	}

	msg, err := h.messageService.Send(ctx, currentUserID, other.ID, req.Content)
	if err != nil {
		return serviceError(err, "Failed to send message")
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": msg})
}
