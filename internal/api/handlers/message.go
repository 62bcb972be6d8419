package handlers

import (
	"net/http"
	"strconv"

	"channel-chat/internal/api/middleware"
	"channel-chat/internal/models"
	"channel-chat/internal/services"
	"channel-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// GetChannelMessages godoc
// @Summary Get messages in a channel
// @Description Page through channel history, oldest first within a page
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Param before query string false "Return messages older than this message id"
// @Success 200 {object} models.PaginatedMessagesResponse "Paginated messages"
// @Failure 400 {object} models.ErrorResponse "Invalid cursor"
// @Failure 403 {object} models.ErrorResponse "Channel is private"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /messages/channel/{id} [get]
func (h *MessageHandler) GetChannelMessages(c *gin.Context) {
	channelID, ok := pathID(c)
	if !ok {
		return
	}

	var before *int64
	if b := c.Query("before"); b != "" {
		parsed, err := strconv.ParseInt(b, 10, 64)
		if err != nil {
			response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "invalid before cursor")
			return
		}
		before = &parsed
	}

	messages, err := h.messageService.GetMessages(c.Request.Context(), uint(channelID), middleware.UserID(c), before, services.DefaultPageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	page := models.PaginatedMessagesResponse{Items: messages}
	if len(messages) == services.DefaultPageSize {
		cursor := strconv.FormatInt(messages[0].ID, 10)
		page.NextCursor = &cursor
	}
	c.JSON(http.StatusOK, page)
}

// SearchMessages godoc
// @Summary Search messages in a channel
// @Description Case-insensitive substring search, newest first, at most 20 results
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Param q query string true "Search text"
// @Success 200 {array} models.MessageResponse "Matching messages"
// @Failure 403 {object} models.ErrorResponse "Channel is private"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /messages/channel/{id}/search [get]
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	channelID, ok := pathID(c)
	if !ok {
		return
	}
	messages, err := h.messageService.SearchMessages(c.Request.Context(), uint(channelID), middleware.UserID(c), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage godoc
// @Summary Send a message
// @Description Store a message and broadcast it to the channel's live connections
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SendMessageRequest true "Message"
// @Success 201 {object} models.MessageResponse "Message created"
// @Failure 400 {object} models.ErrorResponse "Empty text"
// @Failure 403 {object} models.ErrorResponse "Channel is private"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, err.Error())
		return
	}
	msg, err := h.messageService.SendMessage(c.Request.Context(), req.ChannelID, middleware.UserID(c), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// EditMessage godoc
// @Summary Edit a message
// @Description Replace the text of one of your own messages
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param request body models.EditMessageRequest true "New text"
// @Success 200 {object} models.MessageResponse "Message updated"
// @Failure 400 {object} models.ErrorResponse "Empty text"
// @Failure 403 {object} models.ErrorResponse "Not the sender"
// @Failure 404 {object} models.ErrorResponse "Message not found"
// @Router /messages/{id} [patch]
func (h *MessageHandler) EditMessage(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}
	var req models.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, err.Error())
		return
	}
	msg, err := h.messageService.EditMessage(c.Request.Context(), id, middleware.UserID(c), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage godoc
// @Summary Delete a message
// @Description Permanently delete one of your own messages
// @Tags messages
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 204 "Deleted"
// @Failure 403 {object} models.ErrorResponse "Not the sender"
// @Failure 404 {object} models.ErrorResponse "Message not found"
// @Router /messages/{id} [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}
	if err := h.messageService.DeleteMessage(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func messageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "invalid message id")
		return 0, false
	}
	return id, true
}
