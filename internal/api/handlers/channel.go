package handlers

import (
	"net/http"

	"channel-chat/internal/api/middleware"
	"channel-chat/internal/models"
	"channel-chat/internal/presence"
	"channel-chat/internal/services"
	"channel-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	channelService *services.ChannelService
	guard          *services.AccessGuard
	presence       *presence.Tracker
}

func NewChannelHandler(channelService *services.ChannelService, guard *services.AccessGuard, tracker *presence.Tracker) *ChannelHandler {
	return &ChannelHandler{channelService: channelService, guard: guard, presence: tracker}
}

// ListChannels godoc
// @Summary List channels
// @Description List every channel with its member count
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChannelSummary "Channels ordered by name"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /channels [get]
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.channelService.ListChannels(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

// CreateChannel godoc
// @Summary Create a new channel
// @Description Create a public or private channel. The creator becomes its first member.
// @Tags channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateChannelRequest true "Channel creation data"
// @Success 201 {object} models.ChannelResponse "Channel created successfully"
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid input data"
// @Failure 409 {object} models.ErrorResponse "Channel name already taken"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /channels [post]
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req models.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, err.Error())
		return
	}

	channel, err := h.channelService.CreateChannel(c.Request.Context(), req.Name, req.IsPrivate, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewChannelResponse(channel))
}

// JoinChannel godoc
// @Summary Join a channel
// @Description Add the current user to the channel roster. Private channels are joined by invitation only.
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Success 204 "Joined"
// @Failure 403 {object} models.ErrorResponse "Channel is private"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id}/join [post]
func (h *ChannelHandler) JoinChannel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.channelService.JoinChannel(c.Request.Context(), uint(id), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LeaveChannel godoc
// @Summary Leave a channel
// @Description Remove the current user from the channel roster
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Success 204 "Left"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id}/leave [post]
func (h *ChannelHandler) LeaveChannel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.channelService.LeaveChannel(c.Request.Context(), uint(id), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// InviteUser godoc
// @Summary Invite a user
// @Description Add another user to the roster. Only members may invite.
// @Tags channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Param request body models.InviteRequest true "User to invite"
// @Success 204 "Invited"
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid input data"
// @Failure 403 {object} models.ErrorResponse "Inviter is not a member"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id}/invite [post]
func (h *ChannelHandler) InviteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, err.Error())
		return
	}
	if err := h.channelService.InviteUser(c.Request.Context(), uint(id), middleware.UserID(c), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPresence godoc
// @Summary Channel presence
// @Description Users with at least one live connection joined to the channel
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Success 200 {object} models.PresenceResponse "Present users in ascending id order"
// @Failure 403 {object} models.ErrorResponse "Channel is private"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id}/presence [get]
func (h *ChannelHandler) GetPresence(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.guard.Authorize(c.Request.Context(), uint(id), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PresenceResponse{
		ChannelID: uint(id),
		UserIDs:   h.presence.Snapshot(uint(id)),
	})
}
