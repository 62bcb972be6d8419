package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"
	"channel-chat/internal/presence"
	"channel-chat/internal/services"
	"channel-chat/internal/typing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const CodeInvalidMessage = "invalid_message"

// Gateway runs the live protocol for every connection.
type Gateway struct {
	hub      *Hub
	presence *presence.Tracker
	typing   *typing.Notifier
	guard    *services.AccessGuard
	messages *services.MessageService
	validate *validator.Validate

	// Serializes a channel's presence transitions with their snapshot broadcast.
	locks *services.ChannelLocks
}

func NewGateway(hub *Hub, tracker *presence.Tracker, notifier *typing.Notifier, guard *services.AccessGuard, messages *services.MessageService) *Gateway {
	return &Gateway{
		hub:      hub,
		presence: tracker,
		typing:   notifier,
		guard:    guard,
		messages: messages,
		validate: validator.New(),
		locks:    services.NewChannelLocks(),
	}
}

// Connect registers c, greets it and starts its pumps.
func (g *Gateway) Connect(c *Client) {
	g.hub.Register(c)
	_ = g.hub.SendTo(c, models.NewEnvelope(uuid.New().String(), models.EventConnect, models.ConnectData{
		ClientID: c.id,
		UserID:   c.userID,
	}))

	go c.writePump()
	go c.readPump(g)
}

// JoinChannel subscribes c to a channel room. A denied join only notifies c.
// Access is checked under the channel lock so a concurrent roster removal
// either rejects the join or revokes it afterwards.
func (g *Gateway) JoinChannel(ctx context.Context, c *Client, channelID uint) error {
	unlock := g.locks.Lock(channelID)
	defer unlock()

	if _, err := g.guard.Authorize(ctx, channelID, c.userID); err != nil {
		if errors.Is(err, errs.ErrForbidden) || errors.Is(err, errs.ErrNotFound) {
			g.denyAccess(c, channelID, err)
		}
		return err
	}

	if !c.addChannel(channelID) {
		return g.hub.SendTo(c, g.snapshot(channelID))
	}
	g.hub.Subscribe(channelID, c)

	if g.presence.Add(channelID, c.userID) {
		g.hub.Broadcast(channelID, g.snapshot(channelID))
		slog.Debug("User present in channel", "channelID", channelID, "userID", c.userID)
		return nil
	}
	return g.hub.SendTo(c, g.snapshot(channelID))
}

// LeaveChannel unsubscribes c. Leaving a channel c never joined is a no-op.
func (g *Gateway) LeaveChannel(c *Client, channelID uint) {
	unlock := g.locks.Lock(channelID)
	defer unlock()
	g.leave(c, channelID)
}

// MemberRemoved drops every live connection of userID from the channel room
// and tells each of them access was revoked.
func (g *Gateway) MemberRemoved(channelID, userID uint) {
	unlock := g.locks.Lock(channelID)
	defer unlock()

	for _, c := range g.hub.RoomClientsOf(channelID, userID) {
		g.leave(c, channelID)
		g.denyAccess(c, channelID, errs.ErrForbidden)
	}
	slog.Info("Revoked live channel access", "channelID", channelID, "userID", userID)
}

func (g *Gateway) leave(c *Client, channelID uint) {
	if !c.removeChannel(channelID) {
		return
	}
	g.hub.Unsubscribe(channelID, c)

	if g.presence.Remove(channelID, c.userID) {
		g.typing.Clear(channelID, c.userID)
		g.hub.Broadcast(channelID, g.snapshot(channelID))
		slog.Debug("User left channel", "channelID", channelID, "userID", c.userID)
	}
}

// Disconnect leaves every joined channel and unregisters c. Safe to call twice.
func (g *Gateway) Disconnect(c *Client) {
	for _, channelID := range c.Channels() {
		g.LeaveChannel(c, channelID)
	}
	g.hub.Unregister(c)
}

// Dispatch decodes one inbound event from c and runs it. Failures are reported
// to c alone as an error event.
func (g *Gateway) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var in models.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		g.replyError(c, "", CodeInvalidMessage, "Invalid message format")
		return
	}
	if err := in.Validate(); err != nil {
		g.replyError(c, in.ID, CodeInvalidMessage, err.Error())
		return
	}

	if err := g.route(ctx, c, &in); err != nil {
		var invalid *invalidPayloadError
		switch {
		case errors.As(err, &invalid):
			g.replyError(c, in.ID, CodeInvalidMessage, invalid.Error())
		case in.Type == models.EventJoinChannel && (errors.Is(err, errs.ErrForbidden) || errors.Is(err, errs.ErrNotFound)):
			// already answered with access.denied
		default:
			if errs.Kind(err) == errs.KindInternal {
				slog.Error("Failed to handle event", "clientID", c.id, "userID", c.userID, "type", in.Type, "error", err)
			}
			g.replyError(c, in.ID, errs.Kind(err), publicMessage(err))
		}
	}
}

func (g *Gateway) route(ctx context.Context, c *Client, in *models.Inbound) error {
	switch in.Type {
	case models.EventJoinChannel:
		var data models.ChannelRefData
		if err := g.decode(in, &data); err != nil {
			return err
		}
		return g.JoinChannel(ctx, c, data.ChannelID)

	case models.EventLeaveChannel:
		var data models.ChannelRefData
		if err := g.decode(in, &data); err != nil {
			return err
		}
		g.LeaveChannel(c, data.ChannelID)
		return nil

	case models.EventSendMessage:
		var data models.SendMessageData
		if err := g.decode(in, &data); err != nil {
			return err
		}
		_, err := g.messages.SendMessage(ctx, data.ChannelID, c.userID, data.Text)
		return err

	case models.EventEditMessage:
		var data models.EditMessageData
		if err := g.decode(in, &data); err != nil {
			return err
		}
		_, err := g.messages.EditMessage(ctx, data.MessageID, c.userID, data.Text)
		return err

	case models.EventDeleteMessage:
		var data models.DeleteMessageData
		if err := g.decode(in, &data); err != nil {
			return err
		}
		return g.messages.DeleteMessage(ctx, data.MessageID, c.userID)

	case models.EventTypingStart, models.EventTypingStop:
		var data models.ChannelRefData
		if err := g.decode(in, &data); err != nil {
			return err
		}
		if !c.InChannel(data.ChannelID) {
			return fmt.Errorf("channel %d not joined: %w", data.ChannelID, errs.ErrForbidden)
		}
		if in.Type == models.EventTypingStart {
			g.typing.Start(data.ChannelID, c.userID)
		} else {
			g.typing.Stop(data.ChannelID, c.userID)
		}
		return nil
	}
	return &invalidPayloadError{msg: fmt.Sprintf("unsupported event type %q", in.Type)}
}

type invalidPayloadError struct {
	msg string
}

func (e *invalidPayloadError) Error() string {
	return e.msg
}

func (g *Gateway) decode(in *models.Inbound, dest any) error {
	if err := json.Unmarshal(in.Data, dest); err != nil {
		return &invalidPayloadError{msg: fmt.Sprintf("invalid %s payload", in.Type)}
	}
	if err := g.validate.Struct(dest); err != nil {
		return &invalidPayloadError{msg: fmt.Sprintf("invalid %s payload: %v", in.Type, err)}
	}
	return nil
}

func (g *Gateway) snapshot(channelID uint) *models.Envelope {
	return models.NewEnvelope(uuid.New().String(), models.EventPresenceSnapshot, models.PresenceSnapshotData{
		ChannelID: channelID,
		UserIDs:   g.presence.Snapshot(channelID),
	})
}

func (g *Gateway) denyAccess(c *Client, channelID uint, err error) {
	_ = g.hub.SendTo(c, models.NewEnvelope(uuid.New().String(), models.EventAccessDenied, models.AccessDeniedData{
		ChannelID: channelID,
		Code:      errs.Kind(err),
		Message:   accessDeniedMessage(err),
	}))
}

func (g *Gateway) replyError(c *Client, requestID, code, message string) {
	_ = g.hub.SendTo(c, models.NewEnvelope(uuid.New().String(), models.EventError, models.ErrorData{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}))
}

func accessDeniedMessage(err error) string {
	if errors.Is(err, errs.ErrNotFound) {
		return "Channel not found"
	}
	return "Access to this channel is not allowed"
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return "Not found"
	case errors.Is(err, errs.ErrForbidden):
		return "Not allowed"
	case errors.Is(err, errs.ErrValidation):
		return "Invalid request"
	case errors.Is(err, errs.ErrConflict):
		return "Conflict"
	default:
		return "Internal error"
	}
}
