package services

import (
	"context"
	"fmt"
	"log/slog"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"
)

// AccessGuard decides whether a user may read or join a channel.
// It reads the roster from the store on every call.
type AccessGuard struct {
	channels ChannelStore
}

func NewAccessGuard(channels ChannelStore) *AccessGuard {
	return &AccessGuard{channels: channels}
}

// Authorize returns the channel when userID may access it, errs.ErrNotFound if
// it does not exist and errs.ErrForbidden if it is private and userID is not on
// the roster.
func (g *AccessGuard) Authorize(ctx context.Context, channelID, userID uint) (*models.Channel, error) {
	channel, err := g.channels.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.IsPrivate && !channel.HasMember(userID) {
		slog.Debug("Access denied to private channel", "channelID", channelID, "userID", userID)
		return nil, fmt.Errorf("channel %d is private: %w", channelID, errs.ErrForbidden)
	}
	return channel, nil
}
