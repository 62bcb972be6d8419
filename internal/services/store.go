package services

import (
	"context"

	"channel-chat/internal/models"
)

// ChannelStore is the durable channel and roster contract.
type ChannelStore interface {
	Create(ctx context.Context, name string, isPrivate bool, creatorID uint) (*models.Channel, error)
	Get(ctx context.Context, id uint) (*models.Channel, error)
	List(ctx context.Context) ([]models.ChannelSummary, error)
	AddMember(ctx context.Context, channelID, userID uint) error
	RemoveMember(ctx context.Context, channelID, userID uint) error
}

// MessageStore is the durable message contract. ListBefore returns oldest first,
// SearchText newest first.
type MessageStore interface {
	Create(ctx context.Context, channelID, senderID uint, text string) (*models.Message, error)
	Get(ctx context.Context, id int64) (*models.Message, error)
	ListBefore(ctx context.Context, channelID uint, beforeID *int64, limit int) ([]models.Message, error)
	UpdateText(ctx context.Context, id int64, text string) (*models.Message, error)
	Delete(ctx context.Context, id int64) error
	SearchText(ctx context.Context, channelID uint, query string, limit int) ([]models.Message, error)
}

type UserStore interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

// Broadcaster fans an event out to every connection in a channel room.
type Broadcaster interface {
	Broadcast(channelID uint, env *models.Envelope)
}

// EventSink receives message lifecycle events after they were broadcast.
type EventSink interface {
	Publish(ctx context.Context, channelID uint, env *models.Envelope) error
}

// RosterListener is told when a user lost access to a private channel, so live
// connections can be dropped from its room.
type RosterListener interface {
	MemberRemoved(channelID, userID uint)
}
