package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */

// Message is a channel message. ID is a snowflake id and the only ordering key.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	ChannelID uint      `gorm:"not null;index:idx_messages_channel_id" json:"channelId"`
	SenderID  uint      `gorm:"not null" json:"senderId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Edited    bool      `gorm:"not null;default:false" json:"edited"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

/** -------------------- DTOs -------------------- */

type SendMessageRequest struct {
	ChannelID uint   `json:"channelId" binding:"required"`
	Text      string `json:"text"`
}

type EditMessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse is a message with its sender's display identity.
type MessageResponse struct {
	ID           int64     `json:"id,string"`
	ChannelID    uint      `json:"channelId"`
	SenderID     uint      `json:"senderId"`
	SenderName   string    `json:"senderName"`
	SenderAvatar string    `json:"senderAvatar,omitempty"`
	Text         string    `json:"text"`
	Edited       bool      `json:"edited"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewMessageResponse(m *Message, sender UserSummary) MessageResponse {
	return MessageResponse{
		ID:           m.ID,
		ChannelID:    m.ChannelID,
		SenderID:     m.SenderID,
		SenderName:   sender.Username,
		SenderAvatar: sender.Avatar,
		Text:         m.Text,
		Edited:       m.Edited,
		CreatedAt:    m.CreatedAt,
	}
}

// PaginatedMessagesResponse is one history page, oldest first.
// NextCursor is the id to pass as `before` for the previous page.
type PaginatedMessagesResponse struct {
	Items      []MessageResponse `json:"items"`
	NextCursor *string           `json:"nextCursor,omitempty"`
}
