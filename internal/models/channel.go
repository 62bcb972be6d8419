package models

import (
	"time"

	"github.com/samber/lo"
)

/** --------------------ENTITIES-------------------- */

// Channel is a named conversation. Name is stored trimmed and lower-cased.
type Channel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	IsPrivate bool      `gorm:"not null;default:false" json:"isPrivate"`
	CreatedBy uint      `gorm:"not null" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`

	Members []ChannelMember `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE" json:"-"`
}

// ChannelMember is one roster row. The composite primary key makes membership a set.
type ChannelMember struct {
	ChannelID uint      `gorm:"primaryKey;autoIncrement:false" json:"channelId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// MemberIDs returns the roster user ids.
func (c *Channel) MemberIDs() []uint {
	return lo.Map(c.Members, func(m ChannelMember, _ int) uint { return m.UserID })
}

func (c *Channel) HasMember(userID uint) bool {
	return lo.ContainsBy(c.Members, func(m ChannelMember) bool { return m.UserID == userID })
}

/** -------------------- DTOs -------------------- */

type CreateChannelRequest struct {
	Name      string `json:"name" binding:"required"`
	IsPrivate bool   `json:"isPrivate"`
}

type InviteRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

// ChannelSummary is a channel list row.
type ChannelSummary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	IsPrivate   bool      `json:"isPrivate"`
	CreatedBy   uint      `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	MemberCount int       `json:"memberCount"`
}

type ChannelResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	IsPrivate bool      `json:"isPrivate"`
	CreatedBy uint      `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Members   []uint    `json:"members"`
}

func NewChannelResponse(c *Channel) ChannelResponse {
	return ChannelResponse{
		ID:        c.ID,
		Name:      c.Name,
		IsPrivate: c.IsPrivate,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		Members:   c.MemberIDs(),
	}
}

type PresenceResponse struct {
	ChannelID uint   `json:"channelId"`
	UserIDs   []uint `json:"userIds"`
}
