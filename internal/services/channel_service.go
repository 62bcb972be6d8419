package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"
)

// ChannelService manages channels and their rosters. Roster changes only
// happen through Join, Invite and Leave.
type ChannelService struct {
	repo     ChannelStore
	listener RosterListener
}

func NewChannelService(repo ChannelStore) *ChannelService {
	return &ChannelService{repo: repo}
}

// NormalizeChannelName trims and lower-cases a channel name.
func NormalizeChannelName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateChannel creates a channel with its creator as the first member.
func (s *ChannelService) CreateChannel(ctx context.Context, name string, isPrivate bool, creatorID uint) (*models.Channel, error) {
	name = NormalizeChannelName(name)
	if name == "" {
		return nil, fmt.Errorf("channel name is empty: %w", errs.ErrValidation)
	}

	channel, err := s.repo.Create(ctx, name, isPrivate, creatorID)
	if err != nil {
		return nil, err
	}
	slog.Info("Channel created", "channelID", channel.ID, "name", channel.Name, "private", channel.IsPrivate, "userID", creatorID)
	return channel, nil
}

func (s *ChannelService) ListChannels(ctx context.Context) ([]models.ChannelSummary, error) {
	return s.repo.List(ctx)
}

// JoinChannel adds userID to the roster. Private channels can only be entered
// by invitation, so joining one is allowed only for existing members.
func (s *ChannelService) JoinChannel(ctx context.Context, channelID, userID uint) error {
	channel, err := s.repo.Get(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.HasMember(userID) {
		return nil
	}
	if channel.IsPrivate {
		return fmt.Errorf("channel %d is private: %w", channelID, errs.ErrForbidden)
	}
	return s.repo.AddMember(ctx, channelID, userID)
}

// SetRosterListener registers l to hear about roster removals.
func (s *ChannelService) SetRosterListener(l RosterListener) {
	s.listener = l
}

// LeaveChannel removes userID from the roster. Leaving a private channel also
// revokes the user's live subscriptions to it.
func (s *ChannelService) LeaveChannel(ctx context.Context, channelID, userID uint) error {
	channel, err := s.repo.Get(ctx, channelID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, channelID, userID); err != nil {
		return err
	}
	if channel.IsPrivate && s.listener != nil {
		s.listener.MemberRemoved(channelID, userID)
	}
	return nil
}

// InviteUser adds targetID to the roster on behalf of inviterID, who must be a member.
func (s *ChannelService) InviteUser(ctx context.Context, channelID, inviterID, targetID uint) error {
	channel, err := s.repo.Get(ctx, channelID)
	if err != nil {
		return err
	}
	if !channel.HasMember(inviterID) {
		return fmt.Errorf("user %d is not a member of channel %d: %w", inviterID, channelID, errs.ErrForbidden)
	}
	if err := s.repo.AddMember(ctx, channelID, targetID); err != nil {
		return err
	}
	slog.Info("User invited to channel", "channelID", channelID, "userID", inviterID, "targetID", targetID)
	return nil
}
