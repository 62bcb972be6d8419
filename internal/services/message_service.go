package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	SearchLimit     = 20
)

// MessageService persists message lifecycle changes and fans them out to the
// owning channel's room. Within a channel, persistence and broadcast happen
// under one lock, so rooms observe events in store id order.
type MessageService struct {
	store       MessageStore
	guard       *AccessGuard
	users       *UserService
	broadcaster Broadcaster
	sink        EventSink
	locks       *ChannelLocks
}

// NewMessageService wires the router. sink may be nil.
func NewMessageService(store MessageStore, guard *AccessGuard, users *UserService, broadcaster Broadcaster, sink EventSink) *MessageService {
	return &MessageService{
		store:       store,
		guard:       guard,
		users:       users,
		broadcaster: broadcaster,
		sink:        sink,
		locks:       NewChannelLocks(),
	}
}

// SendMessage stores text as a new message from senderID and broadcasts it to
// every connection in the channel, the sender's own included.
func (s *MessageService) SendMessage(ctx context.Context, channelID, senderID uint, text string) (*models.MessageResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is empty: %w", errs.ErrValidation)
	}
	if _, err := s.guard.Authorize(ctx, channelID, senderID); err != nil {
		return nil, err
	}
	sender := s.sender(ctx, senderID)

	unlock := s.locks.Lock(channelID)
	defer unlock()

	msg, err := s.store.Create(ctx, channelID, senderID, text)
	if err != nil {
		slog.Error("Failed to create message", "channelID", channelID, "userID", senderID, "error", err)
		return nil, err
	}

	resp := models.NewMessageResponse(msg, sender)
	s.emit(ctx, channelID, models.EventMessageCreated, resp)
	return &resp, nil
}

// EditMessage replaces the text of a message. Only its sender may edit it.
func (s *MessageService) EditMessage(ctx context.Context, messageID int64, requesterID uint, text string) (*models.MessageResponse, error) {
	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != requesterID {
		return nil, fmt.Errorf("message %d belongs to another user: %w", messageID, errs.ErrForbidden)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is empty: %w", errs.ErrValidation)
	}
	sender := s.sender(ctx, msg.SenderID)

	unlock := s.locks.Lock(msg.ChannelID)
	defer unlock()

	updated, err := s.store.UpdateText(ctx, messageID, text)
	if err != nil {
		return nil, err
	}

	resp := models.NewMessageResponse(updated, sender)
	s.emit(ctx, updated.ChannelID, models.EventMessageEdited, resp)
	return &resp, nil
}

// DeleteMessage hard-deletes a message. Only its sender may delete it. The
// deletion notice goes to the owning channel's room only.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID int64, requesterID uint) error {
	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return fmt.Errorf("message %d belongs to another user: %w", messageID, errs.ErrForbidden)
	}

	unlock := s.locks.Lock(msg.ChannelID)
	defer unlock()

	if err := s.store.Delete(ctx, messageID); err != nil {
		return err
	}

	s.emit(ctx, msg.ChannelID, models.EventMessageDeleted, models.MessageDeletedData{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
	})
	return nil
}

// GetMessages returns up to limit messages oldest first. Without beforeID it
// returns the most recent ones, otherwise the ones strictly preceding beforeID.
func (s *MessageService) GetMessages(ctx context.Context, channelID, userID uint, beforeID *int64, limit int) ([]models.MessageResponse, error) {
	if _, err := s.guard.Authorize(ctx, channelID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	messages, err := s.store.ListBefore(ctx, channelID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, messages), nil
}

// SearchMessages does a case-insensitive substring search, newest first.
// A blank query yields an empty result.
func (s *MessageService) SearchMessages(ctx context.Context, channelID, userID uint, query string) ([]models.MessageResponse, error) {
	if _, err := s.guard.Authorize(ctx, channelID, userID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.MessageResponse{}, nil
	}

	messages, err := s.store.SearchText(ctx, channelID, query, SearchLimit)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, messages), nil
}

// emit must run after the store call succeeded.
func (s *MessageService) emit(ctx context.Context, channelID uint, t models.EventType, data any) {
	env := models.NewEnvelope(uuid.New().String(), t, data)
	s.broadcaster.Broadcast(channelID, env)

	if s.sink != nil {
		if err := s.sink.Publish(ctx, channelID, env); err != nil {
			slog.Warn("Failed to publish message event", "channelID", channelID, "type", t, "error", err)
		}
	}
}

// sender resolves a display identity. Callers do it before taking a channel
// lock so cache and directory latency stays outside the critical section.
func (s *MessageService) sender(ctx context.Context, userID uint) models.UserSummary {
	return s.users.Resolve(ctx, []uint{userID})[userID]
}

func (s *MessageService) toResponses(ctx context.Context, messages []models.Message) []models.MessageResponse {
	ids := lo.Uniq(lo.Map(messages, func(m models.Message, _ int) uint { return m.SenderID }))
	senders := s.users.Resolve(ctx, ids)
	return lo.Map(messages, func(m models.Message, _ int) models.MessageResponse {
		return models.NewMessageResponse(&m, senders[m.SenderID])
	})
}
