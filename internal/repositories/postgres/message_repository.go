package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"

	"gorm.io/gorm"
)

// IDGenerator hands out strictly increasing message ids.
type IDGenerator interface {
	Generate() int64
}

type MessageRepository struct {
	db  *gorm.DB
	ids IDGenerator
}

func NewMessageRepository(db *gorm.DB, ids IDGenerator) *MessageRepository {
	return &MessageRepository{db: db, ids: ids}
}

func (r *MessageRepository) Create(ctx context.Context, channelID, senderID uint, text string) (*models.Message, error) {
	msg := &models.Message{
		ID:        r.ids.Generate(),
		ChannelID: channelID,
		SenderID:  senderID,
		Text:      text,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, errs.Internal("create message", err)
	}
	return msg, nil
}

func (r *MessageRepository) Get(ctx context.Context, id int64) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, errs.Internal("get message", err)
	}
	return &msg, nil
}

// ListBefore returns up to limit messages of the channel with an id below
// beforeID (or the latest ones when nil), oldest first.
func (r *MessageRepository) ListBefore(ctx context.Context, channelID uint, beforeID *int64, limit int) ([]models.Message, error) {
	query := r.db.WithContext(ctx).Where("channel_id = ?", channelID)
	if beforeID != nil {
		query = query.Where("id < ?", *beforeID)
	}

	var messages []models.Message
	if err := query.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, errs.Internal("list messages", err)
	}
	slices.Reverse(messages)
	return messages, nil
}

func (r *MessageRepository) UpdateText(ctx context.Context, id int64, text string) (*models.Message, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"text": text, "edited": true})
	if res.Error != nil {
		return nil, errs.Internal("update message", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	return r.Get(ctx, id)
}

func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id)
	if res.Error != nil {
		return errs.Internal("delete message", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchText matches query as a case-insensitive substring, newest first.
func (r *MessageRepository) SearchText(ctx context.Context, channelID uint, query string, limit int) ([]models.Message, error) {
	pattern := "%" + likeEscaper.Replace(query) + "%"

	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Where(`LOWER(text) LIKE LOWER(?) ESCAPE '\'`, pattern).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, errs.Internal("search messages", err)
	}
	return messages, nil
}
