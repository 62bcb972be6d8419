package postgres

import (
	"context"
	"errors"
	"fmt"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type memberCount struct {
	ChannelID uint
	Members   int
}

type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db}
}

// Create inserts the channel and its creator's roster entry in one transaction.
func (r *ChannelRepository) Create(ctx context.Context, name string, isPrivate bool, creatorID uint) (*models.Channel, error) {
	channel := &models.Channel{
		Name:      name,
		IsPrivate: isPrivate,
		CreatedBy: creatorID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Channel{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("channel %q already exists: %w", name, errs.ErrConflict)
		}
		if err := tx.Create(channel).Error; err != nil {
			return err
		}
		member := models.ChannelMember{ChannelID: channel.ID, UserID: creatorID}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		channel.Members = []models.ChannelMember{member}
		return nil
	})

	switch {
	case err == nil:
		return channel, nil
	case errors.Is(err, errs.ErrConflict):
		return nil, err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, fmt.Errorf("channel %q already exists: %w", name, errs.ErrConflict)
	default:
		return nil, errs.Internal("create channel", err)
	}
}

func (r *ChannelRepository) Get(ctx context.Context, id uint) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).Preload("Members").First(&channel, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("channel %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, errs.Internal("get channel", err)
	}
	return &channel, nil
}

func (r *ChannelRepository) List(ctx context.Context) ([]models.ChannelSummary, error) {
	db := r.db.WithContext(ctx)

	var channels []models.Channel
	if err := db.Order("name").Find(&channels).Error; err != nil {
		return nil, errs.Internal("list channels", err)
	}

	var counts []memberCount
	err := db.Model(&models.ChannelMember{}).
		Select("channel_id, COUNT(*) AS members").
		Group("channel_id").
		Scan(&counts).Error
	if err != nil {
		return nil, errs.Internal("list channels", err)
	}
	byChannel := lo.SliceToMap(counts, func(c memberCount) (uint, int) {
		return c.ChannelID, c.Members
	})

	return lo.Map(channels, func(c models.Channel, _ int) models.ChannelSummary {
		return models.ChannelSummary{
			ID:          c.ID,
			Name:        c.Name,
			IsPrivate:   c.IsPrivate,
			CreatedBy:   c.CreatedBy,
			CreatedAt:   c.CreatedAt,
			MemberCount: byChannel[c.ID],
		}
	}), nil
}

// AddMember is idempotent.
func (r *ChannelRepository) AddMember(ctx context.Context, channelID, userID uint) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Channel{}).Where("id = ?", channelID).Count(&count).Error; err != nil {
		return errs.Internal("add member", err)
	}
	if count == 0 {
		return fmt.Errorf("channel %d: %w", channelID, errs.ErrNotFound)
	}

	member := models.ChannelMember{ChannelID: channelID, UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
		return errs.Internal("add member", err)
	}
	return nil
}

// RemoveMember is idempotent.
func (r *ChannelRepository) RemoveMember(ctx context.Context, channelID, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&models.ChannelMember{}).Error
	if err != nil {
		return errs.Internal("remove member", err)
	}
	return nil
}
