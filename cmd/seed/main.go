package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"channel-chat/internal/config"
	"channel-chat/internal/database"
	"channel-chat/internal/errs"
	"channel-chat/internal/models"
	"channel-chat/internal/repositories/postgres"
	"channel-chat/internal/services"
	"channel-chat/internal/websocket"
	"channel-chat/pkg/snowflake"

	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"
)

type seedChannel struct {
	name    string
	private bool
	creator string
	members []string
}

var (
	seedUsers = []string{"admin", "alice", "bob", "charlie"}

	seedChannels = []seedChannel{
		{name: "general", creator: "admin", members: []string{"alice", "bob", "charlie"}},
		{name: "random", creator: "alice", members: []string{"bob"}},
		{name: "staff", private: true, creator: "admin", members: []string{"alice"}},
	}

	seedMessages = []struct {
		channel string
		sender  string
		text    string
	}{
		{"general", "admin", "Welcome to the general channel!"},
		{"general", "alice", "Hi everyone! Excited to be here."},
		{"general", "bob", "Hello! Looking forward to working together."},
		{"random", "alice", "Anyone up for lunch?"},
		{"staff", "admin", "Release planning moves to Thursday."},
	}
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	db, err := database.NewPostgresConnection(cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	ids, err := snowflake.NewNode(cfg.Snowflake)
	if err != nil {
		log.Fatal("Invalid snowflake node:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, db, ids); err != nil {
		log.Fatal("Failed to seed database:", err)
	}

	slog.Info("Database seeding completed successfully!")
}

func seed(ctx context.Context, db *gorm.DB, ids *snowflake.Node) error {
	userRepo := postgres.NewUserRepository(db)
	channelRepo := postgres.NewChannelRepository(db)

	channelService := services.NewChannelService(channelRepo)
	guard := services.NewAccessGuard(channelRepo)
	messageService := services.NewMessageService(
		postgres.NewMessageRepository(db, ids),
		guard,
		services.NewUserService(userRepo, nil, 0),
		websocket.NewHub(),
		nil,
	)

	// Users
	users := make(map[string]*models.User, len(seedUsers))
	for _, username := range seedUsers {
		user := models.User{Username: username}
		if err := db.WithContext(ctx).Where(models.User{Username: username}).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		users[username] = &user
	}

	// Channels
	channels := make(map[string]uint, len(seedChannels))
	for _, sc := range seedChannels {
		creator := users[sc.creator]
		ch, err := channelService.CreateChannel(ctx, sc.name, sc.private, creator.ID)
		switch {
		case errors.Is(err, errs.ErrConflict):
			var existing models.Channel
			if err := db.WithContext(ctx).Where("name = ?", sc.name).First(&existing).Error; err != nil {
				return err
			}
			channels[sc.name] = existing.ID
			slog.Warn("Channel already exists", "name", sc.name)
			continue
		case err != nil:
			return err
		}
		channels[sc.name] = ch.ID

		for _, member := range sc.members {
			if sc.private {
				err = channelService.InviteUser(ctx, ch.ID, creator.ID, users[member].ID)
			} else {
				err = channelService.JoinChannel(ctx, ch.ID, users[member].ID)
			}
			if err != nil {
				return err
			}
		}
		slog.Info("Created channel", "name", sc.name, "id", ch.ID)
	}

	// Messages
	for _, m := range seedMessages {
		if _, err := messageService.SendMessage(ctx, channels[m.channel], users[m.sender].ID, m.text); err != nil {
			slog.Warn("Failed to create channel message", "channel", m.channel, "error", err)
		}
	}

	summaries, err := channelService.ListChannels(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Channel", "Private", "Members"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, s := range summaries {
		table.Append([]string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.Name,
			strconv.FormatBool(s.IsPrivate),
			strconv.Itoa(s.MemberCount),
		})
	}
	table.Render()

	return nil
}
