package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"channel-chat/internal/models"

	"github.com/redis/go-redis/v9"
)

// ProfileCache is the subset of RedisService used to cache display identities.
type ProfileCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// UserService resolves sender display identities for presentation.
type UserService struct {
	repo  UserStore
	cache ProfileCache
	ttl   time.Duration
}

// NewUserService builds the resolver. cache may be nil.
func NewUserService(repo UserStore, cache ProfileCache, ttl time.Duration) *UserService {
	return &UserService{repo: repo, cache: cache, ttl: ttl}
}

func profileKey(userID uint) string {
	return fmt.Sprintf("user:%d:profile", userID)
}

// Resolve returns a summary for every id. Ids missing from the directory, or
// unresolvable because storage failed, get a placeholder name.
func (s *UserService) Resolve(ctx context.Context, ids []uint) map[uint]models.UserSummary {
	out := make(map[uint]models.UserSummary, len(ids))
	missing := make([]uint, 0, len(ids))

	for _, id := range ids {
		if s.cache == nil {
			missing = append(missing, id)
			continue
		}
		var summary models.UserSummary
		err := s.cache.Get(ctx, profileKey(id), &summary)
		if err == nil {
			out[id] = summary
			continue
		}
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Profile cache read failed", "userID", id, "error", err)
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		users, err := s.repo.FindByIDs(ctx, missing)
		if err != nil {
			slog.Error("Failed to load user profiles", "userIDs", missing, "error", err)
		}
		for _, u := range users {
			summary := u.Summary()
			out[u.ID] = summary
			if s.cache != nil {
				if err := s.cache.Set(ctx, profileKey(u.ID), summary, s.ttl); err != nil {
					slog.Warn("Profile cache write failed", "userID", u.ID, "error", err)
				}
			}
		}
	}

	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = models.UnknownUser(id)
		}
	}
	return out
}
