package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"
)

type fakeChannelStore struct {
	mu       sync.Mutex
	nextID   uint
	channels map[uint]*models.Channel
	err      error
}

func newFakeChannelStore() *fakeChannelStore {
	return &fakeChannelStore{channels: make(map[uint]*models.Channel)}
}

func (f *fakeChannelStore) Create(_ context.Context, name string, isPrivate bool, creatorID uint) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.channels {
		if c.Name == name {
			return nil, fmt.Errorf("channel %q: %w", name, errs.ErrConflict)
		}
	}
	f.nextID++
	c := &models.Channel{
		ID:        f.nextID,
		Name:      name,
		IsPrivate: isPrivate,
		CreatedBy: creatorID,
		CreatedAt: time.Now(),
		Members:   []models.ChannelMember{{ChannelID: f.nextID, UserID: creatorID}},
	}
	f.channels[c.ID] = c
	return clone(c), nil
}

func (f *fakeChannelStore) Get(_ context.Context, id uint) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.channels[id]
	if !ok {
		return nil, fmt.Errorf("channel %d: %w", id, errs.ErrNotFound)
	}
	return clone(c), nil
}

func (f *fakeChannelStore) List(_ context.Context) ([]models.ChannelSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ChannelSummary, 0, len(f.channels))
	for _, c := range f.channels {
		out = append(out, models.ChannelSummary{ID: c.ID, Name: c.Name, IsPrivate: c.IsPrivate, MemberCount: len(c.Members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeChannelStore) AddMember(_ context.Context, channelID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.channels[channelID]
	if !ok {
		return fmt.Errorf("channel %d: %w", channelID, errs.ErrNotFound)
	}
	if !c.HasMember(userID) {
		c.Members = append(c.Members, models.ChannelMember{ChannelID: channelID, UserID: userID})
	}
	return nil
}

func (f *fakeChannelStore) RemoveMember(_ context.Context, channelID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.channels[channelID]
	if !ok {
		return nil
	}
	kept := c.Members[:0]
	for _, m := range c.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	c.Members = kept
	return nil
}

func clone(c *models.Channel) *models.Channel {
	cp := *c
	cp.Members = append([]models.ChannelMember(nil), c.Members...)
	return &cp
}

type fakeMessageStore struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]*models.Message
	err      error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[int64]*models.Message)}
}

func (f *fakeMessageStore) Create(_ context.Context, channelID, senderID uint, text string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	m := &models.Message{ID: f.nextID, ChannelID: channelID, SenderID: senderID, Text: text, CreatedAt: time.Now()}
	f.messages[m.ID] = m
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) Get(_ context.Context, id int64) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) ListBefore(_ context.Context, channelID uint, beforeID *int64, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Message
	for _, m := range f.messages {
		if m.ChannelID == channelID && (beforeID == nil || m.ID < *beforeID) {
			all = append(all, *m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f *fakeMessageStore) UpdateText(_ context.Context, id int64, text string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	m.Text = text
	m.Edited = true
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
	return nil
}

func (f *fakeMessageStore) SearchText(_ context.Context, channelID uint, query string, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.ChannelID == channelID && strings.Contains(strings.ToLower(m.Text), strings.ToLower(query)) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeUserStore struct {
	users map[uint]models.User
	err   error
}

func (f *fakeUserStore) FindByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type broadcast struct {
	channelID uint
	env       *models.Envelope
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (r *recordingBroadcaster) Broadcast(channelID uint, env *models.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, broadcast{channelID, env})
}

func (r *recordingBroadcaster) events() []broadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]broadcast, len(r.sent))
	copy(out, r.sent)
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	events []*models.Envelope
	err    error
}

func (r *recordingSink) Publish(_ context.Context, _ uint, env *models.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, env)
	return r.err
}

var errStorageDown = errors.New("storage down")

type fixture struct {
	channels    *fakeChannelStore
	messages    *fakeMessageStore
	broadcaster *recordingBroadcaster
	sink        *recordingSink
	guard       *AccessGuard
	service     *MessageService
	roster      *ChannelService
}

func newFixture() *fixture {
	f := &fixture{
		channels:    newFakeChannelStore(),
		messages:    newFakeMessageStore(),
		broadcaster: &recordingBroadcaster{},
		sink:        &recordingSink{},
	}
	users := NewUserService(&fakeUserStore{users: map[uint]models.User{
		1: {ID: 1, Username: "alice"},
		2: {ID: 2, Username: "bob"},
	}}, nil, time.Minute)
	f.guard = NewAccessGuard(f.channels)
	f.service = NewMessageService(f.messages, f.guard, users, f.broadcaster, f.sink)
	f.roster = NewChannelService(f.channels)
	return f
}
