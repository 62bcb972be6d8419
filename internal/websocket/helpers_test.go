package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"channel-chat/internal/database"
	"channel-chat/internal/models"
	"channel-chat/internal/presence"
	"channel-chat/internal/repositories/postgres"
	"channel-chat/internal/services"
	"channel-chat/internal/typing"
	"channel-chat/pkg/snowflake"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errClosedConnection = errors.New("connection closed")

// mockConn feeds inbound frames from a channel and records outbound ones.
type mockConn struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	messages [][]byte
}

func newMockConn() *mockConn {
	return &mockConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (m *mockConn) SetReadLimit(int64) {}
func (m *mockConn) SetReadDeadline(time.Time) error { return nil }
func (m *mockConn) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConn) SetPongHandler(func(string) error) {}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case b := <-m.inbound:
		return websocket.TextMessage, b, nil
	case <-m.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.closed:
		return errClosedConnection
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockConn) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConn) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func (m *mockConn) written() []received {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]received, 0, len(m.messages))
	for _, b := range m.messages {
		out = append(out, decodeReceived(b))
	}
	return out
}

type received struct {
	ID   string           `json:"id"`
	Type models.EventType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

func decodeReceived(b []byte) received {
	var r received
	_ = json.Unmarshal(b, &r)
	return r
}

func (r received) into(t *testing.T, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dest))
}

type testEnv struct {
	hub      *Hub
	gateway  *Gateway
	tracker  *presence.Tracker
	notifier *typing.Notifier
	roster   *services.ChannelService
	messages *services.MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	users := postgres.NewUserRepository(db)
	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, users.Create(context.Background(), &models.User{Username: name}))
	}

	ids, err := snowflake.NewNode(1)
	require.NoError(t, err)

	channels := postgres.NewChannelRepository(db)
	hub := NewHub()
	tracker := presence.NewTracker()
	notifier := typing.NewNotifier(hub, 0)
	t.Cleanup(notifier.Close)
	guard := services.NewAccessGuard(channels)
	messages := services.NewMessageService(
		postgres.NewMessageRepository(db, ids),
		guard,
		services.NewUserService(users, nil, time.Minute),
		hub,
		nil,
	)

	gateway := NewGateway(hub, tracker, notifier, guard, messages)
	roster := services.NewChannelService(channels)
	roster.SetRosterListener(gateway)

	return &testEnv{
		hub:      hub,
		gateway:  gateway,
		tracker:  tracker,
		notifier: notifier,
		roster:   roster,
		messages: messages,
	}
}

// client registers a connection without starting its pumps; tests read the
// outbound queue directly.
func (e *testEnv) client(userID uint, buffer int) *Client {
	c := NewClient(newMockConn(), userID, buffer)
	e.hub.Register(c)
	return c
}

func (e *testEnv) channel(t *testing.T, name string, private bool, creatorID uint) uint {
	t.Helper()
	ch, err := e.roster.CreateChannel(context.Background(), name, private, creatorID)
	require.NoError(t, err)
	return ch.ID
}

func (e *testEnv) dispatch(c *Client, eventType models.EventType, data any) string {
	id := uuid.NewString()
	payload, _ := json.Marshal(data)
	raw, _ := json.Marshal(map[string]any{"id": id, "type": eventType, "data": json.RawMessage(payload)})
	e.gateway.Dispatch(context.Background(), c, raw)
	return id
}

// drain empties the client's outbound queue.
func drain(c *Client) []received {
	var out []received
	for {
		select {
		case b := <-c.send:
			out = append(out, decodeReceived(b))
		default:
			return out
		}
	}
}

func ofType(events []received, t models.EventType) []received {
	var out []received
	for _, e := range events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
