package websocket

import (
	"context"
	"strconv"
	"testing"
	"time"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinChannel_BroadcastsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)

	alice := env.client(1, 16)
	bob := env.client(2, 16)

	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	snaps := ofType(drain(alice), models.EventPresenceSnapshot)
	require.Len(t, snaps, 1)
	var snap models.PresenceSnapshotData
	snaps[0].into(t, &snap)
	assert.Equal(t, []uint{1}, snap.UserIDs)

	require.NoError(t, env.gateway.JoinChannel(ctx, bob, general))
	for _, c := range []*Client{alice, bob} {
		snaps := ofType(drain(c), models.EventPresenceSnapshot)
		require.Len(t, snaps, 1)
		snaps[0].into(t, &snap)
		assert.Equal(t, general, snap.ChannelID)
		assert.Equal(t, []uint{1, 2}, snap.UserIDs)
	}
	assert.Equal(t, 2, env.hub.RoomSize(general))
}

func TestJoinChannel_Rejoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 16)
	bob := env.client(2, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	require.NoError(t, env.gateway.JoinChannel(ctx, bob, general))
	drain(alice)
	drain(bob)

	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	assert.Len(t, ofType(drain(alice), models.EventPresenceSnapshot), 1)
	assert.Empty(t, drain(bob))
	assert.Equal(t, 1, env.tracker.Count(general, 1))
}

func TestJoinChannel_PrivateDenied(t *testing.T) {
	env := newTestEnv(t)
	secret := env.channel(t, "secret", true, 1)

	alice := env.client(1, 16)
	bob := env.client(2, 16)
	require.NoError(t, env.gateway.JoinChannel(context.Background(), alice, secret))
	drain(alice)

	err := env.gateway.JoinChannel(context.Background(), bob, secret)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	events := drain(bob)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventAccessDenied, events[0].Type)
	var denied models.AccessDeniedData
	events[0].into(t, &denied)
	assert.Equal(t, secret, denied.ChannelID)
	assert.Equal(t, errs.KindForbidden, denied.Code)

	assert.False(t, bob.InChannel(secret))
	assert.Equal(t, []uint{1}, env.tracker.Snapshot(secret))
	assert.Empty(t, drain(alice))
}

func TestJoinChannel_UnknownChannel(t *testing.T) {
	env := newTestEnv(t)
	alice := env.client(1, 16)

	env.dispatch(alice, models.EventJoinChannel, models.ChannelRefData{ChannelID: 404})

	events := drain(alice)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventAccessDenied, events[0].Type)
	var denied models.AccessDeniedData
	events[0].into(t, &denied)
	assert.Equal(t, errs.KindNotFound, denied.Code)
}

func TestPresence_MultipleConnections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)

	laptop := env.client(1, 16)
	phone := env.client(1, 16)
	bob := env.client(2, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, bob, general))
	require.NoError(t, env.gateway.JoinChannel(ctx, laptop, general))
	drain(bob)
	drain(laptop)

	// Second connection of a present user does not change presence.
	require.NoError(t, env.gateway.JoinChannel(ctx, phone, general))
	assert.Empty(t, drain(bob))
	assert.Len(t, ofType(drain(phone), models.EventPresenceSnapshot), 1)

	env.gateway.LeaveChannel(laptop, general)
	assert.Empty(t, drain(bob))
	assert.True(t, env.tracker.IsPresent(general, 1))

	env.gateway.LeaveChannel(phone, general)
	snaps := ofType(drain(bob), models.EventPresenceSnapshot)
	require.Len(t, snaps, 1)
	var snap models.PresenceSnapshotData
	snaps[0].into(t, &snap)
	assert.Equal(t, []uint{2}, snap.UserIDs)
}

func TestLeaveChannel_NotJoinedIsNoop(t *testing.T) {
	env := newTestEnv(t)
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 16)

	env.gateway.LeaveChannel(alice, general)
	assert.Empty(t, drain(alice))
	assert.Empty(t, env.tracker.Snapshot(general))
}

func TestDisconnect_LeavesEveryChannel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	random := env.channel(t, "random", false, 1)

	alice := env.client(1, 16)
	bob := env.client(2, 16)
	for _, ch := range []uint{general, random} {
		require.NoError(t, env.gateway.JoinChannel(ctx, alice, ch))
		require.NoError(t, env.gateway.JoinChannel(ctx, bob, ch))
	}
	env.gateway.typing.Start(general, 1)
	drain(bob)

	env.gateway.Disconnect(alice)

	events := drain(bob)
	assert.Len(t, ofType(events, models.EventPresenceSnapshot), 2)
	assert.Len(t, ofType(events, models.EventTypingStopped), 1)
	assert.Equal(t, []uint{2}, env.tracker.Snapshot(general))
	assert.Equal(t, []uint{2}, env.tracker.Snapshot(random))
	assert.Empty(t, env.notifier.Typing(general))
	assert.Empty(t, alice.Channels())
	assert.Equal(t, int64(1), env.hub.Stats().Connections)

	env.gateway.Disconnect(alice)
	assert.Empty(t, drain(bob))
	assert.Equal(t, int64(1), env.hub.Stats().Connections)
}

func TestSendMessage_ReachesWholeRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 16)
	bob := env.client(2, 16)
	carol := env.client(3, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	require.NoError(t, env.gateway.JoinChannel(ctx, bob, general))
	drain(alice)
	drain(bob)

	env.dispatch(alice, models.EventSendMessage, models.SendMessageData{ChannelID: general, Text: "hi"})

	for _, c := range []*Client{alice, bob} {
		created := ofType(drain(c), models.EventMessageCreated)
		require.Len(t, created, 1)
		var msg models.MessageResponse
		created[0].into(t, &msg)
		assert.Equal(t, "hi", msg.Text)
		assert.Equal(t, "alice", msg.SenderName)
		assert.Equal(t, general, msg.ChannelID)
	}
	assert.Empty(t, drain(carol))
}

func TestEditAndDelete_StayInOwningRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	random := env.channel(t, "random", false, 1)
	alice := env.client(1, 16)
	bob := env.client(2, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	require.NoError(t, env.gateway.JoinChannel(ctx, bob, random))

	sent, err := env.messages.SendMessage(ctx, general, 1, "hi")
	require.NoError(t, err)
	drain(alice)
	drain(bob)

	env.dispatch(alice, models.EventEditMessage, models.EditMessageData{MessageID: sent.ID, Text: "hello"})
	edited := ofType(drain(alice), models.EventMessageEdited)
	require.Len(t, edited, 1)
	var msg models.MessageResponse
	edited[0].into(t, &msg)
	assert.Equal(t, "hello", msg.Text)
	assert.True(t, msg.Edited)
	assert.Empty(t, drain(bob))

	env.dispatch(alice, models.EventDeleteMessage, models.DeleteMessageData{MessageID: sent.ID})
	deleted := ofType(drain(alice), models.EventMessageDeleted)
	require.Len(t, deleted, 1)
	var gone models.MessageDeletedData
	deleted[0].into(t, &gone)
	assert.Equal(t, sent.ID, gone.ID)
	assert.Equal(t, general, gone.ChannelID)
	assert.Empty(t, drain(bob))
}

func TestEditMessage_NotOwnerGetsError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 16)
	bob := env.client(2, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	require.NoError(t, env.gateway.JoinChannel(ctx, bob, general))
	sent, err := env.messages.SendMessage(ctx, general, 1, "hi")
	require.NoError(t, err)
	drain(alice)
	drain(bob)

	requestID := env.dispatch(bob, models.EventEditMessage, models.EditMessageData{MessageID: sent.ID, Text: "mine now"})

	events := drain(bob)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventError, events[0].Type)
	var e models.ErrorData
	events[0].into(t, &e)
	assert.Equal(t, errs.KindForbidden, e.Code)
	assert.Equal(t, requestID, e.RequestID)
	assert.Empty(t, drain(alice))
}

func TestTyping_ExcludesTypingUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	laptop := env.client(1, 16)
	phone := env.client(1, 16)
	bob := env.client(2, 16)
	for _, c := range []*Client{laptop, phone, bob} {
		require.NoError(t, env.gateway.JoinChannel(ctx, c, general))
	}
	drain(laptop)
	drain(phone)
	drain(bob)

	env.dispatch(laptop, models.EventTypingStart, models.ChannelRefData{ChannelID: general})
	assert.Empty(t, drain(laptop))
	assert.Empty(t, drain(phone))
	started := ofType(drain(bob), models.EventTypingStarted)
	require.Len(t, started, 1)
	var data models.TypingData
	started[0].into(t, &data)
	assert.Equal(t, models.TypingData{ChannelID: general, UserID: 1}, data)

	env.dispatch(laptop, models.EventTypingStop, models.ChannelRefData{ChannelID: general})
	assert.Len(t, ofType(drain(bob), models.EventTypingStopped), 1)
}

func TestTyping_RequiresJoinedChannel(t *testing.T) {
	env := newTestEnv(t)
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 16)

	env.dispatch(alice, models.EventTypingStart, models.ChannelRefData{ChannelID: general})

	events := drain(alice)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventError, events[0].Type)
	assert.Empty(t, env.notifier.Typing(general))
}

func TestDispatch_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	alice := env.client(1, 16)

	cases := map[string][]byte{
		"not json":      []byte(`{nope`),
		"unknown type":  []byte(`{"id":"1","type":"message.created","data":{}}`),
		"missing data":  []byte(`{"id":"1","type":"channel.join"}`),
		"missing field": []byte(`{"id":"1","type":"channel.join","data":{}}`),
		"wrong shape":   []byte(`{"id":"1","type":"message.send","data":{"channel_id":"x"}}`),
		"numeric id":    []byte(`{"id":"1","type":"message.delete","data":{"message_id":5}}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			env.gateway.Dispatch(context.Background(), alice, raw)
			events := drain(alice)
			require.Len(t, events, 1)
			assert.Equal(t, models.EventError, events[0].Type)
			var e models.ErrorData
			events[0].into(t, &e)
			assert.Equal(t, CodeInvalidMessage, e.Code)
		})
	}
}

func TestDispatch_BlankTextIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	drain(alice)

	env.dispatch(alice, models.EventSendMessage, models.SendMessageData{ChannelID: general, Text: "   "})

	events := drain(alice)
	require.Len(t, events, 1)
	var e models.ErrorData
	events[0].into(t, &e)
	assert.Equal(t, errs.KindValidation, e.Code)
}

func TestSlowConsumer_IsDisconnected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 64)
	slow := env.client(2, 1)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	require.NoError(t, env.gateway.JoinChannel(ctx, slow, general))
	drain(alice)
	drain(slow)

	for i := 0; i < 3; i++ {
		_, err := env.messages.SendMessage(ctx, general, 1, "hi")
		require.NoError(t, err)
	}

	assert.Len(t, ofType(drain(alice), models.EventMessageCreated), 3)
	assert.Error(t, slow.ctx.Err())
	assert.True(t, slow.conn.(*mockConn).isClosed())
	assert.Equal(t, int64(1), env.hub.Stats().SlowConsumers)
}

func TestConnect_RunsPumpsAndCleansUp(t *testing.T) {
	env := newTestEnv(t)
	general := env.channel(t, "general", false, 1)
	conn := newMockConn()
	c := NewClient(conn, 1, 16)

	env.gateway.Connect(c)
	require.Eventually(t, func() bool {
		return len(ofType(conn.written(), models.EventConnect)) == 1
	}, time.Second, 10*time.Millisecond)

	conn.inbound <- []byte(`{"id":"req-1","type":"channel.join","data":{"channel_id":` + uintString(general) + `}}`)
	require.Eventually(t, func() bool {
		return len(ofType(conn.written(), models.EventPresenceSnapshot)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.True(t, env.tracker.IsPresent(general, 1))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return !env.tracker.IsPresent(general, 1) && env.hub.Stats().Connections == 0
	}, time.Second, 10*time.Millisecond)
}

func TestDispatch_StringMessageIDAccepted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	alice := env.client(1, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, general))
	msg, err := env.messages.SendMessage(ctx, general, 1, "bye")
	require.NoError(t, err)
	drain(alice)

	raw := []byte(`{"id":"d1","type":"message.delete","data":{"message_id":"` + strconv.FormatInt(msg.ID, 10) + `"}}`)
	env.gateway.Dispatch(ctx, alice, raw)

	events := drain(alice)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventMessageDeleted, events[0].Type)
}

func TestRosterLeave_RevokesLiveSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	secret := env.channel(t, "secret", true, 1)
	require.NoError(t, env.roster.InviteUser(ctx, secret, 1, 3))

	alice := env.client(1, 16)
	carolPhone := env.client(3, 16)
	carolLaptop := env.client(3, 16)
	for _, c := range []*Client{alice, carolPhone, carolLaptop} {
		require.NoError(t, env.gateway.JoinChannel(ctx, c, secret))
	}
	drain(alice)
	drain(carolPhone)
	drain(carolLaptop)

	require.NoError(t, env.roster.LeaveChannel(ctx, secret, 3))

	for _, c := range []*Client{carolPhone, carolLaptop} {
		events := drain(c)
		denied := ofType(events, models.EventAccessDenied)
		require.Len(t, denied, 1)
		var data models.AccessDeniedData
		denied[0].into(t, &data)
		assert.Equal(t, secret, data.ChannelID)
		assert.Equal(t, errs.KindForbidden, data.Code)
		assert.False(t, c.InChannel(secret))
	}
	assert.False(t, env.tracker.IsPresent(secret, 3))
	assert.Equal(t, 1, env.hub.RoomSize(secret))

	snaps := ofType(drain(alice), models.EventPresenceSnapshot)
	require.Len(t, snaps, 1)
	var snap models.PresenceSnapshotData
	snaps[0].into(t, &snap)
	assert.Equal(t, []uint{1}, snap.UserIDs)

	_, err := env.messages.SendMessage(ctx, secret, 1, "after carol left")
	require.NoError(t, err)
	assert.Len(t, ofType(drain(alice), models.EventMessageCreated), 1)
	assert.Empty(t, drain(carolPhone))
	assert.Empty(t, drain(carolLaptop))

	_, err = env.messages.GetMessages(ctx, secret, 3, nil, 20)
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestRosterLeave_PublicChannelKeepsLiveSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	require.NoError(t, env.roster.JoinChannel(ctx, general, 2))
	bob := env.client(2, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, bob, general))
	drain(bob)

	require.NoError(t, env.roster.LeaveChannel(ctx, general, 2))

	assert.Empty(t, drain(bob))
	assert.True(t, bob.InChannel(general))
}

func TestJoinChannel_SucceedsRightAfterInvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	secret := env.channel(t, "secret", true, 1)
	alice := env.client(1, 16)
	bob := env.client(2, 16)
	require.NoError(t, env.gateway.JoinChannel(ctx, alice, secret))
	drain(alice)

	require.ErrorIs(t, env.gateway.JoinChannel(ctx, bob, secret), errs.ErrForbidden)
	assert.Len(t, ofType(drain(bob), models.EventAccessDenied), 1)

	require.NoError(t, env.roster.InviteUser(ctx, secret, 1, 2))
	require.NoError(t, env.gateway.JoinChannel(ctx, bob, secret))

	for _, c := range []*Client{alice, bob} {
		snaps := ofType(drain(c), models.EventPresenceSnapshot)
		require.Len(t, snaps, 1)
		var snap models.PresenceSnapshotData
		snaps[0].into(t, &snap)
		assert.Equal(t, []uint{1, 2}, snap.UserIDs)
	}
	assert.True(t, bob.InChannel(secret))
}

func TestJoinChannel_OtherChannelLockDoesNotBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	general := env.channel(t, "general", false, 1)
	random := env.channel(t, "random", false, 1)
	alice := env.client(1, 16)

	unlock := env.gateway.locks.Lock(random)
	defer unlock()

	done := make(chan error, 1)
	go func() { done <- env.gateway.JoinChannel(ctx, alice, general) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("join waited on an unrelated channel")
	}
}
