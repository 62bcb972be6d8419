package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the discriminator of a live protocol event.
type EventType string

// Client -> server requests
const (
	EventJoinChannel   EventType = "channel.join"
	EventLeaveChannel  EventType = "channel.leave"
	EventSendMessage   EventType = "message.send"
	EventEditMessage   EventType = "message.edit"
	EventDeleteMessage EventType = "message.delete"
	EventTypingStart   EventType = "typing.start"
	EventTypingStop    EventType = "typing.stop"
)

// Server -> client pushes
const (
	EventConnect          EventType = "connection.connect"
	EventPresenceSnapshot EventType = "presence.snapshot"
	EventMessageCreated   EventType = "message.created"
	EventMessageEdited    EventType = "message.edited"
	EventMessageDeleted   EventType = "message.deleted"
	EventTypingStarted    EventType = "typing.started"
	EventTypingStopped    EventType = "typing.stopped"
	EventAccessDenied     EventType = "access.denied"
	EventError            EventType = "error"
)

func (t EventType) String() string {
	return string(t)
}

// IsRequest reports whether t is a type clients may send.
func (t EventType) IsRequest() bool {
	switch t {
	case EventJoinChannel, EventLeaveChannel, EventSendMessage, EventEditMessage,
		EventDeleteMessage, EventTypingStart, EventTypingStop:
		return true
	default:
		return false
	}
}

// Envelope is the outbound frame. Data holds one of the *Data payloads below.
type Envelope struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

func NewEnvelope(id string, t EventType, data any) *Envelope {
	return &Envelope{
		ID:        id,
		Type:      t,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// Inbound is a client frame before its payload is decoded.
type Inbound struct {
	ID   string          `json:"id"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (in *Inbound) Validate() error {
	if !in.Type.IsRequest() {
		return fmt.Errorf("unknown event type %q", in.Type)
	}
	if len(in.Data) == 0 {
		return fmt.Errorf("event %q has no data", in.Type)
	}
	return nil
}

/** -------------------- request payloads -------------------- */

type ChannelRefData struct {
	ChannelID uint `json:"channel_id" validate:"required"`
}

type SendMessageData struct {
	ChannelID uint   `json:"channel_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

type EditMessageData struct {
	MessageID int64  `json:"message_id,string" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

type DeleteMessageData struct {
	MessageID int64 `json:"message_id,string" validate:"required"`
}

/** -------------------- push payloads -------------------- */

type PresenceSnapshotData struct {
	ChannelID uint   `json:"channel_id"`
	UserIDs   []uint `json:"user_ids"`
}

type MessageDeletedData struct {
	ID        int64 `json:"id,string"`
	ChannelID uint  `json:"channel_id"`
}

type TypingData struct {
	ChannelID uint `json:"channel_id"`
	UserID    uint `json:"user_id"`
}

type AccessDeniedData struct {
	ChannelID uint   `json:"channel_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type ErrorData struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ConnectData struct {
	ClientID string `json:"client_id"`
	UserID   uint   `json:"user_id"`
}
