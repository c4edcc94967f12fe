package domain

import (
	"encoding/json"
	"time"
)

// EventType is the closed set of outbound event discriminators. Adapters
// serialize events with this tag so clients can switch on it; the core
// itself never dispatches on strings.
type EventType string

const (
	EventPresence     EventType = "presence"
	EventCallState    EventType = "call_state"
	EventSignal       EventType = "signal"
	EventViewerCount  EventType = "viewer_count"
	EventStreamChat   EventType = "stream_chat"
	EventStreamTip    EventType = "stream_tip"
	EventNotification EventType = "notification"
)

// Event is anything deliverable to a single connection.
type Event interface {
	EventType() EventType
}

// PresenceEvent carries the full online set, not a delta.
type PresenceEvent struct {
	Type   EventType `json:"type"`
	Online []UserID  `json:"online"`
}

func NewPresenceEvent(online []UserID) PresenceEvent {
	return PresenceEvent{Type: EventPresence, Online: online}
}

func (e PresenceEvent) EventType() EventType { return e.Type }

// CallStateEvent reports a call transition to one of its parties.
type CallStateEvent struct {
	Type    EventType   `json:"type"`
	Session CallSession `json:"session"`
}

func NewCallStateEvent(s CallSession) CallStateEvent {
	return CallStateEvent{Type: EventCallState, Session: s}
}

func (e CallStateEvent) EventType() EventType { return e.Type }

// SignalEvent wraps a relayed envelope on its way to the recipient.
type SignalEvent struct {
	Type     EventType         `json:"type"`
	Envelope SignalingEnvelope `json:"envelope"`
}

func NewSignalEvent(env SignalingEnvelope) SignalEvent {
	return SignalEvent{Type: EventSignal, Envelope: env}
}

func (e SignalEvent) EventType() EventType { return e.Type }

// ViewerCountEvent is broadcast on every stream membership change.
type ViewerCountEvent struct {
	Type     EventType `json:"type"`
	StreamID StreamID  `json:"stream_id"`
	Count    int       `json:"count"`
}

func NewViewerCountEvent(streamID StreamID, count int) ViewerCountEvent {
	return ViewerCountEvent{Type: EventViewerCount, StreamID: streamID, Count: count}
}

func (e ViewerCountEvent) EventType() EventType { return e.Type }

// StreamChatEvent is one chat line fanned out to a stream's audience.
type StreamChatEvent struct {
	Type     EventType `json:"type"`
	StreamID StreamID  `json:"stream_id"`
	SenderID UserID    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

func NewStreamChatEvent(streamID StreamID, sender UserID, text string, at time.Time) StreamChatEvent {
	return StreamChatEvent{Type: EventStreamChat, StreamID: streamID, SenderID: sender, Text: text, SentAt: at}
}

func (e StreamChatEvent) EventType() EventType { return e.Type }

// StreamTipEvent is the broadcast form of a tip, shown in the chat log.
type StreamTipEvent struct {
	Type     EventType `json:"type"`
	StreamID StreamID  `json:"stream_id"`
	SenderID UserID    `json:"sender_id"`
	Amount   int64     `json:"amount"`
	SentAt   time.Time `json:"sent_at"`
}

func NewStreamTipEvent(streamID StreamID, sender UserID, amount int64, at time.Time) StreamTipEvent {
	return StreamTipEvent{Type: EventStreamTip, StreamID: streamID, SenderID: sender, Amount: amount, SentAt: at}
}

func (e StreamTipEvent) EventType() EventType { return e.Type }

// NotificationKind is the closed set of side-channel notifications.
type NotificationKind string

const (
	NotifyCallRequest   NotificationKind = "call-request"
	NotifyCallEnded     NotificationKind = "call-ended"
	NotifyStreamStarted NotificationKind = "stream-started"
	NotifyStreamEnded   NotificationKind = "stream-ended"
	NotifyTipReceived   NotificationKind = "tip-received"
)

// NotificationEvent is ephemeral: delivered only if the recipient holds a
// live connection at the moment of send, silently dropped otherwise.
type NotificationEvent struct {
	Type        EventType        `json:"type"`
	RecipientID UserID           `json:"recipient_id"`
	Kind        NotificationKind `json:"kind"`
	Payload     json.RawMessage  `json:"payload,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func NewNotification(recipient UserID, kind NotificationKind, payload any) NotificationEvent {
	raw, _ := json.Marshal(payload)
	return NotificationEvent{
		Type:        EventNotification,
		RecipientID: recipient,
		Kind:        kind,
		Payload:     raw,
		CreatedAt:   time.Now(),
	}
}

func (e NotificationEvent) EventType() EventType { return e.Type }
