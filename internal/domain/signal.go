package domain

import "encoding/json"

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

// SignalingEnvelope carries one opaque connection-establishment payload
// between two users. The relay never looks inside Payload; that keeps it
// substitutable for any underlying peer-media stack.
type SignalingEnvelope struct {
	From     UserID          `json:"from"`
	To       UserID          `json:"to"`
	Kind     SignalKind      `json:"kind"`
	Sequence uint64          `json:"sequence"`
	Payload  json.RawMessage `json:"payload"`
}
