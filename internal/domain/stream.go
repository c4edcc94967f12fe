package domain

import "time"

type StreamState string

const (
	StreamLive  StreamState = "live"
	StreamEnded StreamState = "ended"
)

// StreamID equals the streamer's user id: one live broadcast per streamer.
type StreamID = UserID

// StreamSession is a read-only view of one live broadcast.
type StreamSession struct {
	StreamID    StreamID    `json:"stream_id"`
	State       StreamState `json:"state"`
	Viewers     []UserID    `json:"viewers"`
	ViewerCount int         `json:"viewer_count"`
	StartedAt   time.Time   `json:"started_at"`
}
