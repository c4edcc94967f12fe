package domain

import "time"

type CallState string

const (
	CallRequested CallState = "requested"
	CallRinging   CallState = "ringing"
	CallActive    CallState = "active"
	CallEnded     CallState = "ended"
)

type CallEndReason string

const (
	EndReasonHangup       CallEndReason = "hangup"
	EndReasonRejected     CallEndReason = "rejected"
	EndReasonTimeout      CallEndReason = "timeout"
	EndReasonDisconnected CallEndReason = "disconnected"
)

// CallSession is a read-only view of one private call. The manager owns
// the live state; this struct is what leaves its serialization domain.
type CallSession struct {
	ID            string        `json:"id"`
	CallerID      UserID        `json:"caller_id"`
	CalleeID      UserID        `json:"callee_id"`
	State         CallState     `json:"state"`
	RatePerMinute int64         `json:"rate_per_minute"`
	RequestedAt   time.Time     `json:"requested_at"`
	ActiveSince   time.Time     `json:"active_since,omitempty"`
	EndedAt       time.Time     `json:"ended_at,omitempty"`
	EndReason     CallEndReason `json:"end_reason,omitempty"`
	Cost          int64         `json:"cost"`
}

// CallCost bills every started minute while the call was active.
func CallCost(activeSince, endedAt time.Time, ratePerMinute int64) int64 {
	if activeSince.IsZero() || !endedAt.After(activeSince) {
		return 0
	}
	d := endedAt.Sub(activeSince)
	minutes := int64(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes * ratePerMinute
}
