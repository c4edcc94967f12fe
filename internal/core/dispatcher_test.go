package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavrk/beam/internal/domain"
)

func TestDispatcher_DeliversToConnectedRecipient(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)

	conn := newFakeConn()
	reg.Register("alice", conn)

	n := domain.NewNotification("alice", domain.NotifyTipReceived, map[string]int{"amount": 200})
	assert.True(t, d.Notify(n))

	frames := conn.decoded()
	require.Len(t, frames, 1)
	assert.Equal(t, string(domain.EventNotification), frames[0]["type"])
	assert.Equal(t, string(domain.NotifyTipReceived), frames[0]["kind"])
}

func TestDispatcher_DropsWhenOffline(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)

	n := domain.NewNotification("ghost", domain.NotifyCallRequest, nil)
	assert.False(t, d.Notify(n))
}

func TestDispatcher_ReportsBackpressureAsDrop(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)

	conn := newFakeConn()
	conn.full = true
	reg.Register("alice", conn)

	assert.False(t, d.Dispatch("alice", domain.NewPresenceEvent(nil)))
}
