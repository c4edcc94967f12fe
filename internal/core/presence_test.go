package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavrk/beam/internal/domain"
)

func TestPresence_SnapshotTracksRegistry(t *testing.T) {
	reg := NewRegistry()
	p := NewPresence(reg)

	assert.Empty(t, p.Snapshot())

	reg.Register("alice", newFakeConn())
	reg.Register("bob", newFakeConn())
	assert.Equal(t, []domain.UserID{"alice", "bob"}, p.Snapshot())

	reg.Deregister("alice")
	assert.Equal(t, []domain.UserID{"bob"}, p.Snapshot())

	// reconnect: replacement must not leave a ghost
	reg.Register("bob", newFakeConn())
	assert.Equal(t, []domain.UserID{"bob"}, p.Snapshot())

	reg.Deregister("bob")
	assert.Empty(t, p.Snapshot())
}

func TestPresence_SubscribersGetFullSetInOrder(t *testing.T) {
	reg := NewRegistry()
	p := NewPresence(reg)

	var seen [][]domain.UserID
	p.OnChange(func(snap []domain.UserID) {
		seen = append(seen, snap)
	})

	reg.Register("alice", newFakeConn())
	reg.Register("bob", newFakeConn())
	reg.Deregister("alice")

	require.Len(t, seen, 3)
	assert.Equal(t, []domain.UserID{"alice"}, seen[0])
	assert.Equal(t, []domain.UserID{"alice", "bob"}, seen[1])
	assert.Equal(t, []domain.UserID{"bob"}, seen[2])
}

func TestPresence_BroadcastReachesEveryoneIncludingJoiner(t *testing.T) {
	reg := NewRegistry()
	NewPresence(reg)

	aliceConn := newFakeConn()
	bobConn := newFakeConn()
	reg.Register("alice", aliceConn)
	reg.Register("bob", bobConn)

	// alice saw her own join plus bob's join
	require.GreaterOrEqual(t, aliceConn.frameCount(), 2)
	// bob saw at least his own join
	require.GreaterOrEqual(t, bobConn.frameCount(), 1)

	last := bobConn.decoded()[bobConn.frameCount()-1]
	assert.Equal(t, string(domain.EventPresence), last["type"])
	assert.ElementsMatch(t, []any{"alice", "bob"}, last["online"])
}
