package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavrk/beam/internal/domain"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

func relayEnv(from, to domain.UserID, kind domain.SignalKind) domain.SignalingEnvelope {
	return domain.SignalingEnvelope{
		From:    from,
		To:      to,
		Kind:    kind,
		Payload: json.RawMessage(`{"sdp":"x"}`),
	}
}

func TestRelay_SequencePerOrderedPair(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	reg.Register("alice", newFakeConn())
	reg.Register("bob", newFakeConn())

	first, err := relay.Relay(relayEnv("alice", "bob", domain.SignalOffer))
	require.NoError(t, err)
	second, err := relay.Relay(relayEnv("alice", "bob", domain.SignalCandidate))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)

	// the reverse direction is its own ordering domain
	back, err := relay.Relay(relayEnv("bob", "alice", domain.SignalAnswer))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), back.Sequence)
}

func TestRelay_RecipientOffline(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)
	reg.Register("alice", newFakeConn())

	_, err := relay.Relay(relayEnv("alice", "bob", domain.SignalOffer))
	assert.ErrorIs(t, err, apperrors.ErrRecipientOffline)
}

func TestRelay_DeliversEnvelopeVerbatim(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	bobConn := newFakeConn()
	reg.Register("bob", bobConn)

	env := relayEnv("alice", "bob", domain.SignalOffer)
	_, err := relay.Relay(env)
	require.NoError(t, err)

	frames := bobConn.decoded()
	require.Len(t, frames, 1)
	assert.Equal(t, string(domain.EventSignal), frames[0]["type"])
	delivered := frames[0]["envelope"].(map[string]any)
	assert.Equal(t, "alice", delivered["from"])
	assert.Equal(t, "offer", delivered["kind"])
	assert.Equal(t, float64(1), delivered["sequence"])
}

func TestRelay_RejectsStaleRetransmission(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)
	reg.Register("bob", newFakeConn())

	sent, err := relay.Relay(relayEnv("alice", "bob", domain.SignalOffer))
	require.NoError(t, err)

	t.Run("duplicate sequence", func(t *testing.T) {
		dup := relayEnv("alice", "bob", domain.SignalOffer)
		dup.Sequence = sent.Sequence
		_, err := relay.Relay(dup)
		assert.ErrorIs(t, err, apperrors.ErrStaleSignal)
	})

	t.Run("older sequence after a newer one", func(t *testing.T) {
		newer := relayEnv("alice", "bob", domain.SignalCandidate)
		newer.Sequence = 5
		_, err := relay.Relay(newer)
		require.NoError(t, err)

		old := relayEnv("alice", "bob", domain.SignalCandidate)
		old.Sequence = 3
		_, err = relay.Relay(old)
		assert.ErrorIs(t, err, apperrors.ErrStaleSignal)

		// fresh envelopes continue past the jump
		next, err := relay.Relay(relayEnv("alice", "bob", domain.SignalCandidate))
		require.NoError(t, err)
		assert.Equal(t, uint64(6), next.Sequence)
	})
}

func TestRelay_DropUserResetsSequences(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)
	reg.Register("alice", newFakeConn())
	reg.Register("bob", newFakeConn())

	_, err := relay.Relay(relayEnv("alice", "bob", domain.SignalOffer))
	require.NoError(t, err)

	relay.DropUser("bob")

	fresh, err := relay.Relay(relayEnv("alice", "bob", domain.SignalOffer))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), fresh.Sequence)
}
