package app

import (
	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/call"
	"github.com/mavrk/beam/internal/config"
	"github.com/mavrk/beam/internal/core"
	"github.com/mavrk/beam/internal/domain"
	"github.com/mavrk/beam/internal/stream"
)

// Orchestrator wires the realtime components together and owns the
// disconnect cascade. Adapters talk to it, not to the parts directly.
type Orchestrator struct {
	Registry   *core.Registry
	Presence   *core.Presence
	Relay      *core.Relay
	Dispatcher *core.Dispatcher
	Calls      *call.Manager
	Streams    *stream.Manager
}

// Billing is the ledger collaborator as the session managers see it.
type Billing interface {
	call.Biller
	stream.TipRecorder
}

// Build assembles the full graph from config and collaborators.
func Build(cfg *config.Config, followers stream.FollowerLookup, billing Billing) *Orchestrator {
	reg := core.NewRegistry()
	dispatch := core.NewDispatcher(reg)
	return &Orchestrator{
		Registry:   reg,
		Presence:   core.NewPresence(reg),
		Relay:      core.NewRelay(reg),
		Dispatcher: dispatch,
		Calls:      call.NewManager(reg, dispatch, billing, cfg.RingTimeout),
		Streams:    stream.NewManager(dispatch, followers, billing),
	}
}

// Connect registers the transport for uid. Presence broadcast and stale
// handle replacement happen inside the registry.
func (o *Orchestrator) Connect(uid domain.UserID, conn core.Conn) *core.ConnectionHandle {
	return o.Registry.Register(uid, conn)
}

// OnDisconnect resolves everything a dropped connection touches, in a
// fixed order: presence first, then calls, streams, relay state. A read
// loop exiting for a handle that was already replaced cascades nothing.
func (o *Orchestrator) OnDisconnect(uid domain.UserID, h *core.ConnectionHandle) {
	if !o.Registry.Release(uid, h) {
		log.Debug().Str("module", "app").Str("user", string(uid)).Msg("stale disconnect ignored")
		return
	}
	o.Calls.OnDisconnect(uid)
	o.Streams.OnDisconnect(uid)
	o.Relay.DropUser(uid)
	log.Info().Str("module", "app").Str("user", string(uid)).Msg("disconnect cascade complete")
}

// Signal relays one opaque envelope on behalf of from.
func (o *Orchestrator) Signal(from, to domain.UserID, kind domain.SignalKind, payload []byte) (domain.SignalingEnvelope, error) {
	env := domain.SignalingEnvelope{From: from, To: to, Kind: kind, Payload: payload}
	return o.Relay.Relay(env)
}
