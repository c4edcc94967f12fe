package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

type pairKey struct {
	from domain.UserID
	to   domain.UserID
}

// Relay is a stateless pass-through for signaling envelopes, modulo the
// per-ordered-pair sequence counter it stamps on each one. It never
// interprets payloads.
type Relay struct {
	reg *Registry

	mu       sync.Mutex
	nextSeq  map[pairKey]uint64
	accepted map[pairKey]uint64
}

func NewRelay(reg *Registry) *Relay {
	return &Relay{
		reg:      reg,
		nextSeq:  make(map[pairKey]uint64),
		accepted: make(map[pairKey]uint64),
	}
}

// Relay forwards env verbatim to env.To. A fresh envelope (Sequence 0)
// gets the next sequence for the (from,to) pair; a retransmission keeps
// the sequence it carries and is rejected at the receiving edge if the
// recipient has already seen a newer one. Reachability is checked at the
// moment of send, never from a stale presence snapshot.
func (r *Relay) Relay(env domain.SignalingEnvelope) (domain.SignalingEnvelope, error) {
	key := pairKey{from: env.From, to: env.To}

	r.mu.Lock()
	if env.Sequence == 0 {
		r.nextSeq[key]++
		env.Sequence = r.nextSeq[key]
	}
	if env.Sequence <= r.accepted[key] {
		r.mu.Unlock()
		log.Debug().Str("module", "core.relay").
			Str("from", string(env.From)).Str("to", string(env.To)).
			Uint64("seq", env.Sequence).Msg("stale envelope rejected")
		return env, apperrors.ErrStaleSignal
	}
	r.accepted[key] = env.Sequence
	if env.Sequence > r.nextSeq[key] {
		r.nextSeq[key] = env.Sequence
	}
	r.mu.Unlock()

	h, ok := r.reg.Get(env.To)
	if !ok {
		return env, apperrors.ErrRecipientOffline
	}
	if err := h.Deliver(domain.NewSignalEvent(env)); err != nil {
		return env, err
	}
	return env, nil
}

// DropUser forgets sequence state for every pair involving uid, part of
// the disconnect cleanup cascade.
func (r *Relay) DropUser(uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.nextSeq {
		if key.from == uid || key.to == uid {
			delete(r.nextSeq, key)
			delete(r.accepted, key)
		}
	}
}
