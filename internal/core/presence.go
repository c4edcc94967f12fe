package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
)

// Presence derives the online-user set from registry events. It never
// mutates the set itself; the registry is the sole writer upstream.
type Presence struct {
	reg *Registry

	mu     sync.RWMutex
	online map[domain.UserID]struct{}
	subs   []func([]domain.UserID)
}

func NewPresence(reg *Registry) *Presence {
	p := &Presence{reg: reg, online: make(map[domain.UserID]struct{})}
	reg.Subscribe(p.onRegistryEvent)
	return p
}

// Snapshot returns the current online set, sorted for stable output.
func (p *Presence) Snapshot() []domain.UserID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// OnChange registers a subscriber invoked with the full online set on
// every change.
func (p *Presence) OnChange(fn func([]domain.UserID)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

func (p *Presence) onRegistryEvent(ev RegistryEvent) {
	p.mu.Lock()
	switch ev.Kind {
	case Registered:
		p.online[ev.UserID] = struct{}{}
	case Deregistered:
		delete(p.online, ev.UserID)
	}
	snap := p.snapshotLocked()
	subs := p.subs
	p.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	p.broadcast(snap)
}

// broadcast pushes the new set to every connected user, including the
// one whose presence just changed. Best-effort per connection.
func (p *Presence) broadcast(snap []domain.UserID) {
	ev := domain.NewPresenceEvent(snap)
	for _, h := range p.reg.Handles() {
		if err := h.Deliver(ev); err != nil {
			log.Debug().Str("module", "core.presence").Str("user", string(h.UserID)).Err(err).Msg("presence push dropped")
		}
	}
}

func (p *Presence) snapshotLocked() []domain.UserID {
	out := make([]domain.UserID, 0, len(p.online))
	for uid := range p.online {
		out = append(out, uid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
