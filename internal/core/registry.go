package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
)

type RegistryEventKind int

const (
	Registered RegistryEventKind = iota
	Deregistered
)

// RegistryEvent describes one connection transition. Replacement of a
// stale handle produces a synthetic Deregistered followed by a
// Registered, so listeners always see exactly one transition per edge.
type RegistryEvent struct {
	Kind   RegistryEventKind
	UserID domain.UserID
	Handle *ConnectionHandle
}

type RegistryListener func(RegistryEvent)

// Registry maps a user to exactly one live connection. It is the single
// source of truth for reachability: components that depend on it must
// re-check at the moment of send, never cache.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]*ConnectionHandle

	// emitMu serializes mutation+notification so every listener observes
	// per-user transitions in the order they occurred.
	emitMu    sync.Mutex
	listeners []RegistryListener
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]*ConnectionHandle)}
}

// Subscribe adds a listener. Call during wiring, before traffic starts.
func (r *Registry) Subscribe(l RegistryListener) {
	r.listeners = append(r.listeners, l)
}

// Register binds a connection to a user. Registering twice for the same
// user is not an error, it is a reconnection: the stale handle is closed
// and synthetically deregistered first.
func (r *Registry) Register(uid domain.UserID, conn Conn) *ConnectionHandle {
	h := &ConnectionHandle{UserID: uid, ConnectedAt: time.Now(), conn: conn}

	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	old := r.conns[uid]
	r.conns[uid] = h
	r.mu.Unlock()

	if old != nil {
		old.close()
		r.emit(RegistryEvent{Kind: Deregistered, UserID: uid, Handle: old})
		log.Info().Str("module", "core.registry").Str("user", string(uid)).Msg("stale connection replaced")
	}
	r.emit(RegistryEvent{Kind: Registered, UserID: uid, Handle: h})
	log.Info().Str("module", "core.registry").Str("user", string(uid)).Msg("connection registered")
	return h
}

// Deregister removes whatever handle the user currently holds.
func (r *Registry) Deregister(uid domain.UserID) bool {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	h, ok := r.conns[uid]
	if ok {
		delete(r.conns, uid)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	h.close()
	r.emit(RegistryEvent{Kind: Deregistered, UserID: uid, Handle: h})
	log.Info().Str("module", "core.registry").Str("user", string(uid)).Msg("connection deregistered")
	return true
}

// Release deregisters only if h is still the user's current handle. The
// read loop of a replaced connection exits late; it must not clobber the
// successor that replaced it.
func (r *Registry) Release(uid domain.UserID, h *ConnectionHandle) bool {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	cur, ok := r.conns[uid]
	if !ok || cur != h {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, uid)
	r.mu.Unlock()

	h.close()
	r.emit(RegistryEvent{Kind: Deregistered, UserID: uid, Handle: h})
	log.Info().Str("module", "core.registry").Str("user", string(uid)).Msg("connection released")
	return true
}

// Get returns the user's live handle, checked at the moment of call.
func (r *Registry) Get(uid domain.UserID) (*ConnectionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.conns[uid]
	return h, ok
}

// Handles snapshots every live connection, for full broadcasts.
func (r *Registry) Handles() []*ConnectionHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ConnectionHandle, 0, len(r.conns))
	for _, h := range r.conns {
		out = append(out, h)
	}
	return out
}

func (r *Registry) emit(ev RegistryEvent) {
	for _, l := range r.listeners {
		l(ev)
	}
}
