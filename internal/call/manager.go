// Package call owns the private-call state machine. Each session is its
// own serialization domain: transitions for one session never block or
// observe another.
package call

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/core"
	"github.com/mavrk/beam/internal/domain"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

// Biller is informed of the final cost of every call. It owns all ledger
// mutation; this package only computes and reports the number.
type Biller interface {
	RecordCallCharge(caller, callee domain.UserID, cost int64)
}

type pairKey struct {
	a, b domain.UserID
}

// newPairKey normalizes the unordered (caller, callee) pair.
func newPairKey(x, y domain.UserID) pairKey {
	if x < y {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

type session struct {
	mu sync.Mutex

	id          string
	callerID    domain.UserID
	calleeID    domain.UserID
	state       domain.CallState
	rate        int64
	requestedAt time.Time
	activeSince time.Time
	endedAt     time.Time
	reason      domain.CallEndReason
	cost        int64
	timer       *time.Timer
}

// snapshotLocked copies the session out of its serialization domain.
func (s *session) snapshotLocked() domain.CallSession {
	return domain.CallSession{
		ID:            s.id,
		CallerID:      s.callerID,
		CalleeID:      s.calleeID,
		State:         s.state,
		RatePerMinute: s.rate,
		RequestedAt:   s.requestedAt,
		ActiveSince:   s.activeSince,
		EndedAt:       s.endedAt,
		EndReason:     s.reason,
		Cost:          s.cost,
	}
}

func (s *session) isLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != domain.CallEnded
}

type Manager struct {
	reg         *core.Registry
	dispatch    *core.Dispatcher
	billing     Biller
	ringTimeout time.Duration
	now         func() time.Time

	mu     sync.Mutex
	byPair map[pairKey]*session
	byID   map[string]*session
}

func NewManager(reg *core.Registry, dispatch *core.Dispatcher, billing Biller, ringTimeout time.Duration) *Manager {
	return &Manager{
		reg:         reg,
		dispatch:    dispatch,
		billing:     billing,
		ringTimeout: ringTimeout,
		now:         time.Now,
		byPair:      make(map[pairKey]*session),
		byID:        make(map[string]*session),
	}
}

// Request opens a call toward an online callee. At most one session may
// be pending or active per unordered pair.
func (m *Manager) Request(caller, callee domain.UserID, ratePerMinute int64) (domain.CallSession, error) {
	if _, ok := m.reg.Get(callee); !ok {
		return domain.CallSession{}, apperrors.ErrRecipientOffline
	}

	key := newPairKey(caller, callee)
	s := &session{
		id:          uuid.NewString(),
		callerID:    caller,
		calleeID:    callee,
		state:       domain.CallRequested,
		rate:        ratePerMinute,
		requestedAt: m.now(),
	}

	m.mu.Lock()
	if cur, ok := m.byPair[key]; ok && cur.isLive() {
		m.mu.Unlock()
		return domain.CallSession{}, apperrors.ErrSessionAlreadyPending
	}
	m.byPair[key] = s
	m.byID[s.id] = s
	m.mu.Unlock()

	s.mu.Lock()
	if m.ringTimeout > 0 {
		s.timer = time.AfterFunc(m.ringTimeout, func() { m.expire(s) })
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info().Str("module", "call").Str("session", s.id).
		Str("caller", string(caller)).Str("callee", string(callee)).Msg("call requested")

	m.emitState(snap)
	m.dispatch.Notify(domain.NewNotification(callee, domain.NotifyCallRequest, snap))
	return snap, nil
}

// Acknowledge marks the callee's client as ringing. Informational only:
// a session the callee never acknowledges still waits for accept, reject
// or timeout. Acknowledging twice is a no-op.
func (m *Manager) Acknowledge(sessionID string, by domain.UserID) (domain.CallSession, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return domain.CallSession{}, err
	}

	s.mu.Lock()
	if by != s.calleeID || s.state == domain.CallActive || s.state == domain.CallEnded {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.ErrInvalidTransition
	}
	if s.state == domain.CallRequested {
		s.state = domain.CallRinging
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	m.emitState(snap)
	return snap, nil
}

// Accept transitions Requested/Ringing to Active and starts accrual.
func (m *Manager) Accept(sessionID string, by domain.UserID) (domain.CallSession, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return domain.CallSession{}, err
	}

	s.mu.Lock()
	if by != s.calleeID || (s.state != domain.CallRequested && s.state != domain.CallRinging) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.ErrInvalidTransition
	}
	s.state = domain.CallActive
	s.activeSince = m.now()
	s.stopTimerLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info().Str("module", "call").Str("session", s.id).Msg("call accepted")
	m.emitState(snap)
	return snap, nil
}

// Reject ends a pending session before it ever went active.
func (m *Manager) Reject(sessionID string, by domain.UserID) (domain.CallSession, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return domain.CallSession{}, err
	}

	s.mu.Lock()
	if by != s.calleeID || (s.state != domain.CallRequested && s.state != domain.CallRinging) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.ErrInvalidTransition
	}
	snap := m.endLocked(s, domain.EndReasonRejected)
	s.mu.Unlock()

	m.finishSession(snap)
	return snap, nil
}

// End terminates the session from either party. Ending an already-Ended
// session is a no-op, not an error, and emits nothing twice.
func (m *Manager) End(sessionID string, by domain.UserID) (domain.CallSession, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return domain.CallSession{}, err
	}

	s.mu.Lock()
	if by != s.callerID && by != s.calleeID {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.ErrInvalidTransition
	}
	if s.state == domain.CallEnded {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	snap := m.endLocked(s, domain.EndReasonHangup)
	s.mu.Unlock()

	m.finishSession(snap)
	return snap, nil
}

// OnDisconnect resolves every live session the user is a party of. A
// dropped connection is a first-class state-machine input, not an error.
func (m *Manager) OnDisconnect(uid domain.UserID) {
	m.mu.Lock()
	var affected []*session
	for _, s := range m.byPair {
		if s.callerID == uid || s.calleeID == uid {
			affected = append(affected, s)
		}
	}
	m.mu.Unlock()

	for _, s := range affected {
		s.mu.Lock()
		if s.state == domain.CallEnded {
			s.mu.Unlock()
			continue
		}
		snap := m.endLocked(s, domain.EndReasonDisconnected)
		s.mu.Unlock()
		log.Info().Str("module", "call").Str("session", s.id).
			Str("user", string(uid)).Msg("call ended by disconnect")
		m.finishSession(snap)
	}
}

// Get returns a point-in-time view of a session.
func (m *Manager) Get(sessionID string) (domain.CallSession, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return domain.CallSession{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (m *Manager) lookup(sessionID string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return nil, apperrors.ErrInvalidTransition
	}
	return s, nil
}

// expire fires from the ring timer. The state re-check under the session
// mutex makes the cancel-on-first-writer race safe: whichever transition
// wins, the loser becomes a no-op.
func (m *Manager) expire(s *session) {
	s.mu.Lock()
	if s.state != domain.CallRequested && s.state != domain.CallRinging {
		s.mu.Unlock()
		return
	}
	snap := m.endLocked(s, domain.EndReasonTimeout)
	s.mu.Unlock()

	log.Info().Str("module", "call").Str("session", s.id).Msg("call request timed out")
	m.finishSession(snap)
}

func (m *Manager) endLocked(s *session, reason domain.CallEndReason) domain.CallSession {
	s.state = domain.CallEnded
	s.endedAt = m.now()
	s.reason = reason
	s.cost = domain.CallCost(s.activeSince, s.endedAt, s.rate)
	s.stopTimerLocked()
	return s.snapshotLocked()
}

// finishSession runs once per session, after the terminal transition:
// frees the pair slot, reports cost, informs both parties if connected.
func (m *Manager) finishSession(snap domain.CallSession) {
	key := newPairKey(snap.CallerID, snap.CalleeID)
	m.mu.Lock()
	if cur, ok := m.byPair[key]; ok && cur.id == snap.ID {
		delete(m.byPair, key)
	}
	m.mu.Unlock()

	if m.billing != nil {
		m.billing.RecordCallCharge(snap.CallerID, snap.CalleeID, snap.Cost)
	}
	m.emitState(snap)
	m.dispatch.Notify(domain.NewNotification(snap.CallerID, domain.NotifyCallEnded, snap))
	m.dispatch.Notify(domain.NewNotification(snap.CalleeID, domain.NotifyCallEnded, snap))
}

func (m *Manager) emitState(snap domain.CallSession) {
	ev := domain.NewCallStateEvent(snap)
	m.dispatch.Dispatch(snap.CallerID, ev)
	m.dispatch.Dispatch(snap.CalleeID, ev)
}

func (s *session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
