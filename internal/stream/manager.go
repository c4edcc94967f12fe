// Package stream owns live-broadcast lifecycle, viewer membership and
// fan-out of chat and tip events. One session per streamer; each session
// is a single ordering domain for everything that happens inside it.
package stream

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/core"
	"github.com/mavrk/beam/internal/domain"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

// FollowerLookup supplies the audience for stream-started fan-out. How
// follower relationships are computed lives outside this core.
type FollowerLookup interface {
	FollowersOf(streamer domain.UserID) []domain.UserID
}

// TipRecorder is informed of every tip amount; it owns the ledger.
type TipRecorder interface {
	RecordTip(from, to domain.UserID, amount int64)
}

type session struct {
	mu sync.Mutex

	streamerID domain.UserID
	state      domain.StreamState
	viewers    map[domain.UserID]struct{}
	startedAt  time.Time
}

func (s *session) snapshotLocked() domain.StreamSession {
	viewers := make([]domain.UserID, 0, len(s.viewers))
	for uid := range s.viewers {
		viewers = append(viewers, uid)
	}
	return domain.StreamSession{
		StreamID:    s.streamerID,
		State:       s.state,
		Viewers:     viewers,
		ViewerCount: len(s.viewers),
		StartedAt:   s.startedAt,
	}
}

// audienceLocked is everyone who must see a stream event: all current
// viewers plus the streamer.
func (s *session) audienceLocked() []domain.UserID {
	out := make([]domain.UserID, 0, len(s.viewers)+1)
	for uid := range s.viewers {
		out = append(out, uid)
	}
	out = append(out, s.streamerID)
	return out
}

type Manager struct {
	dispatch  *core.Dispatcher
	followers FollowerLookup
	tips      TipRecorder
	now       func() time.Time

	mu   sync.RWMutex
	live map[domain.StreamID]*session
}

func NewManager(dispatch *core.Dispatcher, followers FollowerLookup, tips TipRecorder) *Manager {
	return &Manager{
		dispatch:  dispatch,
		followers: followers,
		tips:      tips,
		now:       time.Now,
		live:      make(map[domain.StreamID]*session),
	}
}

// Start opens a broadcast and notifies the streamer's followers.
func (m *Manager) Start(streamerID domain.UserID) (domain.StreamSession, error) {
	s := &session{
		streamerID: streamerID,
		state:      domain.StreamLive,
		viewers:    make(map[domain.UserID]struct{}),
		startedAt:  m.now(),
	}

	m.mu.Lock()
	if _, ok := m.live[streamerID]; ok {
		m.mu.Unlock()
		return domain.StreamSession{}, apperrors.ErrAlreadyLive
	}
	m.live[streamerID] = s
	m.mu.Unlock()

	snap := domain.StreamSession{StreamID: streamerID, State: domain.StreamLive, Viewers: []domain.UserID{}, StartedAt: s.startedAt}
	log.Info().Str("module", "stream").Str("streamer", string(streamerID)).Msg("stream started")

	if m.followers != nil {
		for _, follower := range m.followers.FollowersOf(streamerID) {
			m.dispatch.Notify(domain.NewNotification(follower, domain.NotifyStreamStarted, snap))
		}
	}
	return snap, nil
}

// Stop ends the broadcast and evicts every viewer. Idempotent: stopping
// a stream that is not live changes nothing and emits nothing.
func (m *Manager) Stop(streamerID domain.UserID) domain.StreamSession {
	m.mu.Lock()
	s, ok := m.live[streamerID]
	if ok {
		delete(m.live, streamerID)
	}
	m.mu.Unlock()

	if !ok {
		return domain.StreamSession{StreamID: streamerID, State: domain.StreamEnded}
	}

	s.mu.Lock()
	s.state = domain.StreamEnded
	snap := s.snapshotLocked()
	evicted := snap.Viewers
	s.viewers = make(map[domain.UserID]struct{})
	s.mu.Unlock()

	log.Info().Str("module", "stream").Str("streamer", string(streamerID)).
		Int("viewers", len(evicted)).Msg("stream stopped")

	for _, viewer := range evicted {
		m.dispatch.Notify(domain.NewNotification(viewer, domain.NotifyStreamEnded, snap))
	}
	return snap
}

// Join adds a viewer to a live stream. Joining twice is idempotent; a
// streamer cannot watch their own broadcast.
func (m *Manager) Join(streamID domain.StreamID, viewerID domain.UserID) (domain.StreamSession, error) {
	s, err := m.liveSession(streamID)
	if err != nil {
		return domain.StreamSession{}, err
	}
	if viewerID == streamID {
		return domain.StreamSession{}, apperrors.ErrInvalidTransition
	}

	s.mu.Lock()
	if s.state != domain.StreamLive {
		s.mu.Unlock()
		return domain.StreamSession{}, apperrors.ErrStreamNotLive
	}
	_, already := s.viewers[viewerID]
	s.viewers[viewerID] = struct{}{}
	snap := s.snapshotLocked()
	if !already {
		m.broadcastLocked(s, domain.NewViewerCountEvent(streamID, snap.ViewerCount))
	}
	s.mu.Unlock()

	return snap, nil
}

// Leave removes a viewer. Leaving a stream one is not watching is a no-op.
func (m *Manager) Leave(streamID domain.StreamID, viewerID domain.UserID) (domain.StreamSession, error) {
	s, err := m.liveSession(streamID)
	if err != nil {
		return domain.StreamSession{}, err
	}

	s.mu.Lock()
	if s.state != domain.StreamLive {
		s.mu.Unlock()
		return domain.StreamSession{}, apperrors.ErrStreamNotLive
	}
	_, member := s.viewers[viewerID]
	delete(s.viewers, viewerID)
	snap := s.snapshotLocked()
	if member {
		m.broadcastLocked(s, domain.NewViewerCountEvent(streamID, snap.ViewerCount))
	}
	s.mu.Unlock()

	return snap, nil
}

// PostChat fans a chat line out to the streamer and all viewers. Holding
// the session mutex across accept-and-send is what gives every stream a
// single ordering domain.
func (m *Manager) PostChat(streamID domain.StreamID, senderID domain.UserID, text string) error {
	s, err := m.liveSession(streamID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StreamLive {
		return apperrors.ErrStreamNotLive
	}
	m.broadcastLocked(s, domain.NewStreamChatEvent(streamID, senderID, text, m.now()))
	return nil
}

// PostTip broadcasts the tip like a chat line and additionally notifies
// the streamer directly: they must learn of the tip even when not
// watching their own chat view.
func (m *Manager) PostTip(streamID domain.StreamID, senderID domain.UserID, amount int64) error {
	s, err := m.liveSession(streamID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != domain.StreamLive {
		s.mu.Unlock()
		return apperrors.ErrStreamNotLive
	}
	ev := domain.NewStreamTipEvent(streamID, senderID, amount, m.now())
	m.broadcastLocked(s, ev)
	s.mu.Unlock()

	m.dispatch.Notify(domain.NewNotification(streamID, domain.NotifyTipReceived, ev))
	if m.tips != nil {
		m.tips.RecordTip(senderID, streamID, amount)
	}
	return nil
}

// OnDisconnect runs the drop cascade: a streamer drop stops the stream,
// a viewer drop leaves every stream they were watching.
func (m *Manager) OnDisconnect(uid domain.UserID) {
	m.mu.RLock()
	_, streaming := m.live[uid]
	var watching []*session
	for _, s := range m.live {
		if s.streamerID == uid {
			continue
		}
		watching = append(watching, s)
	}
	m.mu.RUnlock()

	if streaming {
		m.Stop(uid)
	}
	for _, s := range watching {
		_, _ = m.Leave(s.streamerID, uid)
	}
}

// List snapshots every live stream, for the HTTP surface.
func (m *Manager) List() []domain.StreamSession {
	m.mu.RLock()
	sessions := make([]*session, 0, len(m.live))
	for _, s := range m.live {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]domain.StreamSession, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		out = append(out, s.snapshotLocked())
		s.mu.Unlock()
	}
	return out
}

func (m *Manager) liveSession(streamID domain.StreamID) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.live[streamID]
	if !ok {
		return nil, apperrors.ErrStreamNotLive
	}
	return s, nil
}

func (m *Manager) broadcastLocked(s *session, ev domain.Event) {
	for _, uid := range s.audienceLocked() {
		m.dispatch.Dispatch(uid, ev)
	}
}
