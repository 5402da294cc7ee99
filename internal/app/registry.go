package app

import (
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/replayrelay/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is what the registry needs from a running capture server or
// spectate bridge.
type Session interface {
	SessionID() domain.SessionID
	State() domain.SessionState
	Port() int
	Stop()
	Done() <-chan struct{}
}

type sessionEntry struct {
	Kind    domain.SessionKind
	GameID  domain.GameID
	Session Session
}

// SessionInfo is a read-only view for APIs.
type SessionInfo struct {
	ID     domain.SessionID   `json:"id"`
	Kind   domain.SessionKind `json:"kind"`
	GameID domain.GameID      `json:"game_id,omitempty"`
	Port   int                `json:"port"`
	State  string             `json:"state"`
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*sessionEntry),
	}
}

func (r *Registry) Bind(kind domain.SessionKind, gameID domain.GameID, sess Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.SessionID()] = &sessionEntry{Kind: kind, GameID: gameID, Session: sess}
	log.Info().
		Str("module", "app.registry").
		Str("sid", string(sess.SessionID())).
		Str("kind", string(kind)).
		Int("port", sess.Port()).
		Msg("bound session")
}

func (r *Registry) Get(sid domain.SessionID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// RecordingFor returns the live recording session of gameID, if any.
func (r *Registry) RecordingFor(gameID domain.GameID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sessions {
		if e.Kind == domain.KindRecording && e.GameID == gameID {
			return e.Session, true
		}
	}
	return nil, false
}

func (r *Registry) Unbind(sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; !ok {
		return
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// Stop stops the session and leaves unbinding to its Done watcher.
func (r *Registry) Stop(sid domain.SessionID) error {
	sess, ok := r.Get(sid)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Stop()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("stopped session")
	return nil
}

func (r *Registry) StopAll() {
	r.mu.RLock()
	all := make([]Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		all = append(all, e.Session)
	}
	r.mu.RUnlock()
	for _, s := range all {
		s.Stop()
	}
}

func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for sid, e := range r.sessions {
		out = append(out, SessionInfo{
			ID:     sid,
			Kind:   e.Kind,
			GameID: e.GameID,
			Port:   e.Session.Port(),
			State:  e.Session.State().String(),
		})
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b SessionInfo) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
