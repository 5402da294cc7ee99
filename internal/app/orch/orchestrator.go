package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/replayrelay/internal/adapters/ws"
	"github.com/dkeye/replayrelay/internal/app"
	"github.com/dkeye/replayrelay/internal/app/capture"
	"github.com/dkeye/replayrelay/internal/app/spectate"
	"github.com/dkeye/replayrelay/internal/core"
	"github.com/dkeye/replayrelay/internal/domain"
)

var ErrAlreadyRecording = errors.New("game is already being recorded")

// Orchestrator creates recording and spectate sessions and keeps the
// registry in step with their lifetimes.
type Orchestrator struct {
	Registry *app.Registry

	Access    core.AccessProvider
	Games     core.GameSource
	Players   core.PlayerDirectory
	Identity  core.Identity
	Persister core.ReplayPersister
	Dialer    ws.Dialer

	BindHost     string
	ChunkSize    int
	LobbyVersion string

	mu sync.Mutex
}

// Started is what a caller needs to point the game at a session.
type Started struct {
	SessionID domain.SessionID `json:"session_id"`
	Port      int              `json:"port"`
}

// StartRecording opens a replay server for gameID. The server stops itself
// after its first connection has been captured.
func (o *Orchestrator) StartRecording(ctx context.Context, gameID domain.GameID) (Started, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.Registry.RecordingFor(gameID); ok {
		return Started{}, fmt.Errorf("game %d: %w", gameID, ErrAlreadyRecording)
	}

	sid := domain.NewSessionID()
	var srv *capture.Server
	srv = capture.NewServer(sid, capture.Options{
		BindHost:     o.BindHost,
		ChunkSize:    o.ChunkSize,
		LobbyVersion: o.LobbyVersion,
		Access:       o.Access,
		Games:        o.Games,
		Players:      o.Players,
		Identity:     o.Identity,
		Persister:    o.Persister,
		Dialer:       o.Dialer,
		OnConnectionDone: func() {
			srv.Stop()
		},
	})

	port, err := srv.Start(ctx, gameID)
	if err != nil {
		return Started{}, err
	}
	o.track(domain.KindRecording, gameID, srv)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Int("game_id", int(gameID)).Int("port", port).Msg("recording started")
	return Started{SessionID: sid, Port: port}, nil
}

func (o *Orchestrator) StartSpectate(ctx context.Context) (Started, error) {
	sid := domain.NewSessionID()
	bridge := spectate.NewBridge(sid, spectate.Options{
		BindHost:  o.BindHost,
		ChunkSize: o.ChunkSize,
		Access:    o.Access,
		Dialer:    o.Dialer,
	})
	port, err := bridge.Start(ctx)
	if err != nil {
		return Started{}, err
	}
	o.track(domain.KindSpectate, 0, bridge)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Int("port", port).Msg("spectate started")
	return Started{SessionID: sid, Port: port}, nil
}

func (o *Orchestrator) Stop(sid domain.SessionID) error {
	return o.Registry.Stop(sid)
}

func (o *Orchestrator) StopAll() {
	o.Registry.StopAll()
}

func (o *Orchestrator) track(kind domain.SessionKind, gameID domain.GameID, sess app.Session) {
	o.Registry.Bind(kind, gameID, sess)
	go func() {
		<-sess.Done()
		o.Registry.Unbind(sess.SessionID())
	}()
}
