package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/replayrelay/internal/adapters/ws"
	"github.com/dkeye/replayrelay/internal/core"
	"github.com/dkeye/replayrelay/internal/domain"
)

var (
	ErrAlreadyStarted = errors.New("replay server already started")
	ErrStopped        = errors.New("replay server stopped")
)

const defaultChunkSize = 32 * 1024

type Options struct {
	BindHost     string
	ChunkSize    int
	LobbyVersion string

	Access    core.AccessProvider
	Games     core.GameSource
	Players   core.PlayerDirectory
	Identity  core.Identity
	Persister core.ReplayPersister
	Dialer    ws.Dialer

	// OnConnectionDone runs after both sinks of a connection have returned.
	OnConnectionDone func()
	Now              func() time.Time
}

// Server records one game: the local game process streams its replay into
// a loopback TCP socket, every chunk is relayed to the remote replay server
// and captured locally, and the capture is written to disk once the stream
// ends cleanly.
type Server struct {
	opts   Options
	sid    domain.SessionID
	gameID domain.GameID
	meta   *domain.ReplayMetadata

	state   atomic.Int32
	connSeq atomic.Int64

	mu       sync.Mutex
	started  bool
	stopped  bool
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	remotes  map[int64]*ws.Conn

	stopOnce  sync.Once
	doneOnce  sync.Once
	done      chan struct{}
	conns     sync.WaitGroup
	logger    zerolog.Logger
	localPort int
}

func NewServer(sid domain.SessionID, opts Options) *Server {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.BindHost == "" {
		opts.BindHost = "127.0.0.1"
	}
	s := &Server{
		opts:    opts,
		sid:     sid,
		remotes: make(map[int64]*ws.Conn),
		done:    make(chan struct{}),
		logger:  log.With().Str("module", "capture").Str("session", string(sid)).Logger(),
	}
	s.state.Store(int32(domain.SessionStarting))
	return s
}

func (s *Server) now() time.Time {
	if s.opts.Now != nil {
		return s.opts.Now()
	}
	return time.Now()
}

func (s *Server) SessionID() domain.SessionID { return s.sid }

func (s *Server) GameID() domain.GameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

func (s *Server) State() domain.SessionState { return domain.SessionState(s.state.Load()) }

func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localPort
}

// Done is closed once the listener is gone and every connection task has
// returned.
func (s *Server) Done() <-chan struct{} { return s.done }

func (s *Server) sessionLogger() *zerolog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.logger
	return &l
}

func (s *Server) setState(st domain.SessionState) {
	prev := domain.SessionState(s.state.Swap(int32(st)))
	if prev != st {
		s.sessionLogger().Debug().Str("from", prev.String()).Str("to", st.String()).Msg("session state")
	}
}

func (s *Server) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Start binds an ephemeral loopback port for gameID and returns it once the
// listener is accepting. Bind errors are returned as is; nothing is retried.
func (s *Server) Start(ctx context.Context, gameID domain.GameID) (int, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return 0, ErrAlreadyStarted
	}
	if s.stopped {
		s.mu.Unlock()
		return 0, ErrStopped
	}
	s.started = true
	s.gameID = gameID
	s.meta = domain.NewReplayMetadata(gameID, s.opts.LobbyVersion, s.now())
	s.logger = s.logger.With().Int("game_id", int(gameID)).Logger()
	s.mu.Unlock()

	ln, err := net.Listen("tcp", net.JoinHostPort(s.opts.BindHost, "0"))
	if err != nil {
		s.setState(domain.SessionClosed)
		s.closeDone()
		return 0, fmt.Errorf("bind replay server: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = ln.Close()
		s.closeDone()
		return 0, ErrStopped
	}
	s.listener = ln
	s.localPort = port
	// ctx only bounds the start call; the session outlives it.
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	s.setState(domain.SessionBound)
	s.sessionLogger().Info().Int("port", port).Msg("opening local replay server")

	go s.acceptLoop(ln)
	return port, nil
}

// Stop closes the listener and any live remote connection. It is safe to
// call at any time, from any goroutine, any number of times. It never
// finalizes a replay: a game still streaming keeps being captured until it
// disconnects.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		ln := s.listener
		cancel := s.cancel
		remotes := make([]*ws.Conn, 0, len(s.remotes))
		for _, r := range s.remotes {
			remotes = append(remotes, r)
		}
		clear(s.remotes)
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		for _, r := range remotes {
			r.Close()
		}
		if ln == nil {
			s.setState(domain.SessionClosed)
			s.closeDone()
			return
		}
		s.sessionLogger().Info().Int("port", s.Port()).Msg("closing local replay server")
		_ = ln.Close()
		if st := s.State(); st == domain.SessionStarting || st == domain.SessionBound {
			s.setState(domain.SessionClosed)
		}
	})
}

func (s *Server) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.closeDone()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isStopped() || errors.Is(err, net.ErrClosed) {
				s.conns.Wait()
				return
			}
			s.sessionLogger().Error().Err(err).Msg("accept failed")
			continue
		}

		id := s.connSeq.Add(1)
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn, id)
			if s.opts.OnConnectionDone != nil {
				s.opts.OnConnectionDone()
			}
		}()
	}
}

// handleConnection reads the socket once and feeds both sinks. It returns
// when the remote relay and the local capture have both finished.
func (s *Server) handleConnection(conn net.Conn, connID int64) {
	defer conn.Close()
	logger := s.sessionLogger().With().Int64("conn_id", connID).Logger()
	logger.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("game connected")
	s.setState(domain.SessionStreaming)

	b := newBroadcast()
	remote := b.Subscribe()
	local := b.Subscribe()
	meta := s.meta.Clone()

	var wg conc.WaitGroup
	wg.Go(func() { s.relayRemote(remote, connID, &logger) })
	wg.Go(func() { s.captureLocal(local, meta, &logger) })
	wg.Go(func() {
		n, err := pump(conn, s.opts.ChunkSize, b)
		logger.Debug().Int64("bytes", n).AnErr("read_error", err).Msg("inbound stream ended")
	})
	if r := wg.WaitAndRecover(); r != nil {
		logger.Error().Str("panic", r.String()).Msg("replay connection task panicked")
		b.Close(r.AsError())
	}
}

// relayRemote is best effort: every failure is logged and swallowed so the
// local capture never sees it.
func (s *Server) relayRemote(sub *subscriber, connID int64, logger *zerolog.Logger) {
	defer sub.Cancel()
	err := s.forwardRemote(sub, connID, logger)
	switch {
	case err == nil:
	case s.isStopped():
		logger.Debug().Err(err).Msg("remote relay ended by stop")
	default:
		logger.Warn().Err(err).Msg("error sending data to remote replay server")
	}
}

func (s *Server) forwardRemote(sub *subscriber, connID int64, logger *zerolog.Logger) error {
	grant, err := s.opts.Access.Fetch(s.ctx, s.sid)
	if err != nil {
		return fmt.Errorf("fetch replay access: %w", err)
	}
	conn, err := s.opts.Dialer.Dial(s.ctx, grant.URL)
	if err != nil {
		return err
	}
	if !s.trackRemote(connID, conn) {
		conn.Close()
		return nil
	}
	defer s.untrackRemote(connID)
	logger.Info().Msg("relaying to remote replay server")

	// The remote never sends data, but reading is what processes its
	// control frames and notices a close.
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	remoteGone := make(chan error, 1)
	go func() {
		remoteGone <- drainRemote(conn)
		cancel()
	}()

	for {
		chunk, err := sub.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			conn.CloseNormal()
			return nil
		case errors.Is(err, context.Canceled):
			conn.Close()
			if s.ctx.Err() == nil {
				return fmt.Errorf("replay server closed the connection: %w", <-remoteGone)
			}
			return nil
		default:
			// Local read failed; the remote copy is as incomplete as ours.
			conn.Close()
			logger.Debug().Err(err).Msg("inbound stream failed, dropping remote relay")
			return nil
		}
		if err := conn.WriteChunk(chunk); err != nil {
			conn.Close()
			return fmt.Errorf("write to replay server: %w", err)
		}
	}
}

// drainRemote reads conn until it fails and returns that failure.
func drainRemote(conn *ws.Conn) error {
	for {
		if _, err := conn.ReadChunk(); err != nil {
			return err
		}
	}
}

func (s *Server) trackRemote(connID int64, conn *ws.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.remotes[connID] = conn
	return true
}

func (s *Server) untrackRemote(connID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.remotes, connID)
}

// captureLocal is authoritative: only its clean end of stream finalizes
// the replay.
func (s *Server) captureLocal(sub *subscriber, meta *domain.ReplayMetadata, logger *zerolog.Logger) {
	defer sub.Cancel()
	var buf captureBuffer
	for {
		chunk, err := sub.Next(context.Background())
		if err == nil {
			buf.Append(chunk)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		logger.Error().Err(err).Int("bytes", buf.Len()).Msg("error in replay server, replay not saved")
		s.setState(domain.SessionClosed)
		return
	}

	logger.Info().Int("bytes", buf.Len()).Msg("game disconnected, writing replay data to file")
	s.setState(domain.SessionFinalizing)
	if err := s.finalize(meta, buf.Bytes(), logger); err != nil {
		logger.Error().Err(err).Msg("unable to write replay data to file")
	}
	s.setState(domain.SessionClosed)
}
