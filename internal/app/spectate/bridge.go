package spectate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/replayrelay/internal/adapters/ws"
	"github.com/dkeye/replayrelay/internal/core"
	"github.com/dkeye/replayrelay/internal/domain"
)

var (
	ErrAlreadyStarted = errors.New("spectate bridge already started")
	ErrStopped        = errors.New("spectate bridge stopped")
)

const defaultChunkSize = 32 * 1024

type Options struct {
	BindHost  string
	ChunkSize int
	Access    core.AccessProvider
	Dialer    ws.Dialer
}

// Bridge lets a local game watch a live replay: each accepted TCP
// connection is joined to a freshly granted WebSocket and bytes flow both
// ways untouched.
type Bridge struct {
	opts    Options
	sid     domain.SessionID
	state   atomic.Int32
	connSeq atomic.Int64

	mu       sync.Mutex
	started  bool
	stopped  bool
	listener net.Listener
	port     int
	ctx      context.Context
	cancel   context.CancelFunc

	stopOnce sync.Once
	doneOnce sync.Once
	done     chan struct{}
	conns    sync.WaitGroup
	logger   zerolog.Logger
}

func NewBridge(sid domain.SessionID, opts Options) *Bridge {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.BindHost == "" {
		opts.BindHost = "127.0.0.1"
	}
	b := &Bridge{
		opts:   opts,
		sid:    sid,
		done:   make(chan struct{}),
		logger: log.With().Str("module", "spectate").Str("session", string(sid)).Logger(),
	}
	b.state.Store(int32(domain.SessionStarting))
	return b
}

func (b *Bridge) SessionID() domain.SessionID { return b.sid }

func (b *Bridge) State() domain.SessionState { return domain.SessionState(b.state.Load()) }

func (b *Bridge) Port() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.port
}

func (b *Bridge) Done() <-chan struct{} { return b.done }

func (b *Bridge) closeDone() {
	b.doneOnce.Do(func() { close(b.done) })
}

func (b *Bridge) Start(ctx context.Context) (int, error) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return 0, ErrAlreadyStarted
	}
	if b.stopped {
		b.mu.Unlock()
		return 0, ErrStopped
	}
	b.started = true
	b.mu.Unlock()

	ln, err := net.Listen("tcp", net.JoinHostPort(b.opts.BindHost, "0"))
	if err != nil {
		b.state.Store(int32(domain.SessionClosed))
		b.closeDone()
		return 0, fmt.Errorf("bind spectate bridge: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		_ = ln.Close()
		b.closeDone()
		return 0, ErrStopped
	}
	b.listener = ln
	b.port = port
	b.ctx, b.cancel = context.WithCancel(context.WithoutCancel(ctx))
	b.mu.Unlock()

	b.state.Store(int32(domain.SessionBound))
	b.logger.Info().Int("port", port).Msg("opening local live replay server")
	go b.acceptLoop(ln)
	return port, nil
}

// Stop closes the listener. Connections still being set up are abandoned;
// established relays run until one of their ends closes.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopped = true
		ln := b.listener
		cancel := b.cancel
		b.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if ln == nil {
			b.state.Store(int32(domain.SessionClosed))
			b.closeDone()
			return
		}
		b.logger.Info().Int("port", b.Port()).Msg("closing local live replay server")
		_ = ln.Close()
		b.state.CompareAndSwap(int32(domain.SessionBound), int32(domain.SessionClosed))
	})
}

func (b *Bridge) isStopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

func (b *Bridge) acceptLoop(ln net.Listener) {
	defer func() {
		b.conns.Wait()
		b.state.Store(int32(domain.SessionClosed))
		b.closeDone()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if b.isStopped() || errors.Is(err, net.ErrClosed) {
				return
			}
			b.logger.Error().Err(err).Msg("accept failed")
			continue
		}
		id := b.connSeq.Add(1)
		b.conns.Add(1)
		go func() {
			defer b.conns.Done()
			b.handleConnection(conn, id)
		}()
	}
}

func (b *Bridge) handleConnection(tcp net.Conn, connID int64) {
	defer tcp.Close()
	logger := b.logger.With().Int64("conn_id", connID).Logger()
	logger.Debug().Str("remote_addr", tcp.RemoteAddr().String()).Msg("spectator connected")

	grant, err := b.opts.Access.Fetch(b.ctx, b.sid)
	if err != nil {
		logger.Warn().Err(err).Msg("error fetching replay access")
		return
	}
	remote, err := b.opts.Dialer.Dial(b.ctx, grant.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("error connecting to replay server")
		return
	}
	defer remote.Close()

	b.state.Store(int32(domain.SessionStreaming))
	up, down, err := relay(tcp, remote, b.opts.ChunkSize)
	if err != nil && !ws.IsExpectedClose(err) {
		logger.Warn().Err(err).Int64("up_bytes", up).Int64("down_bytes", down).Msg("error relaying live replay")
		return
	}
	logger.Debug().Int64("up_bytes", up).Int64("down_bytes", down).Msg("spectator disconnected")
}

// relay copies tcp → remote and remote → tcp until either side ends, then
// tears both down. It returns the byte counts and the first failure.
func relay(tcp net.Conn, remote *ws.Conn, chunkSize int) (int64, int64, error) {
	var up, down int64
	var g errgroup.Group

	g.Go(func() error {
		defer remote.CloseNormal()
		buf := make([]byte, chunkSize)
		for {
			n, err := tcp.Read(buf)
			if n > 0 {
				if werr := remote.WriteChunk(buf[:n]); werr != nil {
					return fmt.Errorf("write to replay server: %w", werr)
				}
				up += int64(n)
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("read from game: %w", err)
			}
		}
	})

	g.Go(func() error {
		defer tcp.Close()
		for {
			data, err := remote.ReadChunk()
			if err != nil {
				return fmt.Errorf("read from replay server: %w", err)
			}
			if _, err := tcp.Write(data); err != nil {
				return fmt.Errorf("write to game: %w", err)
			}
			down += int64(len(data))
		}
	})

	err := g.Wait()
	return up, down, err
}
