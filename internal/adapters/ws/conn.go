package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Dialer opens binary WebSocket connections to signed access URLs.
type Dialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func (d Dialer) Dial(ctx context.Context, url string) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	log.Debug().Str("module", "ws").Msg("connecting to replay server")
	c, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewConn(c, d.WriteTimeout), nil
}

// Conn carries raw payload bytes as binary frames. Writes are serialized;
// only one goroutine may read.
type Conn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu   sync.Mutex
	once sync.Once
}

func NewConn(c *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{conn: c, writeTimeout: writeTimeout}
}

func (c *Conn) WriteChunk(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// ReadChunk returns the payload of the next binary frame. Text frames are
// skipped.
func (c *Conn) ReadChunk() ([]byte, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.BinaryMessage {
			return data, nil
		}
		log.Debug().Str("module", "ws").Int("type", mt).Msg("skipping non-binary frame")
	}
}

// CloseNormal sends a normal closure frame and closes the connection.
func (c *Conn) CloseNormal() {
	c.mu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.mu.Unlock()
	c.Close()
}

func (c *Conn) Close() {
	c.once.Do(func() {
		_ = c.conn.Close()
	})
}

// IsExpectedClose reports whether err is the ordinary end of a connection
// rather than a failure worth logging loudly.
func IsExpectedClose(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}
