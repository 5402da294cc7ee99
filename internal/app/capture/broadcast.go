package capture

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dkeye/replayrelay/internal/core"
)

// broadcast fans one reader's chunks out to every subscriber, in order.
// Queues are unbounded so a stalled subscriber never holds back the others.
// Subscribers that attach before the first Publish see every chunk.
type broadcast struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
	done bool
	err  error
}

func newBroadcast() *broadcast {
	return &broadcast{subs: make(map[*subscriber]struct{})}
}

func (b *broadcast) Subscribe() *subscriber {
	s := &subscriber{b: b, notify: make(chan struct{}, 1)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		s.finish(b.err)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish hands c to every live subscriber. c must not be modified afterwards.
func (b *broadcast) Publish(c core.Chunk) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	for s := range b.subs {
		s.push(c)
	}
}

// Close ends the stream. A nil err is a clean end of stream.
func (b *broadcast) Close(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.done = true
	b.err = err
	for s := range b.subs {
		s.finish(err)
	}
	clear(b.subs)
}

func (b *broadcast) remove(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

type subscriber struct {
	b      *broadcast
	notify chan struct{}

	mu       sync.Mutex
	queue    []core.Chunk
	finished bool
	err      error
}

func (s *subscriber) push(c core.Chunk) {
	s.mu.Lock()
	s.queue = append(s.queue, c)
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) finish(err error) {
	s.mu.Lock()
	s.finished = true
	s.err = err
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next chunk. Once the queue is drained it returns io.EOF
// for a clean end, the source's error otherwise, or ctx.Err().
func (s *subscriber) Next(ctx context.Context) (core.Chunk, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			c := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return c, nil
		}
		if s.finished {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				return nil, io.EOF
			}
			return nil, err
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Cancel detaches the subscriber and drops whatever it had queued.
func (s *subscriber) Cancel() {
	s.b.remove(s)
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

// pump reads r until it fails and publishes a private copy of every read.
// io.EOF closes the broadcast cleanly; any other error is passed on.
func pump(r io.Reader, size int, b *broadcast) (int64, error) {
	buf := make([]byte, size)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c := make(core.Chunk, n)
			copy(c, buf[:n])
			total += int64(n)
			b.Publish(c)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.Close(nil)
				return total, nil
			}
			b.Close(err)
			return total, err
		}
	}
}
