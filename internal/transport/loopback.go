package transport

import "sync"

const loopbackBuffer = 256

// Loopback is an in-process conn end backed by buffered Go channels. Pairs
// are created with Pipe; what one end sends, the other receives in order.
type Loopback struct {
	out    chan<- string
	in     <-chan string
	mu     sync.Mutex
	closed bool
	peer   *Loopback
}

// Pipe creates a connected pair of loopback ends.
func Pipe() (*Loopback, *Loopback) {
	ab := make(chan string, loopbackBuffer)
	ba := make(chan string, loopbackBuffer)
	a := &Loopback{out: ab, in: ba}
	b := &Loopback{out: ba, in: ab}
	a.peer = b
	b.peer = a
	return a, b
}

// Send queues raw for the peer. It returns ErrClosed after either end closed.
func (l *Loopback) Send(raw string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.out <- raw
	return nil
}

// Receive returns the inbound channel, closed when the peer closes.
func (l *Loopback) Receive() <-chan string {
	return l.in
}

// Close closes both ends of the pair. Safe to call from either end and more
// than once.
func (l *Loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.out)
	l.mu.Unlock()

	l.peer.mu.Lock()
	if !l.peer.closed {
		l.peer.closed = true
		close(l.peer.out)
	}
	l.peer.mu.Unlock()
	return nil
}
