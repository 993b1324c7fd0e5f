// Package transport provides the bridge channel: an order-preserving,
// string-only, fire-and-forget pipe between the host controller and the
// embedded document engine. The channel carries no acknowledgments and no
// back-pressure signal; request/response semantics are layered above it.
package transport

import "errors"

// ErrClosed is returned by Send after the conn is closed.
var ErrClosed = errors.New("transport: conn closed")

// Conn is one end of the bridge channel. Sends are fire-and-forget; messages
// arrive on Receive in send order. Receive is closed when the conn closes.
type Conn interface {
	Send(raw string) error
	Receive() <-chan string
	Close() error
}
