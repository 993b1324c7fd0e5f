package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketConn adapts a websocket connection to the bridge Conn. This is the
// transport used when the document engine runs inside a real embedded web
// view connecting back to the host process.
type WebSocketConn struct {
	ws      *websocket.Conn
	in      chan string
	writeMu sync.Mutex
	once    sync.Once
	closed  chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The embedded document is served by the host itself.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Dial connects to a bridge endpoint as the engine side.
func Dial(ctx context.Context, url string) (*WebSocketConn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return newWebSocketConn(ws), nil
}

// Accept upgrades an incoming HTTP request into a bridge conn on the host
// side.
func Accept(w http.ResponseWriter, r *http.Request) (*WebSocketConn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: upgrade: %w", err)
	}
	return newWebSocketConn(ws), nil
}

func newWebSocketConn(ws *websocket.Conn) *WebSocketConn {
	c := &WebSocketConn{
		ws:     ws,
		in:     make(chan string, loopbackBuffer),
		closed: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// readLoop owns c.in: it is the only sender and closes it on exit, so a
// concurrent Close can never race a send on a closed channel.
func (c *WebSocketConn) readLoop() {
	defer close(c.in)
	defer c.Close()
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("transport: read error", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case c.in <- string(data):
		case <-c.closed:
			return
		}
	}
}

// Send writes raw as a single text frame. Fire-and-forget: a write error
// closes the conn and is returned, but is never retried.
func (c *WebSocketConn) Send(raw string) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		c.Close()
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

// Receive returns the inbound channel, closed when the conn closes.
func (c *WebSocketConn) Receive() <-chan string {
	return c.in
}

// Close tears the connection down. Safe to call more than once.
func (c *WebSocketConn) Close() error {
	c.once.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
	return nil
}
