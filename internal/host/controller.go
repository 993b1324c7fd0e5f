// Package host implements the application-side state machine of the bridge:
// it owns editor chrome state, dispatches commands, and mirrors engine status
// events. The mirror is never mutated optimistically; the engine's echo is
// the only writer.
package host

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/forumkit/editorbridge/internal/transport"
	"github.com/forumkit/editorbridge/internal/wire"
)

// State is the controller lifecycle state.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateLoadingResource State = "loading-resource"
	StateReady           State = "ready"
	StateFocused         State = "focused"
	StateBlurred         State = "blurred"
)

// Overlays are the independent UI overlay flags layered over the lifecycle.
type Overlays struct {
	LinkModalOpen       bool
	MentionBarVisible   bool
	ImageToolbarVisible bool
}

// Candidate is one mention autocomplete match.
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MentionSession mirrors the in-progress autocomplete state. Matches are
// only meaningful while Active is true.
type MentionSession struct {
	Active                bool
	Loading               bool
	SearchText            string
	Matches               []Candidate
	InsertSymbolRequested bool
}

// MentionSearcher looks up mention candidates for a term. Out of scope for
// the bridge itself; supplied by the application.
type MentionSearcher interface {
	Search(ctx context.Context, term string) ([]Candidate, error)
}

// Notifier surfaces user-facing errors. Implementations block until the user
// acknowledges; the bridge never fails silently on user input.
type Notifier interface {
	Error(message string)
}

// Translator resolves a language string by message key.
type Translator func(key string) string

// ResourceLoader fetches the embedded document-engine asset.
type ResourceLoader interface {
	Load(ctx context.Context) (string, error)
}

// Config holds controller tuning.
type Config struct {
	Prefix string
	// FocusAckTimeout bounds the wait for FOCUS_ACK before the legacy
	// fixed-delay fallback kicks in.
	FocusAckTimeout time.Duration
}

func (c *Config) fillDefaults() {
	if c.Prefix == "" {
		c.Prefix = wire.DefaultPrefix
	}
	if c.FocusAckTimeout <= 0 {
		c.FocusAckTimeout = 750 * time.Millisecond
	}
}

// Controller is the host-side half of the bridge. All dependencies are
// injected; the composition root owns construction and lifecycle.
type Controller struct {
	cfg       Config
	conn      transport.Conn
	searcher  MentionSearcher
	notifier  Notifier
	translate Translator

	mu       sync.Mutex
	state    State
	overlays Overlays
	formats  wire.FormatState
	mention  MentionSession
	content  string
	height   int
	bounds   wire.Rect

	pendingFormat *wire.SetFormat
	pendingFocus  *wire.Focus
	focusAcks     map[string]chan struct{}

	lastTerm  string
	searchSeq uint64
	group     singleflight.Group

	// OnScrollHint, when set, receives caret bounds for scroll-into-view.
	OnScrollHint func(wire.Rect)
}

// New creates a controller. conn may be attached later with Attach; sending
// before that is a logged no-op.
func New(conn transport.Conn, searcher MentionSearcher, notifier Notifier, translate Translator, cfg Config) *Controller {
	cfg.fillDefaults()
	if translate == nil {
		translate = func(key string) string { return key }
	}
	return &Controller{
		cfg:       cfg,
		conn:      conn,
		searcher:  searcher,
		notifier:  notifier,
		translate: translate,
		state:     StateUninitialized,
		focusAcks: make(map[string]chan struct{}),
	}
}

// Attach sets the transport once the embedded document context exists.
func (c *Controller) Attach(conn transport.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// LoadResource fetches the document-engine asset. It gates every command:
// nothing is sent until the engine loaded from this asset reports READY.
func (c *Controller) LoadResource(ctx context.Context, loader ResourceLoader) (string, error) {
	c.mu.Lock()
	c.state = StateLoadingResource
	c.mu.Unlock()

	asset, err := loader.Load(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateUninitialized
		c.mu.Unlock()
		return "", err
	}
	return asset, nil
}

// Run consumes raw traffic from the conn until ctx is cancelled or the conn
// closes.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case raw, ok := <-c.conn.Receive():
			if !ok {
				return nil
			}
			c.HandleRaw(raw)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandleRaw decodes one raw envelope and applies it to the mirror. Malformed
// or foreign traffic is dropped silently; handler failures degrade to a log
// line and never cross the context boundary.
func (c *Controller) HandleRaw(raw string) {
	msg, err := wire.Decode(c.cfg.Prefix, raw)
	if err != nil {
		slog.Debug("host: dropping message", "err", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("host: handler panic", "kind", msg.Kind(), "panic", r)
		}
	}()
	c.dispatch(msg)
}

func (c *Controller) dispatch(msg wire.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := msg.(type) {
	case *wire.Ready:
		c.state = StateBlurred
		c.flushPendingLocked()
	case *wire.FocusAck:
		c.state = StateFocused
		if ch, ok := c.focusAcks[ev.CorrelationID]; ok {
			close(ch)
			delete(c.focusAcks, ev.CorrelationID)
		}
	case *wire.EditorBlur:
		c.state = StateBlurred
		c.mention = MentionSession{}
		c.overlays.MentionBarVisible = false
	case *wire.EditorStatus:
		c.applyStatusLocked(ev)
	case *wire.DocumentHeight:
		c.height = ev.Height
	case *wire.Content:
		c.content = ev.Content
	case *wire.Formatting:
		c.formats = ev.FormatState
	case *wire.Debug:
		slog.Debug("engine trace", "msg", ev.DebugMessage)
	default:
		slog.Debug("host: ignoring non-event", "kind", msg.Kind())
	}
}

// applyStatusLocked merges a status bundle into the mirror; absent sections
// leave the mirror untouched. Caller holds c.mu.
func (c *Controller) applyStatusLocked(ev *wire.EditorStatus) {
	if c.state == StateReady || c.state == StateBlurred {
		c.state = StateFocused
	}
	if ev.Content != nil {
		c.content = *ev.Content
	}
	if ev.Formatting != nil {
		c.formats = *ev.Formatting
	}
	if ev.Height != nil {
		c.height = *ev.Height
	}
	if ev.Bounds != nil {
		c.bounds = *ev.Bounds
		if c.OnScrollHint != nil {
			go c.OnScrollHint(*ev.Bounds)
		}
	}
	if ev.Mention != nil {
		c.applyMentionLocked(*ev.Mention)
	}
}

func (c *Controller) applyMentionLocked(m wire.MentionState) {
	if !m.Active {
		c.mention = MentionSession{}
		c.overlays.MentionBarVisible = false
		c.lastTerm = ""
		return
	}
	c.overlays.MentionBarVisible = true
	c.mention.Active = true
	c.mention.InsertSymbolRequested = false
	term := m.SearchText
	if term != c.mention.SearchText {
		go c.RequestMentionSearch(context.Background(), term)
	}
}

// flushPendingLocked replays the buffered focus and the single most recent
// formatting command once the engine is ready. Caller holds c.mu.
func (c *Controller) flushPendingLocked() {
	if c.pendingFocus != nil {
		c.sendLocked(c.pendingFocus)
		c.pendingFocus = nil
	}
	if c.pendingFormat != nil {
		c.sendLocked(c.pendingFormat)
		c.pendingFormat = nil
	}
}

func (c *Controller) readyLocked() bool {
	switch c.state {
	case StateReady, StateFocused, StateBlurred:
		return true
	default:
		return false
	}
}

// send routes a command, buffering the allowed kinds when the engine is not
// ready yet. Premature content commands are a controller-side bug: logged
// and lost, never thrown.
func (c *Controller) send(m wire.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendOrBufferLocked(m)
}

func (c *Controller) sendOrBufferLocked(m wire.Message) {
	if !c.readyLocked() {
		switch cmd := m.(type) {
		case *wire.SetFormat:
			c.pendingFormat = cmd
		case *wire.Focus:
			c.pendingFocus = cmd
		default:
			slog.Error("host: command before engine ready", "kind", m.Kind())
		}
		return
	}
	c.sendLocked(m)
}

// sendLocked serializes and fires m. A missing channel handle is a
// programming error: logged, no-op. Caller holds c.mu.
func (c *Controller) sendLocked(m wire.Message) {
	if c.conn == nil {
		slog.Error("host: send with no transport attached", "kind", m.Kind())
		return
	}
	raw, err := wire.Encode(c.cfg.Prefix, m)
	if err != nil {
		slog.Error("host: encode failed", "kind", m.Kind(), "err", err)
		return
	}
	if err := c.conn.Send(raw); err != nil {
		slog.Error("host: send failed", "kind", m.Kind(), "err", err)
	}
}

// Mirror accessors. The UI renders from these; they are read-only snapshots.

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Formats() wire.FormatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formats
}

func (c *Controller) Mention() MentionSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.mention
	out.Matches = append([]Candidate(nil), c.mention.Matches...)
	return out
}

func (c *Controller) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

func (c *Controller) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *Controller) Overlays() Overlays {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlays
}
