// Package engine implements the document-side state machine of the bridge:
// it owns the editable document, tracks selection, computes formatting and
// mention state, and emits status events in response to user input or host
// commands.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forumkit/editorbridge/internal/document"
	"github.com/forumkit/editorbridge/internal/transport"
	"github.com/forumkit/editorbridge/internal/wire"
)

// ReadySignal is polled before the editor is constructed; it reports the
// host-injected initial value once the host has finished injecting it.
type ReadySignal func() (string, bool)

// Config holds engine tuning. Zero fields fall back to protocol defaults.
type Config struct {
	Prefix         string
	ReadySignal    ReadySignal
	ReadyRetries   int
	ReadyInterval  time.Duration
	HeightThrottle time.Duration
	HeightFallback time.Duration
	// NewEditor constructs the underlying text-editing engine. It is not
	// called until the ready signal is observed or the poll ceiling lapses.
	NewEditor func(initial string) document.Editor
}

func (c *Config) fillDefaults() {
	if c.Prefix == "" {
		c.Prefix = wire.DefaultPrefix
	}
	if c.ReadyRetries <= 0 {
		c.ReadyRetries = 50
	}
	if c.ReadyInterval <= 0 {
		c.ReadyInterval = 500 * time.Millisecond
	}
	if c.HeightThrottle <= 0 {
		c.HeightThrottle = 500 * time.Millisecond
	}
	if c.HeightFallback <= 0 {
		c.HeightFallback = 2 * time.Second
	}
	if c.NewEditor == nil {
		c.NewEditor = func(string) document.Editor { return document.NewBuffer() }
	}
}

// Engine is the document-side half of the bridge.
type Engine struct {
	cfg  Config
	conn transport.Conn

	mu          sync.Mutex
	editor      document.Editor
	mention     wire.MentionState
	heightTimer *time.Timer
	lastHeight  int
}

// New creates an engine on the given conn. The editor itself is not
// constructed until Run observes the host readiness signal.
func New(conn transport.Conn, cfg Config) *Engine {
	cfg.fillDefaults()
	return &Engine{cfg: cfg, conn: conn}
}

// Run polls for the host readiness signal (bounded by retries * interval),
// constructs the editor, announces READY and then serves commands until ctx
// is cancelled or the conn closes.
func (e *Engine) Run(ctx context.Context) error {
	initial := e.waitForSignal(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	e.initEditor(initial)

	stopFallback := e.startHeightFallback(ctx)
	defer stopFallback()

	for {
		select {
		case raw, ok := <-e.conn.Receive():
			if !ok {
				return nil
			}
			e.HandleRaw(raw)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// waitForSignal polls the host-injected value. On ceiling lapse the engine
// proceeds with the default initial content rather than stalling forever.
func (e *Engine) waitForSignal(ctx context.Context) string {
	if e.cfg.ReadySignal == nil {
		return ""
	}
	for i := 0; i < e.cfg.ReadyRetries; i++ {
		if v, ok := e.cfg.ReadySignal(); ok {
			return v
		}
		select {
		case <-time.After(e.cfg.ReadyInterval):
		case <-ctx.Done():
			return ""
		}
	}
	slog.Debug("engine: ready signal never arrived, using default initial content")
	return ""
}

func (e *Engine) initEditor(initial string) {
	e.mu.Lock()
	e.editor = e.cfg.NewEditor(initial)
	e.mu.Unlock()
	e.send(&wire.Ready{})
}

// HandleRaw decodes one raw envelope and dispatches it. Malformed or foreign
// traffic is dropped silently; handler failures degrade to a log line.
func (e *Engine) HandleRaw(raw string) {
	msg, err := wire.Decode(e.cfg.Prefix, raw)
	if err != nil {
		slog.Debug("engine: dropping message", "err", err)
		return
	}
	e.dispatch(msg)
}

func (e *Engine) dispatch(msg wire.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: handler panic", "kind", msg.Kind(), "panic", r)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		slog.Debug("engine: command before editor construction", "kind", msg.Kind())
		return
	}

	switch cmd := msg.(type) {
	case *wire.InsertStyles:
		e.editor.AddStyles(cmd.Style)
	case *wire.SetFormat:
		e.applyFormat(cmd)
	case *wire.InsertLink:
		e.insertLink(cmd)
	case *wire.InsertMention:
		e.insertMention(cmd)
	case *wire.InsertMentionSymbol:
		e.insertMentionSymbol()
	case *wire.Focus:
		e.editor.Focus()
		e.sendLocked(&wire.FocusAck{CorrelationID: cmd.CorrelationID})
	case *wire.Blur:
		e.editor.Blur()
		e.sendLocked(&wire.EditorBlur{})
	case *wire.ToggleState:
		e.editor.Enable(cmd.Enabled)
	case *wire.GetContent:
		e.sendLocked(&wire.Content{Content: e.editor.Contents()})
	default:
		slog.Debug("engine: ignoring non-command", "kind", msg.Kind())
	}
}

// NotifySelectionChange is invoked by the embedding context on every
// user-driven selection change. A lost selection announces blur; anything
// else emits a fresh status bundle.
func (e *Engine) NotifySelectionChange() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		return
	}
	if _, ok := e.editor.Selection(); !ok {
		e.sendLocked(&wire.EditorBlur{})
		return
	}
	e.emitStatus()
}

// NotifyTextChange is invoked by the embedding context on every user-driven
// text change. Content is always recomputed fresh from the live document.
func (e *Engine) NotifyTextChange() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		return
	}
	e.emitStatus()
	e.scheduleHeightLocked()
}

// emitStatus sends the combined status bundle for the current selection.
// Caller holds e.mu.
func (e *Engine) emitStatus() {
	sel, ok := e.editor.Selection()
	if !ok {
		return
	}
	content := e.editor.Contents()
	formatting := e.formatState(sel)
	e.mention = detectMention(e.editor.Text(), sel)
	height := e.editor.ScrollHeight()
	bounds := e.editor.CaretBounds()
	mention := e.mention

	e.sendLocked(&wire.EditorStatus{
		Content:    &content,
		Formatting: &formatting,
		Mention:    &mention,
		Height:     &height,
		Bounds:     &bounds,
	})
}

// formatState reads attributes scoped to the exact selection, never a
// heuristic around it. Caller holds e.mu.
func (e *Engine) formatState(sel document.Range) wire.FormatState {
	attrs := e.editor.Formats(sel)
	link, _ := attrs[wire.FormatLink].(string)
	list, _ := attrs[wire.FormatList].(string)
	return wire.FormatState{
		Bold:      attrs[wire.FormatBold] == true,
		Italic:    attrs[wire.FormatItalic] == true,
		Underline: attrs[wire.FormatUnderline] == true,
		Link:      link != "",
		List: wire.ListState{
			Bullet:  list == wire.ListBullet,
			Ordered: list == wire.ListOrdered,
		},
	}
}

func (e *Engine) send(m wire.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sendLocked(m)
}

// sendLocked serializes and fires m. A missing conn is a programming error:
// logged, never thrown. Caller holds e.mu.
func (e *Engine) sendLocked(m wire.Message) {
	if e.conn == nil {
		slog.Error("engine: send with no transport attached", "kind", m.Kind())
		return
	}
	raw, err := wire.Encode(e.cfg.Prefix, m)
	if err != nil {
		slog.Error("engine: encode failed", "kind", m.Kind(), "err", err)
		return
	}
	if err := e.conn.Send(raw); err != nil {
		slog.Error("engine: send failed", "kind", m.Kind(), "err", err)
	}
}
