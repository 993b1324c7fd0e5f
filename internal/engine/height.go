package engine

import (
	"context"
	"time"

	"github.com/forumkit/editorbridge/internal/wire"
)

// scheduleHeightLocked arms the single trailing-edge height timer. A burst of
// height-affecting changes collapses into one outbound message; an explicit
// query resets the pending timer rather than stacking a second one. Caller
// holds e.mu.
func (e *Engine) scheduleHeightLocked() {
	if e.heightTimer != nil {
		e.heightTimer.Stop()
	}
	e.heightTimer = time.AfterFunc(e.cfg.HeightThrottle, e.emitHeight)
}

// RequestHeight arms the throttled standalone height notification.
func (e *Engine) RequestHeight() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		return
	}
	e.scheduleHeightLocked()
}

func (e *Engine) emitHeight() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		return
	}
	h := e.editor.ScrollHeight()
	e.lastHeight = h
	e.sendLocked(&wire.DocumentHeight{Height: h})
}

// startHeightFallback runs the periodic standalone height notification used
// when no status bundle is in flight (image reflow with no edits, for one).
// The returned func stops it.
func (e *Engine) startHeightFallback(ctx context.Context) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(e.cfg.HeightFallback)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.RequestHeight()
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() { close(stop) }
}
