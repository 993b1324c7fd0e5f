package engine

import (
	"log/slog"

	"github.com/forumkit/editorbridge/internal/document"
	"github.com/forumkit/editorbridge/internal/wire"
)

// applyFormat applies a host-commanded format to the current selection,
// marked user-sourced so it joins the document's own undo history, then
// re-emits a full format snapshot so the host can correct any optimistic
// assumption. Caller holds e.mu.
func (e *Engine) applyFormat(cmd *wire.SetFormat) {
	sel, ok := e.editor.Selection()
	if ok {
		var err error
		if cmd.Type == wire.FormatList {
			// one attribute holds the selected option, so selecting one
			// sub-option inherently clears its siblings
			var value any
			if cmd.Enabled {
				value = cmd.Option
			} else {
				value = false
			}
			err = e.editor.Format(sel, wire.FormatList, value, document.SourceUser)
		} else {
			err = e.editor.Format(sel, cmd.Type, cmd.Enabled, document.SourceUser)
		}
		if err != nil {
			slog.Error("engine: format failed", "type", cmd.Type, "err", err)
		}
	}

	// authoritative echo, sent even when the selection vanished
	snapshot := e.formatState(sel)
	e.sendLocked(&wire.Formatting{FormatState: snapshot})
}

// insertLink retains up to the current selection index and inserts the text
// tagged with the link attribute. Failures are logged with document state
// intact; partial deltas are never applied.
func (e *Engine) insertLink(cmd *wire.InsertLink) {
	sel, ok := e.editor.Selection()
	if !ok {
		slog.Error("engine: insert link with no selection", "url", cmd.URL)
		return
	}
	d := document.NewDelta().
		Retain(sel.Index).
		Insert(cmd.Text, map[string]any{wire.FormatLink: cmd.URL})
	if err := e.editor.ApplyDelta(d, document.SourceUser); err != nil {
		slog.Error("engine: insert link failed", "err", err)
		return
	}
	e.editor.SetSelection(document.Range{Index: sel.Index + len([]rune(cmd.Text))})
	e.emitStatus()
}

// insertMention deletes the trigger span [charPos, range), embeds the opaque
// mention reference at that position, inserts a trailing space, and advances
// the cursor two positions past the embed: one for the embed "character",
// one for the space.
func (e *Engine) insertMention(cmd *wire.InsertMention) {
	if !e.mention.Active {
		slog.Error("engine: insert mention with no active session", "name", cmd.Name)
		return
	}
	charPos, end := e.mention.CharPos, e.mention.Range
	d := document.NewDelta().
		Retain(charPos).
		Delete(end-charPos).
		InsertEmbed(&document.MentionEmbed{ID: cmd.ID, Name: cmd.Name, URL: cmd.URL}, nil).
		Insert(" ", nil)
	if err := e.editor.ApplyDelta(d, document.SourceUser); err != nil {
		slog.Error("engine: insert mention failed", "err", err)
		return
	}
	e.editor.SetSelection(document.Range{Index: charPos + 2})
	e.emitStatus()
}

// insertMentionSymbol types an "@" at the cursor on the user's behalf,
// which arms mention detection on the next status recompute.
func (e *Engine) insertMentionSymbol() {
	sel, ok := e.editor.Selection()
	if !ok {
		e.editor.Focus()
		sel, _ = e.editor.Selection()
	}
	d := document.NewDelta().Retain(sel.Index).Insert("@", nil)
	if err := e.editor.ApplyDelta(d, document.SourceUser); err != nil {
		slog.Error("engine: insert mention symbol failed", "err", err)
		return
	}
	e.editor.SetSelection(document.Range{Index: sel.Index + 1})
	e.emitStatus()
}
