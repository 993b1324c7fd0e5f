package document

import (
	"fmt"
	"html"
	"strings"

	"github.com/forumkit/editorbridge/internal/wire"
)

// ObjectRune stands in for an embedded object in the flattened text.
const ObjectRune = '￼'

// Layout constants for the synthesized geometry of the headless buffer.
const (
	lineHeight   = 21
	charWidth    = 8
	framePadding = 12
)

type cell struct {
	r     rune
	embed any
	attrs map[string]any
}

// Buffer is the in-memory reference Editor. It keeps one cell per flattened
// position, which keeps the embed offset arithmetic exact at the cost of
// per-character storage; it is a protocol fixture, not a renderer.
type Buffer struct {
	cells   []cell
	sel     Range
	focused bool
	enabled bool
	styles  []string
	history []*Delta
}

// NewBuffer returns an empty, enabled, unfocused buffer. A non-empty
// placeholder is kept only as initial content metadata by real engines; the
// buffer ignores it beyond accepting the argument shape.
func NewBuffer() *Buffer {
	return &Buffer{enabled: true}
}

func (b *Buffer) Text() string {
	var sb strings.Builder
	for _, c := range b.cells {
		if c.embed != nil {
			sb.WriteRune(ObjectRune)
			continue
		}
		sb.WriteRune(c.r)
	}
	return sb.String()
}

func (b *Buffer) Length() int { return len(b.cells) }

func (b *Buffer) Selection() (Range, bool) {
	if !b.focused {
		return Range{}, false
	}
	return b.sel, true
}

func (b *Buffer) SetSelection(r Range) {
	if r.Index < 0 {
		r.Index = 0
	}
	if r.Index > len(b.cells) {
		r.Index = len(b.cells)
	}
	if r.Index+r.Length > len(b.cells) {
		r.Length = len(b.cells) - r.Index
	}
	b.sel = r
	b.focused = true
}

func (b *Buffer) Focus() {
	if !b.focused {
		b.focused = true
		b.sel = Range{Index: len(b.cells)}
	}
}

func (b *Buffer) Blur() { b.focused = false }

func (b *Buffer) Enable(enabled bool) { b.enabled = enabled }

func (b *Buffer) Enabled() bool { return b.enabled }

func (b *Buffer) AddStyles(css string) { b.styles = append(b.styles, css) }

// Styles returns host-injected CSS in injection order.
func (b *Buffer) Styles() []string { return b.styles }

// History returns deltas recorded for user-sourced mutations.
func (b *Buffer) History() []*Delta { return b.history }

// ApplyDelta validates d against the current length before touching any
// cell, so a partial delta is never applied.
func (b *Buffer) ApplyDelta(d *Delta, source Source) error {
	if d.Consumed() > len(b.cells) {
		return fmt.Errorf("document: delta consumes %d of %d positions", d.Consumed(), len(b.cells))
	}

	next := make([]cell, 0, len(b.cells))
	pos := 0
	for _, op := range d.Ops {
		switch {
		case op.Retain > 0:
			next = append(next, b.cells[pos:pos+op.Retain]...)
			pos += op.Retain
		case op.Delete > 0:
			pos += op.Delete
		case op.Embed != nil:
			next = append(next, cell{r: ObjectRune, embed: op.Embed, attrs: cloneAttrs(op.Attributes)})
		case op.Insert != "":
			for _, r := range op.Insert {
				next = append(next, cell{r: r, attrs: cloneAttrs(op.Attributes)})
			}
		}
	}
	next = append(next, b.cells[pos:]...)
	b.cells = next

	if source == SourceUser {
		b.history = append(b.history, d)
	}
	return nil
}

func (b *Buffer) Format(r Range, name string, value any, source Source) error {
	if r.Index < 0 || r.Index+r.Length > len(b.cells) {
		return fmt.Errorf("document: format range %+v out of bounds (len %d)", r, len(b.cells))
	}
	for i := r.Index; i < r.Index+r.Length; i++ {
		if off(value) {
			delete(b.cells[i].attrs, name)
			continue
		}
		if b.cells[i].attrs == nil {
			b.cells[i].attrs = map[string]any{}
		}
		b.cells[i].attrs[name] = value
	}
	if source == SourceUser {
		d := NewDelta().Retain(r.Index)
		d.Ops = append(d.Ops, Op{Retain: r.Length, Attributes: map[string]any{name: value}})
		b.history = append(b.history, d)
	}
	return nil
}

// Formats returns the attributes shared by every position in r. A collapsed
// range reads the position immediately before the cursor, matching caret
// formatting behavior.
func (b *Buffer) Formats(r Range) map[string]any {
	if r.Length == 0 {
		if r.Index == 0 || r.Index > len(b.cells) {
			return map[string]any{}
		}
		return cloneAttrs(b.cells[r.Index-1].attrs)
	}
	if r.Index < 0 || r.Index+r.Length > len(b.cells) {
		return map[string]any{}
	}
	shared := cloneAttrs(b.cells[r.Index].attrs)
	for i := r.Index + 1; i < r.Index+r.Length; i++ {
		for k, v := range shared {
			if b.cells[i].attrs[k] != v {
				delete(shared, k)
			}
		}
	}
	return shared
}

func (b *Buffer) ScrollHeight() int {
	return framePadding + lineHeight*(1+strings.Count(b.Text(), "\n"))
}

func (b *Buffer) CaretBounds() wire.Rect {
	line, col := 0, 0
	for i := 0; i < b.sel.Index && i < len(b.cells); i++ {
		if b.cells[i].embed == nil && b.cells[i].r == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return wire.Rect{Top: line * lineHeight, Left: col * charWidth, Width: 1, Height: lineHeight}
}

// Contents renders minimal inline HTML: enough for the host to mirror and
// persist, nothing more.
func (b *Buffer) Contents() string {
	var sb strings.Builder
	sb.WriteString("<p>")
	for i := 0; i < len(b.cells); {
		c := b.cells[i]
		if c.embed != nil {
			sb.WriteString(renderEmbed(c.embed))
			i++
			continue
		}
		if c.r == '\n' {
			sb.WriteString("</p><p>")
			i++
			continue
		}
		// group a run of identical attributes
		j := i
		var run strings.Builder
		for ; j < len(b.cells); j++ {
			if b.cells[j].embed != nil || b.cells[j].r == '\n' || !attrsEqual(b.cells[i].attrs, b.cells[j].attrs) {
				break
			}
			run.WriteRune(b.cells[j].r)
		}
		sb.WriteString(renderRun(run.String(), b.cells[i].attrs))
		i = j
	}
	sb.WriteString("</p>")
	return sb.String()
}

func renderRun(text string, attrs map[string]any) string {
	out := html.EscapeString(text)
	if attrs[wire.FormatUnderline] == true {
		out = "<u>" + out + "</u>"
	}
	if attrs[wire.FormatItalic] == true {
		out = "<em>" + out + "</em>"
	}
	if attrs[wire.FormatBold] == true {
		out = "<strong>" + out + "</strong>"
	}
	if href, ok := attrs[wire.FormatLink].(string); ok && href != "" {
		out = `<a href="` + html.EscapeString(href) + `" rel="nofollow">` + out + "</a>"
	}
	return out
}

func renderEmbed(embed any) string {
	switch e := embed.(type) {
	case *MentionEmbed:
		return `<a class="atMention" data-id="` + html.EscapeString(e.ID) + `" href="` +
			html.EscapeString(e.URL) + `">@` + html.EscapeString(e.Name) + `</a>`
	case *ImageEmbed:
		return `<img src="` + html.EscapeString(e.URL) + `">`
	default:
		return ""
	}
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func attrsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func off(value any) bool {
	if value == nil {
		return true
	}
	v, ok := value.(bool)
	return ok && !v
}
