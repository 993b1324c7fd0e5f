package document

import "github.com/forumkit/editorbridge/internal/wire"

// Editor is the seam to the underlying text-editing engine. The bridge never
// renders; it reads state through this interface and mutates exclusively via
// whole deltas and range-scoped formats.
type Editor interface {
	// Contents returns the current document HTML, recomputed fresh.
	Contents() string
	// Text returns the flattened text; embeds appear as one object rune.
	Text() string
	// Selection reports the current selection, false when focus is lost.
	Selection() (Range, bool)
	SetSelection(r Range)
	// ApplyDelta applies the whole delta or nothing: an out-of-bounds delta
	// returns an error with the document unchanged.
	ApplyDelta(d *Delta, source Source) error
	// Format sets (or clears, when value is nil/false) a formatting
	// attribute over r.
	Format(r Range, name string, value any, source Source) error
	// Formats returns the attributes active across the whole of r.
	Formats(r Range) map[string]any
	ScrollHeight() int
	CaretBounds() wire.Rect
	Enable(enabled bool)
	Focus()
	Blur()
	// AddStyles records host-injected CSS for the rendering layer.
	AddStyles(css string)
}
