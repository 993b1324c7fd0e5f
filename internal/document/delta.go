// Package document holds the delta document model the engine edits through.
// Rendering is delegated to whatever text-editing engine sits behind the
// Editor interface; this package only defines the operations and a headless
// in-memory reference implementation.
package document

// Range addresses a span in the document's flattened text representation.
// Embedded objects occupy exactly one position.
type Range struct {
	Index  int `json:"index"`
	Length int `json:"length"`
}

// Source tags who initiated a mutation. User-sourced mutations join the
// document's own undo history; API-sourced ones do not.
type Source string

const (
	SourceUser Source = "user"
	SourceAPI  Source = "api"
)

// MentionEmbed is the opaque mention reference embedded in place of a typed
// trigger span.
type MentionEmbed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ImageEmbed is the opaque attachment reference inserted once an upload
// completes.
type ImageEmbed struct {
	URL          string `json:"url"`
	AttachmentID string `json:"attachmentID,omitempty"`
}

// Op is one delta operation. Exactly one of Retain, Delete, Insert or Embed
// is set.
type Op struct {
	Retain     int
	Delete     int
	Insert     string
	Embed      any
	Attributes map[string]any
}

// Delta is an ordered list of operations applied from document start.
type Delta struct {
	Ops []Op
}

// NewDelta returns an empty delta for builder-style chaining.
func NewDelta() *Delta { return &Delta{} }

// Retain keeps n positions unchanged.
func (d *Delta) Retain(n int) *Delta {
	if n > 0 {
		d.Ops = append(d.Ops, Op{Retain: n})
	}
	return d
}

// Insert adds text with the given attributes at the current position.
func (d *Delta) Insert(text string, attrs map[string]any) *Delta {
	if text != "" {
		d.Ops = append(d.Ops, Op{Insert: text, Attributes: attrs})
	}
	return d
}

// InsertEmbed adds a single-position embedded object.
func (d *Delta) InsertEmbed(embed any, attrs map[string]any) *Delta {
	d.Ops = append(d.Ops, Op{Embed: embed, Attributes: attrs})
	return d
}

// Delete removes n positions at the current position.
func (d *Delta) Delete(n int) *Delta {
	if n > 0 {
		d.Ops = append(d.Ops, Op{Delete: n})
	}
	return d
}

// Consumed returns how many positions of the existing document the delta
// reads past (retains plus deletes).
func (d *Delta) Consumed() int {
	n := 0
	for _, op := range d.Ops {
		n += op.Retain + op.Delete
	}
	return n
}
