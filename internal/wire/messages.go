package wire

// Message is implemented by every bridge payload. Receivers decode the raw
// envelope into a concrete payload once at the channel boundary and dispatch
// on the concrete type from there.
type Message interface {
	Kind() Kind
}

// InsertStyles pushes CSS rules into the embedded document so it inherits the
// host theme.
type InsertStyles struct {
	Style string `json:"style"`
}

func (InsertStyles) Kind() Kind { return KindInsertStyles }

// SetFormat asks the engine to set a formatting attribute at the current
// selection. Option is only meaningful for option-group formats ("list").
type SetFormat struct {
	Type    string `json:"type"`
	Option  string `json:"option,omitempty"`
	Enabled bool   `json:"enabled"`
}

func (SetFormat) Kind() Kind { return KindSetFormat }

// InsertLink asks the engine to insert Text tagged with the link attribute at
// the current selection.
type InsertLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

func (InsertLink) Kind() Kind { return KindInsertLink }

// InsertMention replaces the active mention trigger span with an opaque
// mention reference.
type InsertMention struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (InsertMention) Kind() Kind { return KindInsertMention }

// InsertMentionSymbol types an "@" at the cursor on the user's behalf.
type InsertMentionSymbol struct{}

func (InsertMentionSymbol) Kind() Kind { return KindInsertMentionSymbol }

// Focus asks the engine to focus the document. CorrelationID is echoed back
// in the FOCUS_ACK event once the engine holds a valid selection.
type Focus struct {
	CorrelationID string `json:"correlationId,omitempty"`
}

func (Focus) Kind() Kind { return KindFocus }

// Blur asks the engine to drop focus.
type Blur struct{}

func (Blur) Kind() Kind { return KindBlur }

// ToggleState enables or disables editing.
type ToggleState struct {
	Enabled bool `json:"enabled"`
}

func (ToggleState) Kind() Kind { return KindToggleState }

// GetContent asks the engine to emit a CONTENT event with the current HTML.
type GetContent struct{}

func (GetContent) Kind() Kind { return KindGetContent }

// Debug carries an engine-side trace line. Hosts log it in debug builds only.
type Debug struct {
	DebugMessage string `json:"debugMessage"`
}

func (Debug) Kind() Kind { return KindDebug }

// Ready signals the engine is constructed and accepting commands.
type Ready struct{}

func (Ready) Kind() Kind { return KindReady }

// FocusAck confirms a Focus command: the engine is focused and holds a valid
// selection.
type FocusAck struct {
	CorrelationID string `json:"correlationId,omitempty"`
}

func (FocusAck) Kind() Kind { return KindFocusAck }

// EditorBlur signals the document lost focus.
type EditorBlur struct{}

func (EditorBlur) Kind() Kind { return KindEditorBlur }

// EditorStatus is the combined status bundle. Each section is optional and
// present only when it changed; absent sections leave the host mirror as is.
type EditorStatus struct {
	Content    *string       `json:"content,omitempty"`
	Formatting *FormatState  `json:"formatting,omitempty"`
	Mention    *MentionState `json:"mention,omitempty"`
	Height     *int          `json:"height,omitempty"`
	Bounds     *Rect         `json:"bounds,omitempty"`
}

func (EditorStatus) Kind() Kind { return KindEditorStatus }

// DocumentHeight is the standalone height notification used as a periodic
// fallback when no status bundle is in flight.
type DocumentHeight struct {
	Height int `json:"height"`
}

func (DocumentHeight) Kind() Kind { return KindDocumentHeight }

// Content carries the full document HTML in response to GET_CONTENT.
type Content struct {
	Content string `json:"content"`
}

func (Content) Kind() Kind { return KindContent }

// Formatting carries a full format snapshot, emitted after every
// host-commanded format so the host can correct its mirror.
type Formatting struct {
	FormatState FormatState `json:"formatState"`
}

func (Formatting) Kind() Kind { return KindFormatting }
