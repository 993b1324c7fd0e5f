package wire

// ListState holds the mutually exclusive sub-options of the list format.
// At most one of Bullet and Ordered is true at a time.
type ListState struct {
	Bullet  bool `json:"bullet"`
	Ordered bool `json:"ordered"`
}

// FormatState mirrors the formatting active at the current selection. It is
// owned by the document engine; the host only requests changes and waits for
// the authoritative echo.
type FormatState struct {
	Bold      bool      `json:"bold"`
	Italic    bool      `json:"italic"`
	Underline bool      `json:"underline"`
	Link      bool      `json:"link"`
	List      ListState `json:"list"`
}

// Format names accepted by SET_FORMAT.
const (
	FormatBold      = "bold"
	FormatItalic    = "italic"
	FormatUnderline = "underline"
	FormatLink      = "link"
	FormatList      = "list"
)

// List options accepted by SET_FORMAT when Type is "list".
const (
	ListBullet  = "bullet"
	ListOrdered = "ordered"
)

// Get returns the boolean value mirrored for the given format name. For the
// list option group it reports whether the named option is selected.
func (f FormatState) Get(name, option string) bool {
	switch name {
	case FormatBold:
		return f.Bold
	case FormatItalic:
		return f.Italic
	case FormatUnderline:
		return f.Underline
	case FormatLink:
		return f.Link
	case FormatList:
		switch option {
		case ListBullet:
			return f.List.Bullet
		case ListOrdered:
			return f.List.Ordered
		}
	}
	return false
}

// MentionState describes an in-progress @-mention session as seen by the
// engine. CharPos is the index of the trigger symbol in the flattened text
// and Range is the cursor index; the host echoes both back verbatim in
// INSERT_MENTION handling via the engine's own bookkeeping.
type MentionState struct {
	Active     bool   `json:"active"`
	SearchText string `json:"searchText"`
	CharPos    int    `json:"charPos"`
	Range      int    `json:"range"`
}

// Rect is the caret bounding box in document pixel coordinates, used by the
// host for scroll-into-view.
type Rect struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}
