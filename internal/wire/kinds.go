// Package wire defines the bridge message protocol: the command and event
// vocabulary exchanged between the host controller and the embedded document
// engine, and the string envelope both sides put on the shared channel.
package wire

// Kind identifies a bridge message on the wire.
type Kind string

// Commands (host -> engine).
const (
	KindInsertStyles        Kind = "INSERT_STYLES"
	KindSetFormat           Kind = "SET_FORMAT"
	KindInsertLink          Kind = "INSERT_LINK"
	KindInsertMention       Kind = "INSERT_MENTION"
	KindInsertMentionSymbol Kind = "INSERT_MENTION_SYMBOL"
	KindFocus               Kind = "FOCUS"
	KindBlur                Kind = "BLUR"
	KindToggleState         Kind = "TOGGLE_STATE"
	KindGetContent          Kind = "GET_CONTENT"
)

// Events (engine -> host).
const (
	KindDebug          Kind = "DEBUG"
	KindReady          Kind = "READY"
	KindFocusAck       Kind = "FOCUS_ACK"
	KindEditorBlur     Kind = "EDITOR_BLUR"
	KindEditorStatus   Kind = "EDITOR_STATUS"
	KindDocumentHeight Kind = "DOCUMENT_HEIGHT"
	KindContent        Kind = "CONTENT"
	KindFormatting     Kind = "FORMATTING"
)

// Command reports whether k is a host-to-engine command.
func (k Kind) Command() bool {
	switch k {
	case KindInsertStyles, KindSetFormat, KindInsertLink, KindInsertMention,
		KindInsertMentionSymbol, KindFocus, KindBlur, KindToggleState, KindGetContent:
		return true
	default:
		return false
	}
}

// Event reports whether k is an engine-to-host event.
func (k Kind) Event() bool {
	switch k {
	case KindDebug, KindReady, KindFocusAck, KindEditorBlur, KindEditorStatus,
		KindDocumentHeight, KindContent, KindFormatting:
		return true
	default:
		return false
	}
}
