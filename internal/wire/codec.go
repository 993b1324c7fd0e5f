package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultPrefix is the reserved token distinguishing bridge traffic from
// unrelated messages on the shared channel. Both sides must agree on it out
// of band; it is never negotiated.
const DefaultPrefix = "editorbridge::"

var (
	// ErrNotBridgeMessage marks traffic without the reserved prefix.
	// Receivers drop it silently.
	ErrNotBridgeMessage = errors.New("wire: not a bridge message")

	// ErrUnknownKind marks a well-framed envelope whose kind is not in the
	// vocabulary. Receivers drop it silently.
	ErrUnknownKind = errors.New("wire: unknown message kind")
)

// Encode serializes a message into the single-string envelope
// {"message":"<prefix><KIND>", ...kindSpecificFields}.
func Encode(prefix string, m Message) (string, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("wire: marshal %s: %w", m.Kind(), err)
	}
	raw, err := sjson.SetBytes(payload, "message", prefix+string(m.Kind()))
	if err != nil {
		return "", fmt.Errorf("wire: frame %s: %w", m.Kind(), err)
	}
	return string(raw), nil
}

// Decode parses a raw envelope back into a typed message. It peeks at the
// "message" field before committing to a full unmarshal so unrelated traffic
// on the shared channel is rejected cheaply.
func Decode(prefix, raw string) (Message, error) {
	if !gjson.Valid(raw) {
		return nil, ErrNotBridgeMessage
	}
	tag := gjson.Get(raw, "message")
	if tag.Type != gjson.String || !strings.HasPrefix(tag.String(), prefix) {
		return nil, ErrNotBridgeMessage
	}
	kind := Kind(strings.TrimPrefix(tag.String(), prefix))

	var m Message
	switch kind {
	case KindInsertStyles:
		m = &InsertStyles{}
	case KindSetFormat:
		m = &SetFormat{}
	case KindInsertLink:
		m = &InsertLink{}
	case KindInsertMention:
		m = &InsertMention{}
	case KindInsertMentionSymbol:
		m = &InsertMentionSymbol{}
	case KindFocus:
		m = &Focus{}
	case KindBlur:
		m = &Blur{}
	case KindToggleState:
		m = &ToggleState{}
	case KindGetContent:
		m = &GetContent{}
	case KindDebug:
		m = &Debug{}
	case KindReady:
		m = &Ready{}
	case KindFocusAck:
		m = &FocusAck{}
	case KindEditorBlur:
		m = &EditorBlur{}
	case KindEditorStatus:
		m = &EditorStatus{}
	case KindDocumentHeight:
		m = &DocumentHeight{}
	case KindContent:
		m = &Content{}
	case KindFormatting:
		m = &Formatting{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err := json.Unmarshal([]byte(raw), m); err != nil {
		return nil, fmt.Errorf("wire: decode %s: %w", kind, err)
	}
	return m, nil
}
