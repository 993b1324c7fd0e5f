package wire

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeFramesEnvelope(t *testing.T) {
	raw, err := Encode(DefaultPrefix, &SetFormat{Type: FormatList, Option: ListBullet, Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(raw, `"message":"editorbridge::SET_FORMAT"`) {
		t.Errorf("envelope missing prefixed kind: %s", raw)
	}
	if !strings.Contains(raw, `"type":"list"`) || !strings.Contains(raw, `"option":"bullet"`) {
		t.Errorf("envelope missing flat payload fields: %s", raw)
	}
}

func TestDecodeDispatchesByKind(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"set format", &SetFormat{Type: FormatBold, Enabled: true}},
		{"insert link", &InsertLink{URL: "https://example.com", Text: "example"}},
		{"insert mention", &InsertMention{ID: "7", Name: "daphne", URL: "/profile/daphne"}},
		{"focus with correlation", &Focus{CorrelationID: "abc"}},
		{"ready", &Ready{}},
		{"document height", &DocumentHeight{Height: 240}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Encode(DefaultPrefix, tc.msg)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := Decode(DefaultPrefix, raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Kind() != tc.msg.Kind() {
				t.Errorf("kind mismatch: got %s, want %s", got.Kind(), tc.msg.Kind())
			}
		})
	}
}

func TestDecodeRoundTripPayload(t *testing.T) {
	height := 120
	status := &EditorStatus{
		Formatting: &FormatState{Bold: true, List: ListState{Bullet: true}},
		Mention:    &MentionState{Active: true, SearchText: "da", CharPos: 6, Range: 9},
		Height:     &height,
	}
	raw, err := Encode(DefaultPrefix, status)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(DefaultPrefix, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decoded, ok := got.(*EditorStatus)
	if !ok {
		t.Fatalf("expected *EditorStatus, got %T", got)
	}
	if decoded.Formatting == nil || !decoded.Formatting.Bold || !decoded.Formatting.List.Bullet {
		t.Errorf("formatting section lost: %+v", decoded.Formatting)
	}
	if decoded.Mention == nil || decoded.Mention.SearchText != "da" {
		t.Errorf("mention section lost: %+v", decoded.Mention)
	}
	if decoded.Height == nil || *decoded.Height != 120 {
		t.Errorf("height section lost: %v", decoded.Height)
	}
	if decoded.Content != nil || decoded.Bounds != nil {
		t.Errorf("absent sections should stay nil: %+v", decoded)
	}
}

func TestDecodeRejectsForeignTraffic(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", "hello there", ErrNotBridgeMessage},
		{"no message field", `{"type":"analytics","event":"tap"}`, ErrNotBridgeMessage},
		{"wrong prefix", `{"message":"otherapp::READY"}`, ErrNotBridgeMessage},
		{"numeric message field", `{"message":42}`, ErrNotBridgeMessage},
		{"unknown kind", `{"message":"editorbridge::TELEPORT"}`, ErrUnknownKind},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(DefaultPrefix, tc.raw)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFormatStateGet(t *testing.T) {
	f := FormatState{Bold: true, List: ListState{Ordered: true}}
	if !f.Get(FormatBold, "") {
		t.Error("bold should read true")
	}
	if f.Get(FormatList, ListBullet) {
		t.Error("bullet should read false")
	}
	if !f.Get(FormatList, ListOrdered) {
		t.Error("ordered should read true")
	}
	if f.Get("strike", "") {
		t.Error("unknown format should read false")
	}
}
