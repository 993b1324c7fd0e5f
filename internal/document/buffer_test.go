package document

import (
	"strings"
	"testing"

	"github.com/forumkit/editorbridge/internal/wire"
)

func seed(t *testing.T, text string) *Buffer {
	t.Helper()
	b := NewBuffer()
	if err := b.ApplyDelta(NewDelta().Insert(text, nil), SourceAPI); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}

func TestApplyDeltaAllOrNothing(t *testing.T) {
	b := seed(t, "hello")

	// consumes more positions than exist: nothing may change
	bad := NewDelta().Retain(4).Delete(9)
	if err := b.ApplyDelta(bad, SourceUser); err == nil {
		t.Fatal("expected out-of-bounds delta to fail")
	}
	if b.Text() != "hello" {
		t.Errorf("document mutated by rejected delta: %q", b.Text())
	}
	if len(b.History()) != 0 {
		t.Errorf("rejected delta joined history")
	}

	good := NewDelta().Retain(5).Insert(" world", nil)
	if err := b.ApplyDelta(good, SourceUser); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if b.Text() != "hello world" {
		t.Errorf("got %q", b.Text())
	}
	if len(b.History()) != 1 {
		t.Errorf("user delta missing from history")
	}
}

func TestEmbedOccupiesOnePosition(t *testing.T) {
	b := seed(t, "hi ")
	d := NewDelta().Retain(3).InsertEmbed(&MentionEmbed{ID: "1", Name: "sam", URL: "/p/sam"}, nil).Insert(" ", nil)
	if err := b.ApplyDelta(d, SourceAPI); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if b.Length() != 5 {
		t.Errorf("length = %d, want 5 (embed counts as one)", b.Length())
	}
	if !strings.ContainsRune(b.Text(), ObjectRune) {
		t.Errorf("flattened text missing object rune: %q", b.Text())
	}
	if !strings.Contains(b.Contents(), `class="atMention"`) || !strings.Contains(b.Contents(), "@sam") {
		t.Errorf("contents missing mention markup: %s", b.Contents())
	}
}

func TestFormatsScopedToExactSelection(t *testing.T) {
	b := seed(t, "abcdef")
	if err := b.Format(Range{Index: 0, Length: 4}, wire.FormatBold, true, SourceUser); err != nil {
		t.Fatalf("format: %v", err)
	}

	tests := []struct {
		name string
		r    Range
		bold bool
	}{
		{"fully inside", Range{Index: 1, Length: 2}, true},
		{"straddles boundary", Range{Index: 2, Length: 4}, false},
		{"caret after bold run", Range{Index: 4, Length: 0}, true},
		{"caret past bold run", Range{Index: 6, Length: 0}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := b.Formats(tc.r)[wire.FormatBold] == true
			if got != tc.bold {
				t.Errorf("bold over %+v = %v, want %v", tc.r, got, tc.bold)
			}
		})
	}
}

func TestFormatClearsOnFalse(t *testing.T) {
	b := seed(t, "abc")
	if err := b.Format(Range{Index: 0, Length: 3}, wire.FormatItalic, true, SourceAPI); err != nil {
		t.Fatalf("format: %v", err)
	}
	if err := b.Format(Range{Index: 0, Length: 3}, wire.FormatItalic, false, SourceAPI); err != nil {
		t.Fatalf("unformat: %v", err)
	}
	if _, ok := b.Formats(Range{Index: 0, Length: 3})[wire.FormatItalic]; ok {
		t.Error("italic attribute should be cleared")
	}
}

func TestLinkMarkup(t *testing.T) {
	b := seed(t, "see docs")
	if err := b.Format(Range{Index: 4, Length: 4}, wire.FormatLink, "https://example.com", SourceAPI); err != nil {
		t.Fatalf("format: %v", err)
	}
	want := `<a href="https://example.com" rel="nofollow">docs</a>`
	if !strings.Contains(b.Contents(), want) {
		t.Errorf("contents = %s, want substring %s", b.Contents(), want)
	}
}

func TestFocusRestoresSelectionAtEnd(t *testing.T) {
	b := seed(t, "hello")
	if _, ok := b.Selection(); ok {
		t.Fatal("unfocused buffer should report no selection")
	}
	b.Focus()
	sel, ok := b.Selection()
	if !ok || sel.Index != 5 || sel.Length != 0 {
		t.Errorf("selection after focus = %+v ok=%v, want collapsed at end", sel, ok)
	}
	b.Blur()
	if _, ok := b.Selection(); ok {
		t.Error("blurred buffer should report no selection")
	}
}

func TestScrollHeightGrowsWithLines(t *testing.T) {
	one := seed(t, "a")
	three := seed(t, "a\nb\nc")
	if three.ScrollHeight() <= one.ScrollHeight() {
		t.Errorf("three-line height %d should exceed one-line height %d", three.ScrollHeight(), one.ScrollHeight())
	}
}
