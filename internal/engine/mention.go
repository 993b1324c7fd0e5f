package engine

import (
	"unicode"

	"github.com/forumkit/editorbridge/internal/document"
	"github.com/forumkit/editorbridge/internal/wire"
)

// mentionLookback bounds how far behind the cursor the trigger symbol is
// searched for.
const mentionLookback = 20

// detectMention recomputes mention state from scratch on every selection or
// text change; there is no persistent armed flag that could go stale.
//
// The nearest "@" within the lookback window counts as a trigger only when
// it sits at position 0 or follows whitespace, and only when no whitespace
// separates it from the cursor. An empty search term (cursor immediately
// after "@") starts no session yet.
func detectMention(text string, sel document.Range) wire.MentionState {
	if sel.Length != 0 {
		return wire.MentionState{}
	}
	runes := []rune(text)
	cursor := sel.Index
	if cursor > len(runes) {
		cursor = len(runes)
	}

	at := -1
	for i := cursor - 1; i >= 0 && i >= cursor-mentionLookback; i-- {
		if unicode.IsSpace(runes[i]) {
			break
		}
		if runes[i] == '@' {
			at = i
			break
		}
	}
	if at < 0 {
		return wire.MentionState{}
	}
	if at > 0 && !unicode.IsSpace(runes[at-1]) {
		return wire.MentionState{}
	}
	term := string(runes[at+1 : cursor])
	if term == "" {
		return wire.MentionState{}
	}
	return wire.MentionState{
		Active:     true,
		SearchText: term,
		CharPos:    at,
		Range:      cursor,
	}
}
