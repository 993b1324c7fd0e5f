package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forumkit/editorbridge/internal/wire"
)

// ErrInvalidURL is returned when link input cannot be normalized into a
// well-formed absolute URL. The user is notified; no command is sent.
var ErrInvalidURL = errors.New("host: invalid url")

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL validates raw as an absolute URL, prepending http:// when no
// scheme is given.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	if !schemeRe.MatchString(raw) {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	return raw, nil
}

// RequestFormatToggle computes the desired boolean by inverting the current
// mirrored value and sends a formatting command. For option groups the
// toggle selects the option (clearing siblings on the engine side) unless it
// is already selected, in which case it deselects. The mirror is left
// untouched until the engine's authoritative echo arrives.
func (c *Controller) RequestFormatToggle(name, option string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.formats.Get(name, option)
	c.sendOrBufferLocked(&wire.SetFormat{Type: name, Option: option, Enabled: !current})
}

// RequestLinkInsertion validates url, closes the link modal, restores focus
// and sends the insert command once the engine acknowledges a valid
// selection. When the ack never arrives (legacy engine build), the bounded
// wait itself serves as the old fixed settle delay.
func (c *Controller) RequestLinkInsertion(rawURL, text string) error {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		c.notifier.Error(c.translate("Post.Error.InvalidURL"))
		return err
	}
	if strings.TrimSpace(text) == "" {
		text = normalized
	}

	cid := uuid.NewString()
	ack := make(chan struct{})

	c.mu.Lock()
	c.overlays.LinkModalOpen = false
	c.focusAcks[cid] = ack
	c.sendOrBufferLocked(&wire.Focus{CorrelationID: cid})
	c.mu.Unlock()

	select {
	case <-ack:
	case <-time.After(c.cfg.FocusAckTimeout):
		slog.Debug("host: focus ack timed out, proceeding", "correlationId", cid)
		c.mu.Lock()
		delete(c.focusAcks, cid)
		c.mu.Unlock()
	}

	c.send(&wire.InsertLink{URL: normalized, Text: text})
	return nil
}

// RequestMentionSearch resolves autocomplete candidates for term. Identical
// consecutive terms do not re-trigger a search; concurrent duplicates
// collapse via singleflight; stale results for a superseded term are
// discarded (last-request-wins). Failures log and fall back to an empty
// result set.
func (c *Controller) RequestMentionSearch(ctx context.Context, term string) {
	c.mu.Lock()
	if term == c.lastTerm {
		c.mu.Unlock()
		return
	}
	c.lastTerm = term
	c.searchSeq++
	seq := c.searchSeq
	c.mention.Loading = true
	c.mention.SearchText = term
	c.mu.Unlock()

	if c.searcher == nil {
		return
	}
	result, err, _ := c.group.Do(term, func() (any, error) {
		return c.searcher.Search(ctx, term)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.searchSeq {
		// a newer term superseded this request
		return
	}
	c.mention.Loading = false
	if err != nil {
		slog.Error("host: mention search failed", "term", term, "err", err)
		c.mention.Matches = nil
		return
	}
	c.mention.Matches, _ = result.([]Candidate)
}

// SelectMention dispatches the mention insert for the candidate with the
// given id. One stable entry point plus the id as data replaces per-item
// handler closures.
func (c *Controller) SelectMention(id string) error {
	c.mu.Lock()
	var picked *Candidate
	for i := range c.mention.Matches {
		if c.mention.Matches[i].ID == id {
			picked = &c.mention.Matches[i]
			break
		}
	}
	if picked == nil {
		c.mu.Unlock()
		return fmt.Errorf("host: no mention candidate %q", id)
	}
	cmd := &wire.InsertMention{ID: picked.ID, Name: picked.Name, URL: picked.URL}
	c.overlays.MentionBarVisible = false
	c.sendOrBufferLocked(cmd)
	c.mu.Unlock()
	return nil
}

// RequestMentionSymbol types "@" on the user's behalf (toolbar button).
func (c *Controller) RequestMentionSymbol() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mention.InsertSymbolRequested = true
	c.sendOrBufferLocked(&wire.InsertMentionSymbol{})
}

// DismissMentionBar hides the autocomplete bar without touching the
// document.
func (c *Controller) DismissMentionBar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlays.MentionBarVisible = false
	c.mention = MentionSession{}
	c.lastTerm = ""
}

// InjectStyles pushes CSS into the embedded document so it inherits the host
// theme.
func (c *Controller) InjectStyles(css string) {
	c.send(&wire.InsertStyles{Style: css})
}

// Focus asks the engine to focus the document.
func (c *Controller) Focus() {
	c.send(&wire.Focus{})
}

// Blur asks the engine to drop focus.
func (c *Controller) Blur() {
	c.send(&wire.Blur{})
}

// SetEnabled toggles whether the document accepts edits.
func (c *Controller) SetEnabled(enabled bool) {
	c.send(&wire.ToggleState{Enabled: enabled})
}

// RequestContent asks the engine for a fresh CONTENT event.
func (c *Controller) RequestContent() {
	c.send(&wire.GetContent{})
}

// OpenLinkModal and ShowImageToolbar flip the overlay flags; the overlays
// are chrome-only and never touch the document.
func (c *Controller) OpenLinkModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlays.LinkModalOpen = true
}

func (c *Controller) ShowImageToolbar(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlays.ImageToolbarVisible = visible
}
