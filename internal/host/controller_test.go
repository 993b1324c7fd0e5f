package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/forumkit/editorbridge/internal/transport"
	"github.com/forumkit/editorbridge/internal/wire"
)

type stubNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *stubNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type stubSearcher struct {
	mu      sync.Mutex
	calls   int
	results []Candidate
	err     error
}

func (s *stubSearcher) Search(context.Context, string) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.results, s.err
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestController(t *testing.T, searcher MentionSearcher, notifier Notifier) (*Controller, *transport.Loopback) {
	t.Helper()
	hostEnd, engineEnd := transport.Pipe()
	t.Cleanup(func() { hostEnd.Close() })
	if notifier == nil {
		notifier = &stubNotifier{}
	}
	c := New(hostEnd, searcher, notifier, nil, Config{FocusAckTimeout: 40 * time.Millisecond})
	return c, engineEnd
}

func ready(t *testing.T, c *Controller) {
	t.Helper()
	deliver(t, c, &wire.Ready{})
}

func deliver(t *testing.T, c *Controller, ev wire.Message) {
	t.Helper()
	raw, err := wire.Encode(wire.DefaultPrefix, ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	c.HandleRaw(raw)
}

func recvCmd(t *testing.T, engine *transport.Loopback) wire.Message {
	t.Helper()
	select {
	case raw, ok := <-engine.Receive():
		if !ok {
			t.Fatal("conn closed")
		}
		msg, err := wire.Decode(wire.DefaultPrefix, raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for command")
		return nil
	}
}

func expectSilence(t *testing.T, engine *transport.Loopback) {
	t.Helper()
	select {
	case raw := <-engine.Receive():
		t.Fatalf("unexpected command: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFormatMirrorNeverOptimistic(t *testing.T) {
	c, engine := newTestController(t, nil, nil)
	ready(t, c)

	c.RequestFormatToggle(wire.FormatBold, "")
	cmd, ok := recvCmd(t, engine).(*wire.SetFormat)
	if !ok {
		t.Fatal("expected SET_FORMAT")
	}
	if cmd.Type != wire.FormatBold || !cmd.Enabled {
		t.Errorf("command = %+v, want bold enable", cmd)
	}

	// the reply has not arrived: the mirror must be unchanged
	if c.Formats().Bold {
		t.Fatal("mirror mutated optimistically before the engine echo")
	}

	deliver(t, c, &wire.EditorStatus{Formatting: &wire.FormatState{Bold: true}})
	if !c.Formats().Bold {
		t.Error("mirror did not follow the authoritative echo")
	}
}

func TestOptionGroupToggleSemantics(t *testing.T) {
	tests := []struct {
		name        string
		mirror      wire.ListState
		option      string
		wantEnabled bool
	}{
		{"select bullet when off", wire.ListState{}, wire.ListBullet, true},
		{"select bullet when ordered on", wire.ListState{Ordered: true}, wire.ListBullet, true},
		{"deselect bullet when on", wire.ListState{Bullet: true}, wire.ListBullet, false},
		{"deselect ordered when on", wire.ListState{Ordered: true}, wire.ListOrdered, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, engine := newTestController(t, nil, nil)
			ready(t, c)
			deliver(t, c, &wire.EditorStatus{Formatting: &wire.FormatState{List: tc.mirror}})

			c.RequestFormatToggle(wire.FormatList, tc.option)
			cmd := recvCmd(t, engine).(*wire.SetFormat)
			if cmd.Option != tc.option || cmd.Enabled != tc.wantEnabled {
				t.Errorf("command = %+v, want option %s enabled %v", cmd, tc.option, tc.wantEnabled)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "http://example.com", false},
		{"https://example.com", "https://example.com", false},
		{"not a url", "", true},
		{"", "", true},
		{"  forum.example.com/discussion/1  ", "http://forum.example.com/discussion/1", false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeURL(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("err = %v, want ErrInvalidURL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLinkInsertionRejectsBadURL(t *testing.T) {
	notifier := &stubNotifier{}
	c, engine := newTestController(t, nil, notifier)
	ready(t, c)

	if err := c.RequestLinkInsertion("not a url", "text"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("err = %v, want ErrInvalidURL", err)
	}
	if notifier.count() != 1 {
		t.Errorf("user-facing error not surfaced")
	}
	expectSilence(t, engine)
}

func TestLinkInsertionWaitsForFocusAck(t *testing.T) {
	c, engine := newTestController(t, nil, nil)
	ready(t, c)
	c.OpenLinkModal()

	done := make(chan error, 1)
	go func() { done <- c.RequestLinkInsertion("example.com", "example") }()

	focus, ok := recvCmd(t, engine).(*wire.Focus)
	if !ok {
		t.Fatal("expected FOCUS before INSERT_LINK")
	}
	if focus.CorrelationID == "" {
		t.Fatal("focus must carry a correlation id")
	}
	deliver(t, c, &wire.FocusAck{CorrelationID: focus.CorrelationID})

	insert, ok := recvCmd(t, engine).(*wire.InsertLink)
	if !ok {
		t.Fatal("expected INSERT_LINK after the ack")
	}
	if insert.URL != "http://example.com" || insert.Text != "example" {
		t.Errorf("insert = %+v", insert)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Overlays().LinkModalOpen {
		t.Error("link modal should be closed")
	}
}

func TestLinkInsertionFallsBackWhenAckNeverArrives(t *testing.T) {
	c, engine := newTestController(t, nil, nil)
	ready(t, c)

	done := make(chan error, 1)
	go func() { done <- c.RequestLinkInsertion("example.com", "example") }()

	recvCmd(t, engine) // FOCUS, deliberately unanswered
	if _, ok := recvCmd(t, engine).(*wire.InsertLink); !ok {
		t.Fatal("expected INSERT_LINK after the bounded wait")
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPreReadyBuffering(t *testing.T) {
	c, engine := newTestController(t, nil, nil)

	c.RequestFormatToggle(wire.FormatBold, "")
	c.RequestFormatToggle(wire.FormatItalic, "")
	c.Focus()
	c.InjectStyles("body{}") // content command: logged and lost
	expectSilence(t, engine)

	ready(t, c)
	if _, ok := recvCmd(t, engine).(*wire.Focus); !ok {
		t.Fatal("buffered FOCUS must flush first")
	}
	cmd, ok := recvCmd(t, engine).(*wire.SetFormat)
	if !ok {
		t.Fatal("buffered SET_FORMAT must flush")
	}
	if cmd.Type != wire.FormatItalic {
		t.Errorf("flushed %q, want only the most recent formatting command", cmd.Type)
	}
	expectSilence(t, engine)
}

func TestMentionSearchIdempotent(t *testing.T) {
	searcher := &stubSearcher{results: []Candidate{{ID: "7", Name: "daphne"}}}
	c, _ := newTestController(t, searcher, nil)
	ready(t, c)

	c.RequestMentionSearch(context.Background(), "da")
	c.RequestMentionSearch(context.Background(), "da")
	if searcher.callCount() != 1 {
		t.Errorf("identical consecutive terms triggered %d searches, want 1", searcher.callCount())
	}
	if got := c.Mention().Matches; len(got) != 1 || got[0].ID != "7" {
		t.Errorf("matches = %+v", got)
	}
}

type gateSearcher struct {
	started chan string
	release map[string]chan []Candidate
}

func (s *gateSearcher) Search(_ context.Context, term string) ([]Candidate, error) {
	s.started <- term
	return <-s.release[term], nil
}

func TestMentionSearchLastRequestWins(t *testing.T) {
	searcher := &gateSearcher{
		started: make(chan string, 2),
		release: map[string]chan []Candidate{
			"da":  make(chan []Candidate, 1),
			"dav": make(chan []Candidate, 1),
		},
	}
	c, _ := newTestController(t, searcher, nil)
	ready(t, c)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.RequestMentionSearch(context.Background(), "da") }()
	<-searcher.started
	go func() { defer wg.Done(); c.RequestMentionSearch(context.Background(), "dav") }()
	<-searcher.started

	// the newer term resolves first; the stale result lands afterwards
	searcher.release["dav"] <- []Candidate{{ID: "2", Name: "dave"}}
	searcher.release["da"] <- []Candidate{{ID: "1", Name: "dana"}}
	wg.Wait()

	got := c.Mention().Matches
	if len(got) != 1 || got[0].Name != "dave" {
		t.Errorf("stale result overwrote the newer term: %+v", got)
	}
}

func TestMentionSearchFailsSoft(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("network down")}
	c, _ := newTestController(t, searcher, nil)
	ready(t, c)

	c.RequestMentionSearch(context.Background(), "da")
	m := c.Mention()
	if m.Loading {
		t.Error("loading flag stuck")
	}
	if len(m.Matches) != 0 {
		t.Errorf("expected empty-results state, got %+v", m.Matches)
	}
}

func TestSelectMentionDispatchesByID(t *testing.T) {
	searcher := &stubSearcher{results: []Candidate{
		{ID: "1", Name: "dana", URL: "/p/dana"},
		{ID: "2", Name: "dave", URL: "/p/dave"},
	}}
	c, engine := newTestController(t, searcher, nil)
	ready(t, c)
	c.RequestMentionSearch(context.Background(), "da")

	if err := c.SelectMention("2"); err != nil {
		t.Fatalf("select: %v", err)
	}
	cmd, ok := recvCmd(t, engine).(*wire.InsertMention)
	if !ok {
		t.Fatal("expected INSERT_MENTION")
	}
	if cmd.Name != "dave" || cmd.URL != "/p/dave" {
		t.Errorf("command = %+v", cmd)
	}
	if err := c.SelectMention("99"); err == nil {
		t.Error("unknown candidate id must fail")
	}
}

func TestMentionSessionMirroredFromStatus(t *testing.T) {
	searcher := &stubSearcher{results: []Candidate{{ID: "7", Name: "daphne"}}}
	c, _ := newTestController(t, searcher, nil)
	ready(t, c)

	deliver(t, c, &wire.EditorStatus{Mention: &wire.MentionState{Active: true, SearchText: "da", CharPos: 6, Range: 9}})
	if !c.Overlays().MentionBarVisible {
		t.Fatal("mention bar should be visible while session is active")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(c.Mention().Matches) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.Mention().Matches; len(got) != 1 {
		t.Fatalf("search not triggered by status event: %+v", got)
	}

	deliver(t, c, &wire.EditorStatus{Mention: &wire.MentionState{Active: false}})
	if c.Overlays().MentionBarVisible || c.Mention().Active {
		t.Error("session must be destroyed when the engine reports inactive")
	}
}

func TestEditorBlurClearsSession(t *testing.T) {
	c, _ := newTestController(t, nil, nil)
	ready(t, c)
	deliver(t, c, &wire.EditorStatus{Mention: &wire.MentionState{Active: true, SearchText: "da"}})
	deliver(t, c, &wire.EditorBlur{})
	if c.State() != StateBlurred {
		t.Errorf("state = %s, want blurred", c.State())
	}
	if c.Overlays().MentionBarVisible {
		t.Error("mention bar should hide on blur")
	}
}

func TestMalformedEventsDroppedSilently(t *testing.T) {
	c, _ := newTestController(t, nil, nil)
	ready(t, c)
	c.HandleRaw("][ garbage")
	c.HandleRaw(`{"message":"otherapp::READY"}`)
	if c.State() != StateBlurred {
		t.Errorf("malformed traffic changed state: %s", c.State())
	}
}
