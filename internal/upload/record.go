// Package upload implements the host-side chunking coordinator: it splits a
// local file into base64 chunks bounded by a server-advertised maximum,
// ships them strictly in order over a separate RPC channel, and reports
// progress and terminal status into the record store the toolbar renders
// from. It is independent of the message bridge.
package upload

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

// Status is the per-upload state machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusAborted   Status = "aborted"
	// StatusRemoving is terminal-adjacent: entered from done/aborted while
	// the deferred local cleanup is pending.
	StatusRemoving Status = "removing"
)

// Record tracks one attachment in flight. Owned by the host; the document
// engine never sees it.
type Record struct {
	ID           string
	Name         string
	Status       Status
	Progress     int
	FileSize     int64
	Position     int
	AttachmentID string
	Err          string
}

// IDFromURI derives the client-local upload id from the file URI.
func IDFromURI(uri string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(uri))
	return fmt.Sprintf("upload-%x", h.Sum64())
}

// Store is the mutex-guarded upload record collection. Mutated only by the
// coordinator and explicit user actions.
type Store struct {
	mu      sync.RWMutex
	recs    map[string]*Record
	nextPos int
}

func NewStore() *Store {
	return &Store{recs: make(map[string]*Record)}
}

// Put inserts rec, assigning the next display position.
func (s *Store) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Position = s.nextPos
	s.nextPos++
	s.recs[rec.ID] = &rec
}

// Get returns a copy of the record, if present.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Update applies fn to the record under the lock. A missing id is a no-op.
func (s *Store) Update(id string, fn func(*Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[id]; ok {
		fn(rec)
	}
}

// Remove deletes the record outright.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
}

// List returns copies of all records in stable display order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
