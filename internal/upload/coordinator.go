package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	// ErrFileTooLarge marks input over the configured size ceiling.
	ErrFileTooLarge = errors.New("upload: file too large")
	// ErrTypeNotAllowed marks a forbidden extension with no conversion.
	ErrTypeNotAllowed = errors.New("upload: file type not allowed")
	// ErrChunkingUnsupported marks a file that needs chunking against a
	// server that cannot reassemble; nothing is sent.
	ErrChunkingUnsupported = errors.New("upload: file exceeds chunk size and server does not support chunking")
	// ErrAborted marks a user-cancelled upload.
	ErrAborted = errors.New("upload: aborted")
)

// File is a local file handed to the coordinator.
type File struct {
	URI  string
	Name string
	Data []byte
}

// Converter transparently converts a forbidden-but-convertible extension to
// an allowed one (heic to jpg, for one) before the upload is given up on.
type Converter interface {
	CanConvert(ext string) bool
	Convert(f File) (File, error)
}

// Config holds coordinator tuning.
type Config struct {
	MaxFileSize       int64
	AllowedExtensions []string
	// MaxChunkSize is the server-advertised ceiling for one encoded chunk,
	// already accounting for base64 inflation plus up to 3 padding bytes.
	MaxChunkSize      int
	ChunkingSupported bool
	RemoveDelay       time.Duration
	PostKey           string
}

// Coordinator runs uploads. One file uploads its chunks strictly in order;
// distinct files carry no cross-file ordering constraint.
type Coordinator struct {
	cfg       Config
	transport Transport
	store     *Store
	converter Converter

	mu     sync.Mutex
	aborts map[string]func()
}

// NewCoordinator creates a coordinator over the given transport and store.
// converter may be nil.
func NewCoordinator(transport Transport, store *Store, converter Converter, cfg Config) *Coordinator {
	if cfg.RemoveDelay <= 0 {
		cfg.RemoveDelay = time.Second
	}
	return &Coordinator{
		cfg:       cfg,
		transport: transport,
		store:     store,
		converter: converter,
		aborts:    make(map[string]func()),
	}
}

// Store exposes the record collection the toolbar renders from.
func (c *Coordinator) Store() *Store { return c.store }

// UsableChunkSize returns how many raw bytes fit in one encoded chunk of at
// most maxChunkSize bytes: floor(maxChunkSize/4)*3 minus the up-to-3 padding
// bytes the server ceiling already reserves.
func UsableChunkSize(maxChunkSize int) int {
	return maxChunkSize/4*3 - 3
}

// Upload validates, chunks and transmits f, reporting progress into the
// store as it goes. It blocks until the upload reaches a terminal state.
func (c *Coordinator) Upload(ctx context.Context, f File) (Attachment, error) {
	f, err := c.screen(f)
	if err != nil {
		return Attachment{}, err
	}

	id := IDFromURI(f.URI)
	c.store.Put(Record{ID: id, Name: f.Name, Status: StatusPending, FileSize: int64(len(f.Data))})

	encodedLen := base64.StdEncoding.EncodedLen(len(f.Data))
	if encodedLen > c.cfg.MaxChunkSize && !c.cfg.ChunkingSupported {
		c.fail(id, ErrChunkingUnsupported)
		return Attachment{}, ErrChunkingUnsupported
	}

	c.store.Update(id, func(r *Record) { r.Status = StatusUploading })

	var att Attachment
	if encodedLen <= c.cfg.MaxChunkSize {
		att, err = c.sendSingle(ctx, id, f)
	} else {
		att, err = c.sendChunked(ctx, id, f)
	}
	if err != nil {
		if errors.Is(err, ErrAborted) {
			return Attachment{}, err
		}
		c.fail(id, err)
		return Attachment{}, err
	}

	c.store.Update(id, func(r *Record) {
		r.Status = StatusDone
		r.Progress = 100
		r.AttachmentID = att.ID
	})
	return att, nil
}

// screen enforces the size ceiling and extension policy before anything is
// sent, attempting conversion for forbidden-but-convertible types.
func (c *Coordinator) screen(f File) (File, error) {
	if c.cfg.MaxFileSize > 0 && int64(len(f.Data)) > c.cfg.MaxFileSize {
		return f, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(f.Data))
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	if c.allowed(ext) {
		return f, nil
	}
	if c.converter != nil && c.converter.CanConvert(ext) {
		converted, err := c.converter.Convert(f)
		if err != nil {
			return f, fmt.Errorf("%w: conversion failed: %v", ErrTypeNotAllowed, err)
		}
		return converted, nil
	}
	return f, fmt.Errorf("%w: .%s", ErrTypeNotAllowed, ext)
}

func (c *Coordinator) allowed(ext string) bool {
	for _, a := range c.cfg.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return len(c.cfg.AllowedExtensions) == 0
}

func (c *Coordinator) sendSingle(ctx context.Context, id string, f File) (Attachment, error) {
	total := int64(len(f.Data))
	resp, err := c.transport.UploadChunk(ctx, ChunkRequest{
		Name:     f.Name,
		Contents: base64.StdEncoding.EncodeToString(f.Data),
		PostKey:  c.cfg.PostKey,
	}, c.progressFunc(id, 0, total, total))
	if err != nil {
		return Attachment{}, err
	}
	if resp.Attachment == nil {
		return Attachment{}, fmt.Errorf("upload: server returned no attachment for %s", f.Name)
	}
	return *resp.Attachment, nil
}

// sendChunked ships pieces strictly in order, waiting for each
// acknowledgment, threading the server's ref token from the first response
// into every subsequent request.
func (c *Coordinator) sendChunked(ctx context.Context, id string, f File) (Attachment, error) {
	usable := UsableChunkSize(c.cfg.MaxChunkSize)
	pieces := split(f.Data, usable)
	total := int64(len(f.Data))

	var (
		ref  string
		done int64
	)
	for i, piece := range pieces {
		if c.aborted(id) {
			// already-sent chunks are not retracted; the server garbage
			// collects incomplete reassemblies out of band
			return Attachment{}, ErrAborted
		}
		resp, err := c.transport.UploadChunk(ctx, ChunkRequest{
			Name:        f.Name,
			Contents:    base64.StdEncoding.EncodeToString(piece),
			Chunk:       i + 1,
			TotalChunks: len(pieces),
			PostKey:     c.cfg.PostKey,
			Ref:         ref,
		}, c.progressFunc(id, done, int64(len(piece)), total))
		if err != nil {
			return Attachment{}, err
		}
		if ref == "" {
			ref = resp.Ref
		}
		done += int64(len(piece))
		c.report(id, done, total)

		if resp.Attachment != nil {
			return *resp.Attachment, nil
		}
	}
	return Attachment{}, fmt.Errorf("upload: server never finalized %s", f.Name)
}

// progressFunc scales a single chunk's transfer progress into cumulative
// raw-byte progress so the UI moves smoothly inside one large chunk too.
func (c *Coordinator) progressFunc(id string, done, pieceLen, total int64) ProgressFunc {
	return func(loaded, chunkTotal int64) {
		if chunkTotal <= 0 {
			return
		}
		partial := int64(float64(pieceLen) * float64(loaded) / float64(chunkTotal))
		c.report(id, done+partial, total)
	}
}

func (c *Coordinator) report(id string, loaded, total int64) {
	if total <= 0 {
		return
	}
	pct := int(math.Round(float64(loaded) / float64(total) * 100))
	if pct > 100 {
		pct = 100
	}
	c.store.Update(id, func(r *Record) { r.Progress = pct })
}

func (c *Coordinator) fail(id string, err error) {
	slog.Error("upload failed", "id", id, "err", err)
	c.store.Update(id, func(r *Record) {
		r.Status = StatusError
		r.Err = "upload failed"
	})
}

func (c *Coordinator) aborted(id string) bool {
	rec, ok := c.store.Get(id)
	return ok && rec.Status == StatusAborted
}

// RegisterAbort stores a transport-provided abort handle for the upload's
// in-flight request.
func (c *Coordinator) RegisterAbort(uploadID string, abort func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aborts[uploadID] = abort
}

// Abort cancels an upload: the record flips to aborted immediately for
// instant UI feedback, any registered abort handle fires (errors swallowed),
// and the record is removed after the fixed delay so UI animation can
// finish. No further chunks go out after the flag is set.
func (c *Coordinator) Abort(id string) {
	c.store.Update(id, func(r *Record) { r.Status = StatusAborted })

	c.mu.Lock()
	abort := c.aborts[id]
	delete(c.aborts, id)
	c.mu.Unlock()
	if abort != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Debug("upload: abort handle panicked", "id", id, "panic", r)
				}
			}()
			abort()
		}()
	}

	time.AfterFunc(c.cfg.RemoveDelay, func() { c.store.Remove(id) })
}

// Delete removes a completed upload server-side by its attachment id, then
// clears the local record with the same deferred removal.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	rec, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("upload: no record %q", id)
	}
	if rec.AttachmentID == "" {
		return fmt.Errorf("upload: record %q has no server attachment", id)
	}
	c.store.Update(id, func(r *Record) { r.Status = StatusRemoving })
	if err := c.transport.Delete(ctx, rec.AttachmentID); err != nil {
		c.store.Update(id, func(r *Record) { r.Status = StatusError; r.Err = "delete failed" })
		return err
	}
	time.AfterFunc(c.cfg.RemoveDelay, func() { c.store.Remove(id) })
	return nil
}

func split(data []byte, size int) [][]byte {
	var out [][]byte
	for len(data) > size {
		out = append(out, data[:size])
		data = data[size:]
	}
	return append(out, data)
}
