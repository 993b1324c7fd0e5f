package upload

import "context"

// ChunkRequest is one chunk RPC. Chunk and TotalChunks are 1-based and only
// set for multi-chunk uploads; Ref threads the server's reassembly token
// through every chunk after the first.
type ChunkRequest struct {
	Name        string `json:"name"`
	Contents    string `json:"contents"`
	Chunk       int    `json:"chunk,omitempty"`
	TotalChunks int    `json:"totalChunks,omitempty"`
	PostKey     string `json:"postKey,omitempty"`
	Ref         string `json:"ref,omitempty"`
}

// Attachment is the finalized server-side descriptor.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ChunkResponse is either a finalized attachment (last or only chunk) or an
// intermediate acknowledgment carrying the reassembly token.
type ChunkResponse struct {
	Attachment *Attachment `json:"attachment,omitempty"`
	Name       string      `json:"name,omitempty"`
	Ref        string      `json:"ref,omitempty"`
}

// ProgressFunc reports partial transfer progress of a single chunk request.
type ProgressFunc func(loaded, total int64)

// Transport is the RPC channel uploads travel over. Implementations may call
// AbortRegistry.RegisterAbort while a request is in flight to expose a true
// abort handle; the coordinator invokes it opportunistically.
type Transport interface {
	UploadChunk(ctx context.Context, req ChunkRequest, progress ProgressFunc) (ChunkResponse, error)
	Delete(ctx context.Context, attachmentID string) error
}

// AbortRegistry receives per-upload abort callbacks from the transport.
type AbortRegistry interface {
	RegisterAbort(uploadID string, abort func())
}
