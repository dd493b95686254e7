package ingest

import (
	"context"

	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath string `json:"source_path"`
	Name       string `json:"name"`
	MIMEType   string `json:"mime_type,omitempty"`
	HashHex    string `json:"hash_hex,omitempty"`
	Size       int    `json:"size,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
	Err        string `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32 `json:"scanned"`
	Matched   uint32 `json:"matched"`
	Succeeded uint32 `json:"succeeded"`
	Failed    uint32 `json:"failed"`
}

// Loaded pairs a readable document with its ingest result.
type Loaded struct {
	File   entity.SourceFile
	Result IngestionResult
}

// Ingestor turns paths into source files ready for batch intake.
type Ingestor interface {
	// IngestPath loads a single file.
	IngestPath(ctx context.Context, path string) (Loaded, error)
	// IngestDirectory loads all matching files under root, in lexical order.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Loaded, []IngestionResult, DirStats, error)
}
