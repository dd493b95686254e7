package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

// DefaultMaxBytes matches the inline payload limit of the extraction models.
const DefaultMaxBytes = 20 << 20

var (
	ErrUnsupportedType = errors.New("unsupported or missing extension")
	ErrUnsupportedData = errors.New("content is not a supported document type")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrEmptyFile       = errors.New("file is empty")
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	MaxBytes int64
	Logger   *slog.Logger
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{MaxBytes: DefaultMaxBytes, Logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (Loaded, error) {
	out := Loaded{Result: IngestionResult{SourcePath: path, Name: filepath.Base(path)}}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.Logger.Error("ingest.abs.failed", "path", path, "error", err)
		return out, err
	}
	out.Result.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.Logger.Warn("ingest.unsupported", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		i.Logger.Error("ingest.open.failed", "path", abs, "error", err)
		return out, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			i.Logger.Warn("ingest.close.failed", "path", abs, "error", err)
		}
	}()

	limit := i.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		i.Logger.Error("ingest.read.failed", "path", abs, "error", err)
		return out, err
	}
	if int64(len(data)) > limit {
		return out, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	if len(data) == 0 {
		return out, ErrEmptyFile
	}

	mt, ok := DetectMIME(abs, data)
	if !ok {
		return out, ErrUnsupportedData
	}

	sum := sha256.Sum256(data)
	out.File = entity.SourceFile{
		Name:     filepath.Base(abs),
		MIMEType: mt,
		Checksum: hex.EncodeToString(sum[:]),
		Data:     data,
	}
	out.Result.MIMEType = mt
	out.Result.HashHex = out.File.Checksum
	out.Result.Size = len(data)

	if constants.IsPDF(mt) {
		pages, err := PageCount(data)
		if err != nil {
			// The model may still read a PDF pdfcpu rejects.
			i.Logger.Warn("ingest.pdf.pages.failed", "path", abs, "error", err)
		} else {
			out.Result.Pages = pages
		}
	}

	i.Logger.Debug("ingest.file.ok", "path", abs, "mime_type", mt, "bytes", len(data), "pages", out.Result.Pages)
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and loads
// each supported file. Per-file failures are reported, not returned.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
) ([]Loaded, []IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var loaded []Loaded
	var failures []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			failures = append(failures, IngestionResult{SourcePath: path, Name: filepath.Base(path), Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		l, err := i.IngestPath(ctx, path)
		if err != nil {
			l.Result.Err = err.Error()
			failures = append(failures, l.Result)
			stats.Failed++
			return nil
		}
		loaded = append(loaded, l)
		stats.Succeeded++
		return nil
	})

	i.Logger.Info("ingest.directory",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	if err != nil {
		return loaded, failures, stats, fmt.Errorf("walk: %w", err)
	}
	return loaded, failures, stats, nil
}
