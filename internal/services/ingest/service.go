package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/async"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	fsingest "github.com/joseph-ayodele/policy-extract/internal/ingest"
)

// ErrNothingIngested is returned when no path produced a readable document.
var ErrNothingIngested = errors.New("no supported documents found")

// Service moves documents from disk or uploads into the batch.
type Service struct {
	ingestor fsingest.Ingestor
	batch    *batch.Batch
	queue    async.Queue
	logger   *slog.Logger
}

// NewService creates a new ingest service. queue may be nil when the caller
// drives processing itself.
func NewService(ing fsingest.Ingestor, b *batch.Batch, q async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ingestor: ing, batch: b, queue: q, logger: logger}
}

// PathIngestRequest represents path ingestion parameters.
type PathIngestRequest struct {
	Paths      []string // files or directories
	SkipHidden bool
	Process    bool // enqueue processing after intake
}

// IngestResult reports what reached the batch.
type IngestResult struct {
	Statistics fsingest.DirStats
	Results    []fsingest.IngestionResult // successes carry TaskID
	TaskIDs    []string
}

// IngestPaths loads every path and appends the readable documents to the
// batch in the order given (directory entries in lexical order).
func (s *Service) IngestPaths(ctx context.Context, req PathIngestRequest) (*IngestResult, error) {
	if len(req.Paths) == 0 {
		return nil, batch.ErrNoFiles
	}
	if !s.batch.Selection().Complete() {
		return nil, batch.ErrSelectionRequired
	}

	var loaded []fsingest.Loaded
	out := &IngestResult{}
	for _, p := range req.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			out.Results = append(out.Results, fsingest.IngestionResult{SourcePath: p, Err: err.Error()})
			out.Statistics.Scanned++
			out.Statistics.Failed++
			continue
		}
		if info.IsDir() {
			s.logger.Info("starting directory ingest", "root", p, "skip_hidden", req.SkipHidden)
			l, failures, stats, err := s.ingestor.IngestDirectory(ctx, p, req.SkipHidden)
			if err != nil {
				return nil, fmt.Errorf("ingest directory %s: %w", p, err)
			}
			loaded = append(loaded, l...)
			out.Results = append(out.Results, failures...)
			addStats(&out.Statistics, stats)
			continue
		}

		out.Statistics.Scanned++
		out.Statistics.Matched++
		l, err := s.ingestor.IngestPath(ctx, p)
		if err != nil {
			l.Result.Err = err.Error()
			out.Results = append(out.Results, l.Result)
			out.Statistics.Failed++
			continue
		}
		out.Statistics.Succeeded++
		loaded = append(loaded, l)
	}

	if len(loaded) == 0 {
		s.logger.Warn("ingest produced no documents", "paths", len(req.Paths), "failed", out.Statistics.Failed)
		return out, ErrNothingIngested
	}

	files := make([]entity.SourceFile, len(loaded))
	for i, l := range loaded {
		files[i] = l.File
	}
	ids, err := s.batch.Intake(files...)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		loaded[i].Result.TaskID = id
		if loaded[i].Result.Pages > 0 {
			_ = s.batch.SetPageCount(id, loaded[i].Result.Pages)
		}
		out.Results = append(out.Results, loaded[i].Result)
	}
	out.TaskIDs = ids

	s.logger.Info("ingest completed",
		"added", len(ids),
		"scanned", out.Statistics.Scanned,
		"failed", out.Statistics.Failed,
	)

	if req.Process {
		if err := s.Process(ctx); err != nil {
			return out, err
		}
	}
	return out, nil
}

// IngestUploads appends uploaded documents. Content is sniffed the same way
// as files on disk.
func (s *Service) IngestUploads(ctx context.Context, uploads []entity.SourceFile, process bool) ([]string, error) {
	if len(uploads) == 0 {
		return nil, batch.ErrNoFiles
	}
	pages := make([]int, len(uploads))
	for i := range uploads {
		u := &uploads[i]
		if len(u.Data) == 0 {
			return nil, fmt.Errorf("%s: %w", u.Name, fsingest.ErrEmptyFile)
		}
		if int64(len(u.Data)) > fsingest.DefaultMaxBytes {
			return nil, fmt.Errorf("%s: %w", u.Name, fsingest.ErrTooLarge)
		}
		mt, ok := fsingest.DetectMIME(u.Name, u.Data)
		if !ok {
			return nil, fmt.Errorf("%s: %w", u.Name, fsingest.ErrUnsupportedData)
		}
		u.MIMEType = mt
		if constants.IsPDF(mt) {
			if n, err := fsingest.PageCount(u.Data); err == nil {
				pages[i] = n
			}
		}
	}

	ids, err := s.batch.Intake(uploads...)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		if pages[i] > 0 {
			_ = s.batch.SetPageCount(id, pages[i])
		}
	}
	s.logger.Info("upload ingest completed", "added", len(ids))

	if process {
		if err := s.Process(ctx); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// Process enqueues a drain of all pending tasks.
func (s *Service) Process(ctx context.Context) error {
	if s.queue == nil {
		return errors.New("no processing queue configured")
	}
	if err := s.queue.Enqueue(ctx, async.Job{SubmittedAt: time.Now()}); err != nil {
		s.logger.Error("enqueue failed", "err", err)
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

func addStats(dst *fsingest.DirStats, src fsingest.DirStats) {
	dst.Scanned += src.Scanned
	dst.Matched += src.Matched
	dst.Succeeded += src.Succeeded
	dst.Failed += src.Failed
}
