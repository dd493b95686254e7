package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/policy-extract/internal/async"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/export"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
	"github.com/joseph-ayodele/policy-extract/internal/masterdata"
	ingestsvc "github.com/joseph-ayodele/policy-extract/internal/services/ingest"
	"github.com/joseph-ayodele/policy-extract/internal/summary"
)

// MasterDataSource supplies the insurer and category lists.
type MasterDataSource interface {
	Load(ctx context.Context) (masterdata.Master, error)
}

// HistorySource reads the extract_job ledger.
type HistorySource interface {
	History(ctx context.Context, batchID string, limit int) ([]entity.ExtractJob, error)
}

// BatchServer serves the single in-memory batch over gRPC.
type BatchServer struct {
	batch     *batch.Batch
	ingest    *ingestsvc.Service
	extractor llm.Extractor
	queue     async.Queue
	exporter  *export.Exporter
	master    MasterDataSource
	history   HistorySource
	threshold float64
	logger    *slog.Logger
}

var _ BatchServiceServer = (*BatchServer)(nil)

type Option func(*BatchServer)

// WithQueue enables asynchronous processing.
func WithQueue(q async.Queue) Option {
	return func(s *BatchServer) { s.queue = q }
}

func WithExporter(e *export.Exporter) Option {
	return func(s *BatchServer) {
		if e != nil {
			s.exporter = e
		}
	}
}

func WithMasterData(m MasterDataSource) Option {
	return func(s *BatchServer) { s.master = m }
}

func WithHistory(h HistorySource) Option {
	return func(s *BatchServer) { s.history = h }
}

// WithVerifiedThreshold sets the mean confidence a clean batch needs to be
// reported as fully verified.
func WithVerifiedThreshold(t float64) Option {
	return func(s *BatchServer) { s.threshold = t }
}

func NewBatchServer(b *batch.Batch, ing *ingestsvc.Service, ex llm.Extractor, logger *slog.Logger, opts ...Option) *BatchServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BatchServer{
		batch:     b,
		ingest:    ing,
		extractor: ex,
		exporter:  export.NewExporter(export.WithLogger(logger)),
		threshold: -1,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BatchServer) Select(ctx context.Context, req *SelectRequest) (*SelectResponse, error) {
	company := strings.TrimSpace(req.Company)
	category := strings.TrimSpace(req.Category)
	v := common.NewValidator().
		Field("company", company, common.Required, common.MaxLength(200)).
		Field("category", category, common.Required, common.MaxLength(200))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	s.batch.Select(company, category)
	s.logger.Info("batch selection set", "company", company, "category", category)
	return &SelectResponse{BatchID: s.batch.ID(), Selection: s.batch.Selection()}, nil
}

func (s *BatchServer) Intake(ctx context.Context, req *IntakeRequest) (*IntakeResponse, error) {
	if len(req.Files) == 0 {
		return nil, common.InvalidArgumentError("files is required")
	}
	v := common.NewValidator()
	files := make([]entity.SourceFile, 0, len(req.Files))
	for _, f := range req.Files {
		name := strings.TrimSpace(f.Name)
		v.Field("files.name", name, common.Required, common.MaxLength(255))
		files = append(files, entity.SourceFile{Name: name, Data: f.Data})
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	ids, err := s.ingest.IngestUploads(ctx, files, req.Process && s.queue != nil)
	if err != nil && len(ids) == 0 {
		s.logger.Warn("intake failed", "files", len(files), "error", err)
		return nil, toStatus(err)
	}
	if err != nil {
		s.logger.Warn("intake accepted but processing not queued", "error", err)
	}
	if req.Process && s.queue == nil {
		if _, err := s.batch.Process(ctx, s.extractor); err != nil {
			return &IntakeResponse{TaskIDs: ids}, toStatus(err)
		}
	}
	return &IntakeResponse{TaskIDs: ids}, nil
}

func (s *BatchServer) IngestPaths(ctx context.Context, req *IngestPathsRequest) (*IngestPathsResponse, error) {
	v := common.NewValidator().Field("paths", req.Paths, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	skipHidden := true
	if req.SkipHidden != nil {
		skipHidden = *req.SkipHidden
	}

	res, err := s.ingest.IngestPaths(ctx, ingestsvc.PathIngestRequest{
		Paths:      req.Paths,
		SkipHidden: skipHidden,
		Process:    req.Process && s.queue != nil,
	})
	if res == nil || errors.Is(err, ingestsvc.ErrNothingIngested) {
		return nil, toStatus(err)
	}
	out := &IngestPathsResponse{Statistics: res.Statistics, Results: res.Results, TaskIDs: res.TaskIDs}
	if err != nil {
		s.logger.Warn("ingest accepted but processing not queued", "error", err)
		return out, nil
	}
	if req.Process && s.queue == nil {
		if _, err := s.batch.Process(ctx, s.extractor); err != nil {
			return nil, toStatus(err)
		}
	}
	return out, nil
}

func (s *BatchServer) Process(ctx context.Context, req *ProcessRequest) (*ProcessResponse, error) {
	taskID := strings.TrimSpace(req.TaskID)
	if taskID != "" {
		v := common.NewValidator().Field("task_id", taskID, common.UUID)
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, err
		}
		if _, err := s.batch.Get(taskID); err != nil {
			return nil, toStatus(err)
		}
	}

	if req.Async {
		if s.queue == nil {
			return nil, common.FailedPreconditionError("asynchronous processing is not enabled")
		}
		job := async.Job{TaskID: taskID, SubmittedAt: time.Now(), TraceID: common.RequestIDFromContext(ctx)}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return nil, toStatus(err)
		}
		return &ProcessResponse{Queued: true}, nil
	}

	if taskID != "" {
		ran, err := s.batch.ProcessTask(ctx, s.extractor, taskID)
		if err != nil {
			return nil, toStatus(err)
		}
		return &ProcessResponse{Ran: ran}, nil
	}
	stats, err := s.batch.Process(ctx, s.extractor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ProcessResponse{Ran: stats.Claimed > 0, Stats: stats}, nil
}

func (s *BatchServer) ListTasks(ctx context.Context, _ *ListTasksRequest) (*ListTasksResponse, error) {
	return &ListTasksResponse{
		BatchID:   s.batch.ID(),
		Selection: s.batch.Selection(),
		Tasks:     s.batch.Tasks(),
	}, nil
}

func (s *BatchServer) GetTask(ctx context.Context, req *GetTaskRequest) (*GetTaskResponse, error) {
	taskID := strings.TrimSpace(req.TaskID)
	v := common.NewValidator().Field("task_id", taskID, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	t, err := s.batch.Get(taskID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetTaskResponse{Task: t}, nil
}

func (s *BatchServer) Summary(ctx context.Context, _ *SummaryRequest) (*SummaryResponse, error) {
	var sum *entity.BatchSummary
	if s.threshold >= 0 {
		sum = summary.SummarizeWithThreshold(s.batch.Tasks(), s.threshold)
	} else {
		sum = summary.Summarize(s.batch.Tasks())
	}
	if sum == nil {
		return &SummaryResponse{}, nil
	}
	return &SummaryResponse{Summary: sum, Label: sum.Label()}, nil
}

func (s *BatchServer) Export(ctx context.Context, req *ExportRequest) (*ExportResponse, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = export.FormatCSV
	}
	v := common.NewValidator().Field("format", format, common.OneOf(export.FormatCSV, export.FormatXLSX))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	art, err := s.exporter.Export(format, s.batch.Tasks(), s.batch.Selection())
	if err != nil {
		s.logger.Warn("export failed", "format", format, "error", err)
		return nil, toStatus(err)
	}
	return &ExportResponse{
		Filename:    art.Filename,
		ContentType: art.ContentType,
		Data:        art.Data,
		Rows:        art.Rows,
	}, nil
}

func (s *BatchServer) Clear(ctx context.Context, _ *ClearRequest) (*ClearResponse, error) {
	old := s.batch.ID()
	s.batch.Clear()
	s.logger.Info("batch cleared", "old_batch_id", old, "batch_id", s.batch.ID())
	return &ClearResponse{BatchID: s.batch.ID()}, nil
}

func (s *BatchServer) MasterData(ctx context.Context, _ *MasterDataRequest) (*MasterDataResponse, error) {
	if s.master == nil {
		return nil, common.FailedPreconditionError("master data source is not configured")
	}
	m, err := s.master.Load(ctx)
	if err != nil {
		s.logger.Warn("master data load failed", "error", err)
		return nil, toStatus(err)
	}
	return &MasterDataResponse{Companies: m.Companies, Categories: m.Categories}, nil
}

func (s *BatchServer) History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	if s.history == nil {
		return nil, common.FailedPreconditionError("extraction ledger is not configured")
	}
	jobs, err := s.history.History(ctx, strings.TrimSpace(req.BatchID), req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	if jobs == nil {
		jobs = []entity.ExtractJob{}
	}
	return &HistoryResponse{Jobs: jobs}, nil
}
