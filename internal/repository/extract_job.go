package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

const extractJobTable = "extract_job"

var extractJobColumns = []string{
	"id", "batch_id", "filename", "mime_type", "file_size", "content_hash",
	"company", "category", "status", "confidence", "finding_count", "error_count",
	"error_message", "model_name", "started_at", "finished_at",
}

// ExtractJobRepository is the audit ledger of extraction attempts. Rows hold
// file metadata and outcomes only, never extracted values.
type ExtractJobRepository interface {
	Migrate(ctx context.Context) error
	Start(ctx context.Context, job entity.ExtractJob) error
	FinishSuccess(ctx context.Context, jobID string, confidence float64, findings, errorFindings int) error
	FinishFailure(ctx context.Context, jobID string, message string) error
	Get(ctx context.Context, jobID string) (*entity.ExtractJob, error)
	List(ctx context.Context, batchID string, limit int) ([]entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	now func() time.Time
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, now: time.Now, log: log}
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

// Migrate creates the table and its index when missing.
func (r *extractJobRepo) Migrate(ctx context.Context) error {
	b := r.builder()
	tsType, floatType := "timestamptz", "double precision"
	if r.db.Dialect() == dialect.SQLite {
		tsType, floatType = "datetime", "real"
	}

	q, args := b.CreateTable(extractJobTable).IfNotExists().
		Columns(
			b.Column("id").Type("varchar(64)").Attr("NOT NULL"),
			b.Column("batch_id").Type("varchar(64)").Attr("NOT NULL"),
			b.Column("filename").Type("text").Attr("NOT NULL"),
			b.Column("mime_type").Type("varchar(128)").Attr("NOT NULL"),
			b.Column("file_size").Type("bigint").Attr("NOT NULL DEFAULT 0"),
			b.Column("content_hash").Type("varchar(64)").Attr("NOT NULL"),
			b.Column("company").Type("text").Attr("NOT NULL"),
			b.Column("category").Type("text").Attr("NOT NULL"),
			b.Column("status").Type("varchar(16)").Attr("NOT NULL"),
			b.Column("confidence").Type(floatType),
			b.Column("finding_count").Type("integer").Attr("NOT NULL DEFAULT 0"),
			b.Column("error_count").Type("integer").Attr("NOT NULL DEFAULT 0"),
			b.Column("error_message").Type("text"),
			b.Column("model_name").Type("varchar(128)").Attr("NOT NULL DEFAULT ''"),
			b.Column("started_at").Type(tsType).Attr("NOT NULL"),
			b.Column("finished_at").Type(tsType),
		).
		PrimaryKey("id").
		Query()
	if err := r.db.Driver().Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job migrate failed", "err", err)
		return common.NewAppError("DB_MIGRATE", "create extract_job", errors.Join(common.ErrDatabase, err))
	}

	q, args = b.CreateIndex("extract_job_batch_started").IfNotExists().
		Table(extractJobTable).
		Columns("batch_id", "started_at").
		Query()
	if err := r.db.Driver().Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job index failed", "err", err)
		return common.NewAppError("DB_MIGRATE", "index extract_job", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (r *extractJobRepo) Start(ctx context.Context, job entity.ExtractJob) error {
	if job.StartedAt.IsZero() {
		job.StartedAt = r.now()
	}
	if job.Status == "" {
		job.Status = string(constants.JobStatusRunning)
	}
	q, args := r.builder().Insert(extractJobTable).
		Columns("id", "batch_id", "filename", "mime_type", "file_size", "content_hash",
			"company", "category", "status", "model_name", "started_at").
		Values(job.ID, job.BatchID, job.Filename, job.MIMEType, job.FileSize, job.ContentHash,
			job.Company, job.Category, job.Status, job.ModelName, job.StartedAt.UTC()).
		Query()
	if err := r.db.Driver().Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job start failed", "job_id", job.ID, "err", err)
		return fmt.Errorf("insert extract_job: %w", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("extract_job started", "job_id", job.ID, "batch_id", job.BatchID, "mime_type", job.MIMEType)
	return nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID string, confidence float64, findings, errorFindings int) error {
	q, args := r.builder().Update(extractJobTable).
		Set("status", string(constants.JobStatusDone)).
		Set("confidence", confidence).
		Set("finding_count", findings).
		Set("error_count", errorFindings).
		Set("finished_at", r.now().UTC()).
		Where(entsql.EQ("id", jobID)).
		Query()
	if err := r.update(ctx, jobID, q, args); err != nil {
		r.log.Error("extract_job finish(DONE) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (DONE)", "job_id", jobID, "findings", findings)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID string, message string) error {
	q, args := r.builder().Update(extractJobTable).
		Set("status", string(constants.JobStatusFailed)).
		Set("error_message", message).
		Set("finished_at", r.now().UTC()).
		Where(entsql.EQ("id", jobID)).
		Query()
	if err := r.update(ctx, jobID, q, args); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) update(ctx context.Context, jobID, q string, args []any) error {
	var res sql.Result
	if err := r.db.Driver().Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("update extract_job: %w", errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID string) (*entity.ExtractJob, error) {
	b := r.builder()
	q, args := b.Select(extractJobColumns...).
		From(b.Table(extractJobTable)).
		Where(entsql.EQ("id", jobID)).
		Query()
	jobs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return &jobs[0], nil
}

// List returns the newest rows first. An empty batchID lists across batches.
func (r *extractJobRepo) List(ctx context.Context, batchID string, limit int) ([]entity.ExtractJob, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	b := r.builder()
	sel := b.Select(extractJobColumns...).
		From(b.Table(extractJobTable)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id")).
		Limit(limit)
	if batchID != "" {
		sel = sel.Where(entsql.EQ("batch_id", batchID))
	}
	q, args := sel.Query()
	return r.query(ctx, q, args)
}

func (r *extractJobRepo) query(ctx context.Context, q string, args []any) ([]entity.ExtractJob, error) {
	rows := &entsql.Rows{}
	if err := r.db.Driver().Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("query extract_job: %w", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = rows.Close() }()

	var out []entity.ExtractJob
	for rows.Next() {
		var (
			j          entity.ExtractJob
			confidence sql.NullFloat64
			errMsg     sql.NullString
			finishedAt sql.NullTime
		)
		if err := rows.Scan(
			&j.ID, &j.BatchID, &j.Filename, &j.MIMEType, &j.FileSize, &j.ContentHash,
			&j.Company, &j.Category, &j.Status, &confidence, &j.FindingCount, &j.ErrorCount,
			&errMsg, &j.ModelName, &j.StartedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extract_job: %w", err)
		}
		if confidence.Valid {
			j.Confidence = &confidence.Float64
		}
		if errMsg.Valid {
			j.ErrorMessage = &errMsg.String
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			j.FinishedAt = &t
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extract_job: %w", err)
	}
	return out, nil
}
