package server

import (
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	fsingest "github.com/joseph-ayodele/policy-extract/internal/ingest"
)

type SelectRequest struct {
	Company  string `json:"company"`
	Category string `json:"category"`
}

type SelectResponse struct {
	BatchID   string           `json:"batch_id"`
	Selection entity.Selection `json:"selection"`
}

type Upload struct {
	Name string `json:"name"`
	Data []byte `json:"data"` // base64 in JSON
}

type IntakeRequest struct {
	Files   []Upload `json:"files"`
	Process bool     `json:"process"`
}

type IntakeResponse struct {
	TaskIDs []string `json:"task_ids"`
}

type IngestPathsRequest struct {
	Paths []string `json:"paths"`
	// SkipHidden defaults to true when omitted.
	SkipHidden *bool `json:"skip_hidden,omitempty"`
	Process    bool  `json:"process"`
}

type IngestPathsResponse struct {
	Statistics fsingest.DirStats          `json:"statistics"`
	Results    []fsingest.IngestionResult `json:"results"`
	TaskIDs    []string                   `json:"task_ids"`
}

// ProcessRequest processes one task when TaskID is set, otherwise every
// pending task. Async hands the work to the background queue.
type ProcessRequest struct {
	TaskID string `json:"task_id,omitempty"`
	Async  bool   `json:"async"`
}

type ProcessResponse struct {
	Queued bool               `json:"queued"`
	Ran    bool               `json:"ran"`
	Stats  batch.ProcessStats `json:"stats"`
}

type ListTasksRequest struct{}

type ListTasksResponse struct {
	BatchID   string                `json:"batch_id"`
	Selection entity.Selection      `json:"selection"`
	Tasks     []entity.DocumentTask `json:"tasks"`
}

type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

type GetTaskResponse struct {
	Task entity.DocumentTask `json:"task"`
}

type SummaryRequest struct{}

// SummaryResponse carries a nil Summary while no task is done.
type SummaryResponse struct {
	Summary *entity.BatchSummary `json:"summary,omitempty"`
	Label   string               `json:"label,omitempty"`
}

type ExportRequest struct {
	Format string `json:"format"` // csv or xlsx
}

type ExportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
	Rows        int    `json:"rows"`
}

type ClearRequest struct{}

type ClearResponse struct {
	BatchID string `json:"batch_id"`
}

type MasterDataRequest struct{}

type MasterDataResponse struct {
	Companies  []entity.InsuranceCompany `json:"companies"`
	Categories []entity.PolicyCategory   `json:"categories"`
}

type HistoryRequest struct {
	BatchID string `json:"batch_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type HistoryResponse struct {
	Jobs []entity.ExtractJob `json:"jobs"`
}
