package entity

import (
	"time"
)

// ExtractJob is an audit row for one document task. It never carries
// extracted field values so it can outlive a wiped batch.
type ExtractJob struct {
	ID           string     `json:"id"`
	BatchID      string     `json:"batch_id"`
	Filename     string     `json:"filename"`
	MIMEType     string     `json:"mime_type"`
	FileSize     int        `json:"file_size"`
	ContentHash  string     `json:"content_hash"`
	Company      string     `json:"company"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	Confidence   *float64   `json:"confidence,omitempty"`
	FindingCount int        `json:"finding_count"`
	ErrorCount   int        `json:"error_count"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	ModelName    string     `json:"model_name,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
