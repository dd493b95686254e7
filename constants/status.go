package constants

// TaskStatus is the lifecycle state of a document task within a batch.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskDone       TaskStatus = "done"
	TaskError      TaskStatus = "error"
)

// Terminal reports whether no further transitions leave s.
func (s TaskStatus) Terminal() bool {
	return s == TaskDone || s == TaskError
}

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// Severity grades a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Progress checkpoints reported while a task is processing.
const (
	ProgressClaimed  = 10
	ProgressEncoded  = 30
	ProgressComplete = 100
)

// DefaultConfidence is assigned to every successful extraction. The model
// returns no calibrated score yet, so this is a placeholder.
const DefaultConfidence = 98.0

// VerifiedConfidenceThreshold is the minimum mean confidence for a
// batch to be reported as verified.
const VerifiedConfidenceThreshold = 95.0
