package entity

import (
	"time"

	"github.com/joseph-ayodele/policy-extract/constants"
)

// Finding is a validation result attached to a completed extraction.
// Field is nil for cross-field checks.
type Finding struct {
	Field    *constants.FieldName `json:"field,omitempty"`
	Message  string               `json:"message"`
	Severity constants.Severity   `json:"severity"`
}

// FieldFinding builds a finding scoped to one field.
func FieldFinding(f constants.FieldName, msg string, sev constants.Severity) Finding {
	return Finding{Field: &f, Message: msg, Severity: sev}
}

// CrossFieldFinding builds a finding that references no single field.
func CrossFieldFinding(msg string, sev constants.Severity) Finding {
	return Finding{Message: msg, Severity: sev}
}

// SourceFile is an uploaded document.
type SourceFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Checksum string `json:"checksum,omitempty"` // hex sha256 of Data
	Data     []byte `json:"-"`
	// Bytes is the content length; it survives dropping Data from snapshots.
	Bytes int `json:"size"`
}

// Size returns the content length in bytes.
func (f SourceFile) Size() int {
	if len(f.Data) > 0 {
		return len(f.Data)
	}
	return f.Bytes
}

// Selection is the operator's chosen insurer and policy category. It steers
// extraction and names export files; it is not part of any task.
type Selection struct {
	Company  string `json:"company"`
	Category string `json:"category"`
}

// Complete reports whether both parts are chosen.
func (s Selection) Complete() bool {
	return s.Company != "" && s.Category != ""
}

// DocumentTask tracks one uploaded file through extraction and validation.
type DocumentTask struct {
	ID          string               `json:"id"`
	Source      SourceFile           `json:"source"`
	Status      constants.TaskStatus `json:"status"`
	Progress    int                  `json:"progress"`
	Confidence  float64              `json:"confidence"`
	Record      Record               `json:"record"`
	Findings    []Finding            `json:"findings"`
	ErrorDetail string               `json:"error_detail,omitempty"`
	PageCount   int                  `json:"page_count,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	FinishedAt  *time.Time           `json:"finished_at,omitempty"`
}

// FindingFor returns the first finding scoped to f.
func (t DocumentTask) FindingFor(f constants.FieldName) (Finding, bool) {
	for _, fd := range t.Findings {
		if fd.Field != nil && *fd.Field == f {
			return fd, true
		}
	}
	return Finding{}, false
}

// ErrorCount counts error-severity findings.
func (t DocumentTask) ErrorCount() int {
	n := 0
	for _, fd := range t.Findings {
		if fd.Severity == constants.SeverityError {
			n++
		}
	}
	return n
}
