package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

// Hints steer the model's reading of a document. They are advisory and are
// not checked against the master lists here.
type Hints struct {
	Company  string `json:"company,omitempty"`
	Category string `json:"category,omitempty"`
}

type ExtractRequest struct {
	Data     []byte
	MIMEType string // defaults to application/pdf
	Filename string
	Hints    Hints
}

// Extractor is the interface the batch pipeline depends on. One call is one
// outbound model request; implementations never retry.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (entity.Record, []byte /*rawJSON*/, error)
}

// Extraction failure stages.
const (
	StageRequest   = "request"
	StageTransport = "transport"
	StageStatus    = "status"
	StageDecode    = "decode"
	StageSchema    = "schema"
)

// ExtractionError is returned for every failed extraction. Message is meant
// for operators and ends up as the task's error detail.
type ExtractionError struct {
	Stage      string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

func newExtractionError(stage, msg string, cause error) *ExtractionError {
	return &ExtractionError{Stage: stage, Message: msg, Cause: cause}
}

// AsExtractionError converts any error into an ExtractionError, keeping an
// existing one intact.
func AsExtractionError(err error) *ExtractionError {
	if err == nil {
		return nil
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee
	}
	return newExtractionError(StageTransport, "extraction failed", err)
}
