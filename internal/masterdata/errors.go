package masterdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNetwork wraps transport failures.
	ErrNetwork = errors.New("network request failed")
	// ErrInvalidResponse is returned for a 2xx body that is not JSON.
	ErrInvalidResponse = errors.New("invalid response format from server")
)

// StatusError is a non-2xx response from the master-data backend.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// newStatusError prefers a JSON "message" from the body. Server-side database
// faults that leak as HTML get a fixed message.
func newStatusError(code int, body []byte) *StatusError {
	trimmed := bytes.TrimSpace(body)
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(trimmed, &payload) == nil && payload.Message != "" {
		return &StatusError{StatusCode: code, Message: payload.Message}
	}
	if bytes.Contains(trimmed, []byte("Fatal error")) || bytes.Contains(trimmed, []byte("mysqli_sql_exception")) {
		return &StatusError{StatusCode: code, Message: "database error: a required column or table might be missing on the server"}
	}
	return &StatusError{StatusCode: code, Message: fmt.Sprintf("server error (%d)", code)}
}

func errInvalidFormat(body []byte) error {
	if bytes.HasPrefix(body, []byte("<")) || bytes.Contains(body, []byte("Fatal error")) {
		return fmt.Errorf("%w: server returned an error page instead of data", ErrInvalidResponse)
	}
	return ErrInvalidResponse
}
