package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

// DecodeRecord turns the model's text output into a record. The payload must
// be a JSON object with exactly the schema keys, all strings; anything else
// fails the whole extraction.
func DecodeRecord(content string) (entity.Record, []byte, error) {
	raw := []byte(stripCodeFence(content))
	if len(bytes.TrimSpace(raw)) == 0 {
		return entity.Record{}, raw, newExtractionError(StageDecode, "model returned an empty response", nil)
	}
	if !json.Valid(raw) {
		return entity.Record{}, raw, newExtractionError(StageDecode, "model response is not valid JSON", nil)
	}
	if err := ValidatePolicyJSON(raw); err != nil {
		return entity.Record{}, raw, newExtractionError(StageSchema, "model response does not match the field schema", err)
	}

	var rec entity.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		var keyErr *entity.RecordKeyError
		if errors.As(err, &keyErr) {
			return entity.Record{}, raw, newExtractionError(StageSchema, "model response does not match the field schema", err)
		}
		return entity.Record{}, raw, newExtractionError(StageDecode, "decode model response", err)
	}
	return rec, raw, nil
}

// stripCodeFence removes a Markdown ```json fence some models wrap around
// structured output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
