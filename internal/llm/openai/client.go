package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
)

// Extract implements llm.Extractor using chat/completions with the document
// attached as a file (PDF) or image part and a strict json_schema response format.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	mimeType := constants.NormalizeMIME(req.MIMEType)

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"mime_type", mimeType,
		"bytes", len(req.Data),
		"company", req.Hints.Company,
		"category", req.Hints.Category,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "policy_fields",
				"strict": true,
				"schema": llm.BuildPolicyJSONSchema(),
			},
		},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildInstruction(req.Hints)},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Extract the policy fields from the attached document."},
				documentPart(req, mimeType),
			}},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Record{}, raw, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Record{}, raw, &llm.ExtractionError{Stage: llm.StageDecode, Message: "decode openai response", Cause: err}
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Record{}, raw, &llm.ExtractionError{Stage: llm.StageDecode, Message: "no choices in openai response"}
	}
	if refusal := strings.TrimSpace(cc.Choices[0].Message.Refusal); refusal != "" {
		c.log.Error("llm.extract.refused", "req_id", rid, "refusal", refusal)
		return entity.Record{}, raw, &llm.ExtractionError{Stage: llm.StageDecode, Message: "model refused: " + refusal}
	}

	rec, rawContent, err := llm.DecodeRecord(cc.Choices[0].Message.Content)
	if err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Record{}, rawContent, err
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"has_policy_no", rec.Get(constants.FieldPolicyNo) != "",
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, rawContent, nil
}

// documentPart attaches images as image_url parts and everything else as a file part.
func documentPart(req llm.ExtractRequest, mimeType string) map[string]any {
	dataURL := llm.DataURL(req.Data, mimeType)
	if strings.HasPrefix(mimeType, "image/") {
		return map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": dataURL},
		}
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "policy.pdf"
	}
	return map[string]any{
		"type": "file",
		"file": map[string]any{
			"filename":  filename,
			"file_data": dataURL,
		},
	}
}
