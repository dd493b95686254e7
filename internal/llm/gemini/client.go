package gemini

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
)

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float32        `json:"temperature"`
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Extract implements llm.Extractor with a single generateContent call that
// sends the document inline and constrains the reply to the field schema.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	mimeType := constants.NormalizeMIME(req.MIMEType)

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"mime_type", mimeType,
		"bytes", len(req.Data),
		"company", req.Hints.Company,
		"category", req.Hints.Category,
	)

	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: llm.BuildInstruction(req.Hints)},
				{InlineData: &inlineData{MIMEType: mimeType, Data: llm.EncodeBase64(req.Data)}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      c.cfg.Temperature,
			ResponseMIMEType: "application/json",
			ResponseSchema:   upperTypes(llm.BuildResponseSchema()),
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, map[string]string{
		"x-goog-api-key": c.cfg.APIKey,
	}, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Record{}, raw, err
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Record{}, raw, &llm.ExtractionError{Stage: llm.StageDecode, Message: "decode gemini response", Cause: err}
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		c.log.Error("llm.extract.blocked", "req_id", rid, "reason", gr.PromptFeedback.BlockReason)
		return entity.Record{}, raw, &llm.ExtractionError{Stage: llm.StageDecode, Message: "gemini blocked the request: " + gr.PromptFeedback.BlockReason}
	}
	if len(gr.Candidates) == 0 {
		c.log.Error("llm.extract.no_candidates",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Record{}, raw, &llm.ExtractionError{Stage: llm.StageDecode, Message: "no candidates in gemini response"}
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	rec, rawContent, err := llm.DecodeRecord(text.String())
	if err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"finish_reason", gr.Candidates[0].FinishReason,
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

// upperTypes rewrites JSON-schema type names into the upper-case enum the
// Gemini schema dialect uses.
func upperTypes(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch t := v.(type) {
		case string:
			if k == "type" {
				out[k] = strings.ToUpper(t)
			} else {
				out[k] = t
			}
		case map[string]any:
			out[k] = upperTypes(t)
		default:
			out[k] = v
		}
	}
	return out
}
