// Package provider builds the configured extraction client.
package provider

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
	"github.com/joseph-ayodele/policy-extract/internal/llm/gemini"
	"github.com/joseph-ayodele/policy-extract/internal/llm/openai"
)

// Extractor is an llm.Extractor that also reports its model name, recorded
// on every extract_job row.
type Extractor interface {
	llm.Extractor
	Model() string
}

// New returns the client for cfg.Provider.
func New(cfg common.LLMConfig, logger *slog.Logger) (Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case common.ProviderGemini, "":
		c := gemini.NewClient(gemini.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger.With("provider", common.ProviderGemini))
		logger.Info("llm.provider", "provider", common.ProviderGemini, "model", c.Model())
		return c, nil
	case common.ProviderOpenAI:
		c := openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger.With("provider", common.ProviderOpenAI))
		logger.Info("llm.provider", "provider", common.ProviderOpenAI, "model", c.Model())
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", common.ErrInvalidInput, cfg.Provider)
	}
}
