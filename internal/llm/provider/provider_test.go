package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/llm/gemini"
	"github.com/joseph-ayodele/policy-extract/internal/llm/openai"
)

func TestNew(t *testing.T) {
	ex, err := New(common.LLMConfig{Provider: "Gemini", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, ex)
	assert.Equal(t, "gemini-2.5-flash", ex.Model())

	ex, err = New(common.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, ex)
	assert.Equal(t, "gpt-4o", ex.Model())

	_, err = New(common.LLMConfig{Provider: "mistral"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
