package llm

import "github.com/joseph-ayodele/policy-extract/constants"

// BuildPolicyJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Every field is a required string and no other key is allowed. We use it
// locally to check the model output.
func BuildPolicyJSONSchema() map[string]any {
	props := make(map[string]any, constants.FieldCount)
	for _, f := range constants.Fields() {
		props[string(f)] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             constants.FieldsAsStringSlice(),
	}
}

// BuildResponseSchema is the provider-facing variant: an ordered property
// list with per-field descriptions for structured-output APIs.
func BuildResponseSchema() map[string]any {
	props := make(map[string]any, constants.FieldCount)
	for _, f := range constants.Fields() {
		props[string(f)] = map[string]any{
			"type":        "string",
			"description": "Extract " + string(f) + ". Normalize dates to DD-MM-YYYY, amounts to numeric strings.",
		}
	}
	return map[string]any{
		"type":             "object",
		"properties":       props,
		"required":         constants.FieldsAsStringSlice(),
		"propertyOrdering": constants.FieldsAsStringSlice(),
	}
}
