package llm

import (
	"strings"

	"github.com/joseph-ayodele/policy-extract/constants"
)

// BuildInstruction composes the extraction instruction sent with each document.
// Hints name the insurer and policy category the operator selected.
func BuildInstruction(h Hints) string {
	category := strings.TrimSpace(h.Category)
	if category == "" {
		category = "INSURANCE"
	}
	company := strings.TrimSpace(h.Company)
	if company == "" {
		company = "AN UNSPECIFIED INSURER"
	}

	parts := []string{
		"ACT AS AN EXPERT INSURANCE DATA EXTRACTOR.",
		"EXTRACT DATA FROM THIS " + category + " POLICY ISSUED BY " + company + ".",
		"",
		"DOCUMENT TYPE: Scanned/Digital PDF or Image.",
		"QUALITY: If document is scanned/noisy, perform intensive OCR and deskew in-model.",
		"",
		"STRICT RULES:",
		"1. EXTRACT EXACTLY 29 FIELDS, USING THESE KEYS VERBATIM: " + strings.Join(constants.FieldsAsStringSlice(), "; ") + ".",
		"2. NORMALIZE DATES TO DD-MM-YYYY.",
		"3. NORMALIZE PREMIUMS AND AMOUNTS TO DIGITS ONLY (NO CURRENCY SYMBOLS OR SEPARATORS).",
		"4. IF FIELD NOT FOUND, RETURN \"\".",
		"5. EVERY VALUE IS A STRING. RETURN ONLY THE JSON OBJECT, NO OTHER KEYS OR TEXT.",
	}
	return strings.Join(parts, "\n")
}
