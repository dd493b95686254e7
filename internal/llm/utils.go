package llm

import (
	"encoding/base64"

	"github.com/joseph-ayodele/policy-extract/constants"
)

// EncodeBase64 returns the standard base64 form of a document.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURL packs a document into a data: URL for providers that take inline files.
func DataURL(data []byte, mimeType string) string {
	return "data:" + constants.NormalizeMIME(mimeType) + ";base64," + EncodeBase64(data)
}
