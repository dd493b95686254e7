package constants

import (
	"mime"
	"strings"
)

// DefaultMIMEType is assumed when a source file declares no type.
const DefaultMIMEType = "application/pdf"

// AllowedExtensions holds the file extensions accepted by directory intake.
var AllowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMEForExt resolves a MIME type for an extension, preferring the
// intake table and falling back to the platform registry.
func MIMEForExt(ext string) string {
	ext = NormalizeExt(ext)
	if mt, ok := AllowedExtensions[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		return mt
	}
	return ""
}

// NormalizeMIME strips parameters and lowercases; empty becomes the default.
func NormalizeMIME(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return DefaultMIMEType
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return strings.ToLower(mt)
}

// IsPDF reports whether mt names a PDF document.
func IsPDF(mt string) bool {
	return NormalizeMIME(mt) == "application/pdf"
}
