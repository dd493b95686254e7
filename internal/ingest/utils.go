package ingest

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/policy-extract/constants"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// DetectMIME sniffs content and accepts it only when it is a supported
// document type. The extension is the fallback when sniffing is inconclusive.
func DetectMIME(name string, data []byte) (string, bool) {
	sniffed := constants.NormalizeMIME(http.DetectContentType(data))
	for _, m := range constants.AllowedExtensions {
		if m == sniffed {
			return sniffed, true
		}
	}
	if sniffed != "application/octet-stream" {
		return "", false
	}
	ext := filepath.Ext(name)
	if !AllowedExt(ext) {
		return "", false
	}
	return constants.MIMEForExt(ext), true
}

// PageCount reads the page count of a PDF.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
