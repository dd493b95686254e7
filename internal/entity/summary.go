package entity

import "fmt"

// SummaryStatus is the qualitative tag of a batch summary.
type SummaryStatus string

const (
	// SummaryVerified: no findings and mean confidence at or above the threshold.
	SummaryVerified SummaryStatus = "fully_verified"
	// SummaryLowConfidence: no findings, but mean confidence below the threshold.
	SummaryLowConfidence SummaryStatus = "low_confidence"
	// SummaryIssuesFound: at least one finding.
	SummaryIssuesFound SummaryStatus = "issues_found"
)

// BatchSummary is derived from the done tasks of a batch and never stored.
type BatchSummary struct {
	Documents         int           `json:"documents"`
	AverageConfidence float64       `json:"average_confidence"`
	TotalFindings     int           `json:"total_findings"`
	Status            SummaryStatus `json:"status"`
}

// Label renders the outcome for display.
func (s BatchSummary) Label() string {
	switch s.TotalFindings {
	case 0:
		return "Verified Successful"
	case 1:
		return "1 Issue Found"
	default:
		return fmt.Sprintf("%d Issues Found", s.TotalFindings)
	}
}
