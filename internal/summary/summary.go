// Package summary derives batch-level accuracy figures from task snapshots.
package summary

import (
	"math"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

// Summarize aggregates the done tasks among tasks. It returns nil when no
// task is done. Tasks are only read.
func Summarize(tasks []entity.DocumentTask) *entity.BatchSummary {
	return SummarizeWithThreshold(tasks, constants.VerifiedConfidenceThreshold)
}

// SummarizeWithThreshold is Summarize with a custom verified threshold.
func SummarizeWithThreshold(tasks []entity.DocumentTask, threshold float64) *entity.BatchSummary {
	var (
		n        int
		sum      float64
		findings int
	)
	for _, t := range tasks {
		if t.Status != constants.TaskDone {
			continue
		}
		n++
		sum += t.Confidence
		findings += len(t.Findings)
	}
	if n == 0 {
		return nil
	}

	avg := round1(sum / float64(n))
	status := entity.SummaryIssuesFound
	switch {
	case findings == 0 && avg >= threshold:
		status = entity.SummaryVerified
	case findings == 0:
		status = entity.SummaryLowConfidence
	}
	return &entity.BatchSummary{
		Documents:         n,
		AverageConfidence: avg,
		TotalFindings:     findings,
		Status:            status,
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
