package batch

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
)

// ProcessStats counts what one Process call did.
type ProcessStats struct {
	Claimed int `json:"claimed"`
	Done    int `json:"done"`
	Failed  int `json:"failed"`
	Dropped int `json:"dropped"` // results discarded because the batch was cleared
}

func (s *ProcessStats) add(o ProcessStats) {
	s.Claimed += o.Claimed
	s.Done += o.Done
	s.Failed += o.Failed
	s.Dropped += o.Dropped
}

// Process claims pending tasks in intake order and runs each through the
// extractor until none remain. Extraction failures are recorded on the task;
// the returned error is only ever the context's. Calling it again while
// nothing is pending is a no-op.
func (b *Batch) Process(ctx context.Context, ex llm.Extractor) (ProcessStats, error) {
	var stats ProcessStats
	start := time.Now()
	b.logger.Info("batch.process.start", "batch_id", b.ID())

	for {
		if err := ctx.Err(); err != nil {
			b.logger.Warn("batch.process.cancelled", "error", err, "claimed", stats.Claimed)
			return stats, err
		}
		c, ok := b.ClaimNext()
		if !ok {
			break
		}
		stats.add(b.run(ctx, ex, c))
	}

	b.logger.Info("batch.process.ok",
		"claimed", stats.Claimed,
		"done", stats.Done,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}

// ProcessTask runs one task if it is still pending. It reports whether the
// task was claimed by this call.
func (b *Batch) ProcessTask(ctx context.Context, ex llm.Extractor, id string) (bool, error) {
	c, ok, err := b.ClaimTask(id)
	if err != nil || !ok {
		return false, err
	}
	b.run(ctx, ex, c)
	return true, nil
}

// Run executes an already claimed task. Worker pools claim through ClaimNext
// and hand the claim here.
func (b *Batch) Run(ctx context.Context, ex llm.Extractor, c Claim) ProcessStats {
	return b.run(ctx, ex, c)
}

func (b *Batch) run(ctx context.Context, ex llm.Extractor, c Claim) ProcessStats {
	stats := ProcessStats{Claimed: 1}
	log := b.logger.With("task_id", c.TaskID, "file", c.Source.Name)

	if err := b.Advance(c, constants.ProgressEncoded); err != nil {
		stats.Dropped++
		b.release(c, err)
		log.Warn("batch.task.dropped", "error", err)
		return stats
	}

	rec, _, err := ex.Extract(ctx, llm.ExtractRequest{
		Data:     c.Source.Data,
		MIMEType: c.Source.MIMEType,
		Filename: c.Source.Name,
		Hints:    llm.Hints{Company: c.Selection.Company, Category: c.Selection.Category},
	})

	if err != nil {
		log.Warn("batch.task.failed", "error", err)
		if ferr := b.Fail(c, err.Error()); ferr != nil {
			stats.Dropped++
			b.release(c, ferr)
			log.Warn("batch.task.dropped", "error", ferr)
			return stats
		}
		stats.Failed++
		return stats
	}

	if cerr := b.Complete(c, rec); cerr != nil {
		stats.Dropped++
		b.release(c, cerr)
		if errors.Is(cerr, ErrStaleClaim) {
			log.Info("batch.task.dropped", "reason", "batch cleared")
		} else {
			log.Warn("batch.task.dropped", "error", cerr)
		}
		return stats
	}
	stats.Done++
	log.Info("batch.task.done")
	return stats
}

// release zeroes the claimed source bytes when the batch was cleared while
// the claim was in flight. Clear leaves them to the claim holder.
func (b *Batch) release(c Claim, err error) {
	if errors.Is(err, ErrStaleClaim) {
		clear(c.Source.Data)
	}
}
