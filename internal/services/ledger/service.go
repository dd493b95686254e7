package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/repository"
)

// Service records batch transitions in the extract_job ledger.
type Service struct {
	repo      repository.ExtractJobRepository
	modelName string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewService(repo repository.ExtractJobRepository, modelName string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, modelName: modelName, timeout: 5 * time.Second, logger: logger}
}

// Listener adapts the service to batch transition events. Ledger failures
// are logged and never affect the batch.
func (s *Service) Listener() batch.Listener {
	return func(ev batch.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.Record(ctx, ev); err != nil {
			s.logger.Warn("ledger.record.failed", "task_id", ev.Task.ID, "to", ev.To, "error", err)
		}
	}
}

// Record writes one transition.
func (s *Service) Record(ctx context.Context, ev batch.Event) error {
	t := ev.Task
	switch ev.To {
	case constants.TaskProcessing:
		return s.repo.Start(ctx, entity.ExtractJob{
			ID:          t.ID,
			BatchID:     ev.BatchID,
			Filename:    t.Source.Name,
			MIMEType:    t.Source.MIMEType,
			FileSize:    t.Source.Size(),
			ContentHash: t.Source.Checksum,
			Company:     ev.Selection.Company,
			Category:    ev.Selection.Category,
			ModelName:   s.modelName,
		})
	case constants.TaskDone:
		return s.repo.FinishSuccess(ctx, t.ID, t.Confidence, len(t.Findings), t.ErrorCount())
	case constants.TaskError:
		return s.repo.FinishFailure(ctx, t.ID, t.ErrorDetail)
	}
	return nil
}

// History lists ledger rows for a batch, newest first.
func (s *Service) History(ctx context.Context, batchID string, limit int) ([]entity.ExtractJob, error) {
	return s.repo.List(ctx, batchID, limit)
}
