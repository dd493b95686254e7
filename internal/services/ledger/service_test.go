package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
	"github.com/joseph-ayodele/policy-extract/internal/repository"
)

type extractFunc func(ctx context.Context, req llm.ExtractRequest) (entity.Record, []byte, error)

func (f extractFunc) Extract(ctx context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
	return f(ctx, req)
}

func TestListener_RecordsBatchOutcomes(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite, DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	defer db.Close(nil)

	repo := repository.NewExtractJobRepository(db, nil)
	require.NoError(t, repo.Migrate(ctx))
	svc := NewService(repo, "gemini-test", nil)

	b := batch.New(batch.WithListener(svc.Listener()))
	b.Select("Acme General", "Health")
	ids, err := b.Intake(
		entity.SourceFile{Name: "ok.pdf", Data: []byte("%PDF-ok")},
		entity.SourceFile{Name: "bad.png", MIMEType: "image/png", Data: []byte("png")},
	)
	require.NoError(t, err)

	_, err = b.Process(ctx, extractFunc(func(_ context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
		if req.Filename == "bad.png" {
			return entity.Record{}, nil, errors.New("extraction failed: no candidates")
		}
		rec := entity.NewRecord()
		rec.Set(constants.FieldProposerName, "Ravi Kumar")
		return rec, nil, nil
	}))
	require.NoError(t, err)

	rows, err := svc.History(ctx, b.ID(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]entity.ExtractJob{}
	for _, r := range rows {
		byID[r.ID] = r
	}

	ok := byID[ids[0]]
	assert.Equal(t, string(constants.JobStatusDone), ok.Status)
	assert.Equal(t, "Acme General", ok.Company)
	assert.Equal(t, "Health", ok.Category)
	assert.Equal(t, "gemini-test", ok.ModelName)
	assert.Equal(t, len("%PDF-ok"), ok.FileSize)
	assert.Len(t, ok.ContentHash, 64)
	assert.Equal(t, 3, ok.FindingCount, "policy no, final premium and start date missing")
	assert.Equal(t, 3, ok.ErrorCount)

	bad := byID[ids[1]]
	assert.Equal(t, string(constants.JobStatusFailed), bad.Status)
	assert.Equal(t, "image/png", bad.MIMEType)
	require.NotNil(t, bad.ErrorMessage)
	assert.Contains(t, *bad.ErrorMessage, "no candidates")
}

func TestRecord_IgnoresOtherTransitions(t *testing.T) {
	svc := NewService(nil, "", nil)
	assert.NoError(t, svc.Record(context.Background(), batch.Event{To: constants.TaskPending}))
}
