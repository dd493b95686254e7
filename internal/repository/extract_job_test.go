package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	return db
}

func newTestRepo(t *testing.T) (*extractJobRepo, *time.Time) {
	t.Helper()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	repo := NewExtractJobRepository(openTestDB(t), nil).(*extractJobRepo)
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.Migrate(context.Background()))
	return repo, &now
}

func job(id, batch string, started time.Time) entity.ExtractJob {
	return entity.ExtractJob{
		ID:          id,
		BatchID:     batch,
		Filename:    id + ".pdf",
		MIMEType:    "application/pdf",
		FileSize:    2048,
		ContentHash: "abc123",
		Company:     "Acme General",
		Category:    "Motor",
		ModelName:   "gemini-2.5-flash",
		StartedAt:   started,
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background(), time.Second, nil))
}

func TestExtractJob_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo, now := newTestRepo(t)
	require.NoError(t, repo.Migrate(ctx), "migrate is repeatable")

	require.NoError(t, repo.Start(ctx, job("t1", "b1", *now)))
	require.NoError(t, repo.Start(ctx, job("t2", "b1", now.Add(time.Second))))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusRunning), got.Status)
	assert.Nil(t, got.Confidence)
	assert.Nil(t, got.FinishedAt)
	assert.Equal(t, 2048, got.FileSize)

	*now = now.Add(time.Minute)
	require.NoError(t, repo.FinishSuccess(ctx, "t1", 98, 2, 1))
	require.NoError(t, repo.FinishFailure(ctx, "t2", "extraction failed: status 503"))

	done, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusDone), done.Status)
	require.NotNil(t, done.Confidence)
	assert.Equal(t, 98.0, *done.Confidence)
	assert.Equal(t, 2, done.FindingCount)
	assert.Equal(t, 1, done.ErrorCount)
	require.NotNil(t, done.FinishedAt)
	assert.True(t, done.FinishedAt.Equal(*now))

	failed, err := repo.Get(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "extraction failed: status 503", *failed.ErrorMessage)
}

func TestExtractJob_UnknownID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	assert.ErrorIs(t, repo.FinishSuccess(ctx, "nope", 98, 0, 0), common.ErrNotFound)
	assert.ErrorIs(t, repo.FinishFailure(ctx, "nope", "x"), common.ErrNotFound)
	_, err := repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExtractJob_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, now := newTestRepo(t)
	base := *now
	require.NoError(t, repo.Start(ctx, job("a", "b1", base)))
	require.NoError(t, repo.Start(ctx, job("b", "b1", base.Add(time.Minute))))
	require.NoError(t, repo.Start(ctx, job("c", "b2", base.Add(2*time.Minute))))

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	b1, err := repo.List(ctx, "b1", 1)
	require.NoError(t, err)
	require.Len(t, b1, 1)
	assert.Equal(t, "b", b1[0].ID)
}
