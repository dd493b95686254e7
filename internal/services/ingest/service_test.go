package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/async"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	fsingest "github.com/joseph-ayodele/policy-extract/internal/ingest"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func setup(t *testing.T) (*Service, *batch.Batch, *recordingQueue) {
	t.Helper()
	b := batch.New()
	q := &recordingQueue{}
	return NewService(fsingest.NewFSIngestor(nil), b, q, nil), b, q
}

func TestIngestPaths_RequiresSelection(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.IngestPaths(context.Background(), PathIngestRequest{Paths: []string{"x.pdf"}})
	assert.ErrorIs(t, err, batch.ErrSelectionRequired)

	_, err = svc.IngestPaths(context.Background(), PathIngestRequest{})
	assert.ErrorIs(t, err, batch.ErrNoFiles)
}

func TestIngestPaths_FilesAndDirectories(t *testing.T) {
	svc, b, q := setup(t)
	b.Select("Acme", "Motor")

	dir := t.TempDir()
	single := filepath.Join(dir, "single.pdf")
	require.NoError(t, os.WriteFile(single, []byte("%PDF-1.4 one"), 0o600))
	sub := filepath.Join(dir, "batch")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.pdf"), []byte("%PDF-1.4 a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.pdf"), []byte("%PDF-1.4 b"), 0o600))

	res, err := svc.IngestPaths(context.Background(), PathIngestRequest{
		Paths:   []string{single, sub, filepath.Join(dir, "missing.pdf")},
		Process: true,
	})
	require.NoError(t, err)
	assert.Len(t, res.TaskIDs, 3)
	assert.Equal(t, uint32(1), res.Statistics.Failed)

	tasks := b.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"single.pdf", "a.pdf", "b.pdf"},
		[]string{tasks[0].Source.Name, tasks[1].Source.Name, tasks[2].Source.Name})
	assert.Len(t, q.jobs, 1)
}

func TestIngestPaths_NothingReadable(t *testing.T) {
	svc, b, _ := setup(t)
	b.Select("Acme", "Motor")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o600))

	_, err := svc.IngestPaths(context.Background(), PathIngestRequest{Paths: []string{dir}})
	assert.ErrorIs(t, err, ErrNothingIngested)
	assert.Zero(t, b.Len())
}

func TestIngestUploads(t *testing.T) {
	svc, b, _ := setup(t)
	b.Select("Acme", "Health")

	ids, err := svc.IngestUploads(context.Background(), []entity.SourceFile{
		{Name: "scan.jpg", Data: []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0}},
		{Name: "doc.pdf", MIMEType: "text/plain", Data: []byte("%PDF-1.5 x")},
	}, false)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	first, _ := b.Get(ids[0])
	second, _ := b.Get(ids[1])
	assert.Equal(t, "image/jpeg", first.Source.MIMEType)
	assert.Equal(t, "application/pdf", second.Source.MIMEType, "sniffed type wins over declared")
	assert.Equal(t, constants.TaskPending, second.Status)

	_, err = svc.IngestUploads(context.Background(), []entity.SourceFile{{Name: "e.pdf"}}, false)
	assert.ErrorIs(t, err, fsingest.ErrEmptyFile)
}
