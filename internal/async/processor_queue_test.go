package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
)

type extractFunc func(ctx context.Context, req llm.ExtractRequest) (entity.Record, []byte, error)

func (f extractFunc) Extract(ctx context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
	return f(ctx, req)
}

type countingExtractor struct {
	mu    sync.Mutex
	seen  map[string]int
	delay time.Duration
}

func (c *countingExtractor) Extract(_ context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
	time.Sleep(c.delay)
	c.mu.Lock()
	c.seen[req.Filename]++
	c.mu.Unlock()
	rec := entity.NewRecord()
	rec.Set(constants.FieldPolicyNo, req.Filename)
	return rec, nil, nil
}

func newBatch(t *testing.T, n int) (*batch.Batch, []string) {
	t.Helper()
	b := batch.New()
	b.Select("Acme", "Motor")
	var files []entity.SourceFile
	for i := 0; i < n; i++ {
		files = append(files, entity.SourceFile{Name: string(rune('a'+i)) + ".pdf", Data: []byte{byte(i)}})
	}
	ids, err := b.Intake(files...)
	require.NoError(t, err)
	return b, ids
}

func TestProcessorQueue_DrainsWithWorkerPool(t *testing.T) {
	b, _ := newBatch(t, 12)
	ex := &countingExtractor{seen: map[string]int{}, delay: time.Millisecond}
	q := NewProcessorQueue(b, ex, nil, WithWorkers(4))

	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Len(t, b.Done(), 12)
	assert.Len(t, ex.seen, 12)
	for name, n := range ex.seen {
		assert.Equal(t, 1, n, name)
	}
}

func TestProcessorQueue_SingleTask(t *testing.T) {
	b, ids := newBatch(t, 2)
	ex := &countingExtractor{seen: map[string]int{}}
	q := NewProcessorQueue(b, ex, nil)

	require.NoError(t, q.Enqueue(context.Background(), Job{TaskID: ids[1]}))
	require.NoError(t, q.Enqueue(context.Background(), Job{TaskID: "unknown"}))
	q.Shutdown(context.Background())

	first, _ := b.Get(ids[0])
	second, _ := b.Get(ids[1])
	assert.Equal(t, constants.TaskPending, first.Status)
	assert.Equal(t, constants.TaskDone, second.Status)
}

func TestProcessorQueue_RejectsAfterShutdown(t *testing.T) {
	b, _ := newBatch(t, 1)
	q := NewProcessorQueue(b, &countingExtractor{seen: map[string]int{}}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{}), ErrQueueClosed)
}

func TestProcessorQueue_ClearDiscardsQueuedJobs(t *testing.T) {
	b, _ := newBatch(t, 1)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	ex := extractFunc(func(_ context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return entity.NewRecord(), nil, nil
	})
	q := NewProcessorQueue(b, ex, nil)

	require.NoError(t, q.Enqueue(context.Background(), Job{}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), Job{}))

	b.Clear()
	b.Select("Acme", "Health")
	ids, err := b.Intake(entity.SourceFile{Name: "fresh.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)

	close(release)
	q.Shutdown(context.Background())

	mu.Lock()
	assert.Equal(t, 1, calls, "the job queued before the clear never runs")
	mu.Unlock()
	task, err := b.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, constants.TaskPending, task.Status)
}
