package async

import (
	"context"
	"time"
)

// Job asks the queue to process a batch. An empty TaskID drains every
// pending task of the batch generation it starts in; otherwise only that
// task is processed.
type Job struct {
	TaskID      string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
