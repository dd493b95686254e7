package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/validation"
)

// Event describes one status transition of a task.
type Event struct {
	BatchID   string
	Selection entity.Selection
	From      constants.TaskStatus
	To        constants.TaskStatus
	Task      entity.DocumentTask // snapshot taken after the transition
}

// Listener observes transitions. Listeners run on the goroutine that made the
// transition, outside the batch lock, and must not block for long.
type Listener func(Event)

// Claim is exclusive ownership of one processing task. It is bound to the
// batch generation it was issued in, so a claim that outlives Clear is stale.
type Claim struct {
	TaskID    string
	Source    entity.SourceFile
	Selection entity.Selection

	generation string
}

// Batch owns the document tasks between intake and clear. It is the only
// writer of task status, progress, record, confidence, findings and error detail.
type Batch struct {
	mu         sync.Mutex
	generation string
	selection  entity.Selection
	tasks      map[string]*entity.DocumentTask
	order      []string

	confidence float64
	engine     *validation.Engine
	now        func() time.Time
	logger     *slog.Logger
	listeners  []Listener
	onClear    []func()
}

type Option func(*Batch)

// WithConfidence overrides the baseline confidence assigned on success.
func WithConfidence(c float64) Option {
	return func(b *Batch) {
		if c >= 0 && c <= 100 {
			b.confidence = c
		}
	}
}

func WithEngine(e *validation.Engine) Option {
	return func(b *Batch) {
		if e != nil {
			b.engine = e
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Batch) {
		if now != nil {
			b.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithListener(l Listener) Option {
	return func(b *Batch) {
		if l != nil {
			b.listeners = append(b.listeners, l)
		}
	}
}

// New returns an empty batch.
func New(opts ...Option) *Batch {
	b := &Batch{
		generation: uuid.NewString(),
		tasks:      make(map[string]*entity.DocumentTask),
		confidence: constants.DefaultConfidence,
		engine:     validation.NewEngine(validation.DefaultRules()...),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// ID identifies the current generation of the batch. It changes on Clear.
func (b *Batch) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// Subscribe adds a transition listener.
func (b *Batch) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// OnClear registers a hook run after every Clear, e.g. to drop queued work.
func (b *Batch) OnClear(fn func()) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.onClear = append(b.onClear, fn)
	b.mu.Unlock()
}

// Select sets the company and policy category used for extraction hints and
// export naming.
func (b *Batch) Select(company, category string) {
	b.mu.Lock()
	b.selection = entity.Selection{Company: company, Category: category}
	b.mu.Unlock()
	b.logger.Info("batch.select", "company", company, "category", category)
}

func (b *Batch) Selection() entity.Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection
}

// Intake appends one pending task per file, in the given order, and returns
// the new ids. Existing tasks are never removed or reordered.
func (b *Batch) Intake(files ...entity.SourceFile) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	b.mu.Lock()
	if !b.selection.Complete() {
		b.mu.Unlock()
		return nil, ErrSelectionRequired
	}
	now := b.now()
	ids := make([]string, 0, len(files))
	for _, f := range files {
		f.MIMEType = constants.NormalizeMIME(f.MIMEType)
		f.Bytes = len(f.Data)
		if f.Checksum == "" {
			sum := sha256.Sum256(f.Data)
			f.Checksum = hex.EncodeToString(sum[:])
		}
		t := &entity.DocumentTask{
			ID:        uuid.NewString(),
			Source:    f,
			Status:    constants.TaskPending,
			Record:    entity.NewRecord(),
			CreatedAt: now,
		}
		b.tasks[t.ID] = t
		b.order = append(b.order, t.ID)
		ids = append(ids, t.ID)
	}
	total := len(b.order)
	b.mu.Unlock()

	b.logger.Info("batch.intake", "added", len(ids), "total", total)
	return ids, nil
}

// SetPageCount records intake metadata on a pending task.
func (b *Batch) SetPageCount(id string, pages int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	t.PageCount = pages
	return nil
}

// Get returns a snapshot of one task.
func (b *Batch) Get(id string) (entity.DocumentTask, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return entity.DocumentTask{}, ErrTaskNotFound
	}
	return snapshot(t), nil
}

// Tasks returns snapshots of every task in intake order.
func (b *Batch) Tasks() []entity.DocumentTask {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.DocumentTask, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, snapshot(b.tasks[id]))
	}
	return out
}

// Done returns snapshots of done tasks in intake order.
func (b *Batch) Done() []entity.DocumentTask {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []entity.DocumentTask
	for _, id := range b.order {
		if t := b.tasks[id]; t.Status == constants.TaskDone {
			out = append(out, snapshot(t))
		}
	}
	return out
}

// Len is the number of tasks in the batch.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// ClaimNext moves the earliest pending task to processing.
func (b *Batch) ClaimNext() (Claim, bool) {
	b.mu.Lock()
	for _, id := range b.order {
		t := b.tasks[id]
		if t.Status != constants.TaskPending {
			continue
		}
		c, ev := b.claimLocked(t)
		b.mu.Unlock()
		b.emit(ev)
		return c, true
	}
	b.mu.Unlock()
	return Claim{}, false
}

// ClaimTask claims a specific task. A task that is not pending is left
// alone and reported as not claimed.
func (b *Batch) ClaimTask(id string) (Claim, bool, error) {
	b.mu.Lock()
	t, ok := b.tasks[id]
	if !ok {
		b.mu.Unlock()
		return Claim{}, false, ErrTaskNotFound
	}
	if t.Status != constants.TaskPending {
		b.mu.Unlock()
		return Claim{}, false, nil
	}
	c, ev := b.claimLocked(t)
	b.mu.Unlock()
	b.emit(ev)
	return c, true, nil
}

func (b *Batch) claimLocked(t *entity.DocumentTask) (Claim, Event) {
	from := t.Status
	t.Status = constants.TaskProcessing
	t.Progress = constants.ProgressClaimed
	c := Claim{
		TaskID:     t.ID,
		Source:     t.Source,
		Selection:  b.selection,
		generation: b.generation,
	}
	return c, b.eventLocked(from, t)
}

// Advance raises the progress of a claimed task. Lower values are ignored.
func (b *Batch) Advance(c Claim, progress int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.ownedLocked(c, constants.TaskProcessing)
	if err != nil {
		return err
	}
	if progress > constants.ProgressComplete {
		progress = constants.ProgressComplete
	}
	if progress > t.Progress {
		t.Progress = progress
	}
	return nil
}

// Complete stores the extracted record, validates it and marks the task done.
func (b *Batch) Complete(c Claim, rec entity.Record) error {
	findings := b.engine.Validate(rec)

	b.mu.Lock()
	t, err := b.ownedLocked(c, constants.TaskDone)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	now := b.now()
	t.Status = constants.TaskDone
	t.Record = rec
	t.Findings = findings
	t.Progress = constants.ProgressComplete
	t.Confidence = b.confidence
	t.ErrorDetail = ""
	t.FinishedAt = &now
	ev := b.eventLocked(constants.TaskProcessing, t)
	b.mu.Unlock()

	b.emit(ev)
	return nil
}

// Fail marks a claimed task as failed with a human-readable detail.
func (b *Batch) Fail(c Claim, detail string) error {
	b.mu.Lock()
	t, err := b.ownedLocked(c, constants.TaskError)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	now := b.now()
	t.Status = constants.TaskError
	t.ErrorDetail = detail
	t.Progress = 0
	t.FinishedAt = &now
	ev := b.eventLocked(constants.TaskProcessing, t)
	b.mu.Unlock()

	b.emit(ev)
	return nil
}

// ownedLocked resolves a claim to its task and checks that the task may move
// to next. Passing TaskProcessing checks ownership without a transition.
func (b *Batch) ownedLocked(c Claim, next constants.TaskStatus) (*entity.DocumentTask, error) {
	if c.generation != b.generation {
		return nil, ErrStaleClaim
	}
	t, ok := b.tasks[c.TaskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if t.Status != constants.TaskProcessing ||
		(next != constants.TaskProcessing && !CanTransition(t.Status, next)) {
		return nil, fmt.Errorf("%w: task %s is %s", ErrInvalidTransition, t.ID, t.Status)
	}
	return t, nil
}

// Clear wipes the batch: source bytes are zeroed, every task and the
// selection are dropped, and the generation rotates so that ids and claims
// from before the wipe are rejected. Bytes of a task that is being extracted
// still belong to its claim; the claim holder zeroes them once its result is
// rejected as stale.
func (b *Batch) Clear() {
	b.mu.Lock()
	n := len(b.order)
	for _, t := range b.tasks {
		if t.Status != constants.TaskProcessing {
			clear(t.Source.Data)
		}
		t.Source.Data = nil
		t.Record = entity.NewRecord()
		t.Findings = nil
	}
	b.tasks = make(map[string]*entity.DocumentTask)
	b.order = nil
	b.selection = entity.Selection{}
	b.generation = uuid.NewString()
	hooks := append([]func(){}, b.onClear...)
	b.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	b.logger.Info("batch.clear", "wiped", n)
}

func (b *Batch) eventLocked(from constants.TaskStatus, t *entity.DocumentTask) Event {
	return Event{BatchID: b.generation, Selection: b.selection, From: from, To: t.Status, Task: snapshot(t)}
}

func (b *Batch) emit(ev Event) {
	b.mu.Lock()
	ls := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}

// snapshot copies a task without its source bytes.
func snapshot(t *entity.DocumentTask) entity.DocumentTask {
	cp := *t
	cp.Source.Data = nil
	if t.Findings != nil {
		cp.Findings = append([]entity.Finding(nil), t.Findings...)
	}
	if t.FinishedAt != nil {
		ts := *t.FinishedAt
		cp.FinishedAt = &ts
	}
	return cp
}
