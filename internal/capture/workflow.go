package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/internal/autosave"
	"github.com/abdallahh166/Orangesites-sub000/internal/draftstore"
	"github.com/abdallahh166/Orangesites-sub000/internal/wizard"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// ErrBusy is returned for edits made while a submission is in flight.
var ErrBusy = errors.New("submission in progress")

// VisitAPI creates visits on the server.
type VisitAPI interface {
	CreateVisit(ctx context.Context, req domain.CreateVisitRequest, idempotencyKey string) (*domain.VisitCreated, error)
}

// SaveState describes the last persistence attempt.
type SaveState int

const (
	SaveIdle SaveState = iota
	SavePending
	Saving
	Saved
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SavePending:
		return "unsaved changes"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case SaveFailed:
		return "save failed"
	default:
		return "idle"
	}
}

// SaveStatus is what the UI shows next to the draft.
type SaveStatus struct {
	State       SaveState
	LastSavedAt *time.Time
	Err         error
}

// Options tunes a Workflow.
type Options struct {
	// Key is the draft key in the store. Defaults to draftstore.DefaultKey.
	Key string
	// Quiet is the debounce after an edit. Defaults to 2s.
	Quiet time.Duration
	// Background bounds how long a change goes unsaved when the quiet
	// period keeps being pushed back, and is the retry period after a
	// failed save. Defaults to 30s.
	Background time.Duration
	// MapError classifies create-visit failures, typically
	// session.Manager.HandleAPIError.
	MapError func(error) error
	// OnSaveStatus is called from any goroutine when the save status changes.
	OnSaveStatus func(SaveStatus)
	Logger       *zap.Logger
}

const (
	defaultQuiet      = 2 * time.Second
	defaultBackground = 30 * time.Second
)

// Workflow drives one capture from the first edit to submission.
type Workflow struct {
	store    *draftstore.Store
	api      VisitAPI
	key      string
	log      *zap.Logger
	mapErr   func(error) error
	onStatus func(SaveStatus)

	autosave *autosave.Scheduler
	periodic *autosave.Scheduler

	// saveMu serializes writes to the store.
	saveMu sync.Mutex

	mu         sync.Mutex
	draft      domain.Draft
	wiz        *wizard.Controller
	status     SaveStatus
	submitting bool
	closed     bool
	// stored is the id of the draft the store currently holds, if any.
	stored uuid.UUID
}

// NewWorkflow starts a workflow on a fresh draft. Call Restore to resume a
// saved one.
func NewWorkflow(store *draftstore.Store, api VisitAPI, opts Options) *Workflow {
	w := &Workflow{
		store:    store,
		api:      api,
		key:      opts.Key,
		log:      opts.Logger,
		mapErr:   opts.MapError,
		onStatus: opts.OnSaveStatus,
		draft:    domain.NewDraft(),
	}
	if w.key == "" {
		w.key = draftstore.DefaultKey
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	if w.mapErr == nil {
		w.mapErr = func(err error) error { return apperr.Classify(err, apperr.ErrSessionExpired) }
	}
	quiet, background := opts.Quiet, opts.Background
	if quiet <= 0 {
		quiet = defaultQuiet
	}
	if background <= 0 {
		background = defaultBackground
	}
	w.wiz = wizard.New(Steps, func(i int) bool { return CanAdvance(w.draft, i) })
	w.autosave = autosave.New(quiet, w.autoSave)
	w.periodic = autosave.New(background, w.autoSave)
	return w
}

// Restore loads the saved draft, if a usable one exists, and resumes at the
// furthest step its data still supports.
func (w *Workflow) Restore(ctx context.Context) (bool, error) {
	d, ok, err := w.store.Load(ctx, w.key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if d.SubmissionKey == "" {
		d.SubmissionKey = domain.NewSubmissionKey()
	}

	w.mu.Lock()
	w.draft = d
	step := w.wiz.Resume(d.CurrentStep)
	w.draft.CurrentStep = step
	w.status = SaveStatus{State: Saved, LastSavedAt: d.LastSavedAt}
	w.stored = d.ID
	w.mu.Unlock()
	w.log.Info("draft restored", zap.String("draft_id", d.ID.String()), zap.Int("step", step))
	return true, nil
}

// Draft returns a copy of the current draft.
func (w *Workflow) Draft() domain.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// Dispatch applies an edit and schedules a debounced save.
func (w *Workflow) Dispatch(a Action) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrBusy
	}
	w.draft = Reduce(w.draft, a)
	w.mu.Unlock()
	w.markDirty()
	return nil
}

// CurrentStep returns the current step index.
func (w *Workflow) CurrentStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wiz.Current()
}

// Steps returns the wizard steps.
func (w *Workflow) Steps() []wizard.Step {
	return w.wiz.Steps()
}

// StepStatuses returns the derived status of every step.
func (w *Workflow) StepStatuses() []wizard.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wiz.StepStatuses()
}

// CanAdvance evaluates the current step's gate.
func (w *Workflow) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wiz.CanAdvance()
}

// Next moves forward when the current step's gate holds and persists the
// draft right away. A refused move returns ErrValidationFailed and changes
// nothing. A failed save does not fail Next; it shows in SaveStatus.
func (w *Workflow) Next() error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.wiz.IsLast() {
		w.mu.Unlock()
		return fmt.Errorf("%w: review is the last step, submit instead", apperr.ErrValidationFailed)
	}
	step := w.wiz.CurrentStep()
	if !w.wiz.Next() {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s step is incomplete", apperr.ErrValidationFailed, step.ID)
	}
	w.draft.CurrentStep = w.wiz.Current()
	w.mu.Unlock()

	w.autosave.Cancel()
	w.save(context.Background()) //nolint:errcheck // reported through SaveStatus
	return nil
}

// Previous moves one step back.
func (w *Workflow) Previous() bool {
	return w.move(func(c *wizard.Controller) bool { return c.Previous() })
}

// GoTo jumps to step i under the wizard's rules.
func (w *Workflow) GoTo(i int) bool {
	return w.move(func(c *wizard.Controller) bool { return c.GoTo(i) })
}

func (w *Workflow) move(fn func(*wizard.Controller) bool) bool {
	w.mu.Lock()
	if w.submitting || !fn(w.wiz) {
		w.mu.Unlock()
		return false
	}
	w.draft.CurrentStep = w.wiz.Current()
	w.mu.Unlock()
	w.markDirty()
	return true
}

// Submit sends the draft as a new visit. It is only available on the review
// step with every selected component carrying both photos. On success the
// saved draft is discarded and a fresh one begins at the first step. On
// failure the draft is untouched and the error wraps
// apperr.ErrSubmissionFailed.
func (w *Workflow) Submit(ctx context.Context) (*domain.VisitCreated, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return nil, apperr.Wrap(apperr.ErrSubmissionFailed, ErrBusy)
	}
	if w.wiz.Current() != StepReview {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from the review step", apperr.ErrValidationFailed)
	}
	d := w.draft.Clone()
	if err := Validate(d); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitting = true
	w.mu.Unlock()

	// Persist what is being sent so a crash mid-request keeps it.
	w.autosave.Cancel()
	w.save(ctx) //nolint:errcheck // reported through SaveStatus

	created, err := w.api.CreateVisit(ctx, BuildRequest(d), d.SubmissionKey)
	if err != nil {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
		w.log.Warn("visit submission failed", zap.String("draft_id", d.ID.String()), zap.Error(err))
		return nil, apperr.Wrap(apperr.ErrSubmissionFailed, w.mapErr(err))
	}

	w.autosave.Cancel()
	w.periodic.Cancel()
	w.saveMu.Lock()
	if err := w.store.Discard(context.Background(), w.key); err != nil {
		// The server deduplicates a resubmission of the same key.
		w.log.Warn("discard submitted draft", zap.Error(err))
	}
	w.mu.Lock()
	w.draft = domain.NewDraft()
	w.wiz.GoTo(0)
	w.status = SaveStatus{}
	w.stored = uuid.Nil
	w.submitting = false
	status := w.status
	w.mu.Unlock()
	w.saveMu.Unlock()

	w.log.Info("visit submitted", zap.Int64("visit_id", created.VisitID), zap.String("draft_id", d.ID.String()))
	w.notify(status)
	return created, nil
}

// Discard drops the draft, saved and in memory, and starts over.
func (w *Workflow) Discard(ctx context.Context) error {
	w.autosave.Cancel()
	w.periodic.Cancel()
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrBusy
	}
	w.mu.Unlock()

	if err := w.store.Discard(ctx, w.key); err != nil {
		return err
	}
	w.mu.Lock()
	w.draft = domain.NewDraft()
	w.wiz.GoTo(0)
	w.status = SaveStatus{}
	w.stored = uuid.Nil
	status := w.status
	w.mu.Unlock()
	w.log.Info("draft discarded")
	w.notify(status)
	return nil
}

// SaveNow persists the draft immediately, replacing any pending save.
func (w *Workflow) SaveNow(ctx context.Context) error {
	w.autosave.Cancel()
	return w.save(ctx)
}

// SaveStatus returns the outcome of the last save.
func (w *Workflow) SaveStatus() SaveStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Close stops all scheduling and writes the draft one last time. A save
// already running is left to finish.
func (w *Workflow) Close(ctx context.Context) error {
	w.autosave.Stop()
	w.periodic.Stop()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.save(ctx)
}

func (w *Workflow) markDirty() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.status.State = SavePending
	w.status.Err = nil
	status := w.status
	w.mu.Unlock()
	w.autosave.Schedule()
	w.periodic.Arm()
	w.notify(status)
}

func (w *Workflow) autoSave() {
	if err := w.save(context.Background()); err != nil {
		w.log.Warn("autosave failed", zap.Error(err))
	}
}

// save writes the current draft. An empty draft is not written; if the
// store holds an earlier version of it, that version is removed. On failure
// the periodic save stays armed so the write is retried.
func (w *Workflow) save(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	if w.draft.IsEmpty() {
		wasStored := w.stored == w.draft.ID
		w.stored = uuid.Nil
		w.mu.Unlock()
		if wasStored {
			return w.store.Discard(ctx, w.key)
		}
		return nil
	}
	snapshot := w.draft.Clone()
	prev := w.status
	w.status.State = Saving
	w.mu.Unlock()
	w.notify(SaveStatus{State: Saving, LastSavedAt: prev.LastSavedAt})

	saved, err := w.store.Save(ctx, w.key, snapshot)

	w.mu.Lock()
	if err != nil {
		w.status = SaveStatus{State: SaveFailed, LastSavedAt: prev.LastSavedAt, Err: err}
		closed := w.closed
		status := w.status
		w.mu.Unlock()
		if !closed {
			w.periodic.Arm()
		}
		w.notify(status)
		return err
	}
	w.stored = snapshot.ID
	state := Saved
	if w.autosave.Pending() {
		state = SavePending
	}
	w.status = SaveStatus{State: state, LastSavedAt: saved.LastSavedAt}
	status := w.status
	w.mu.Unlock()
	if state == Saved {
		w.periodic.Cancel()
	}
	w.notify(status)
	return nil
}

func (w *Workflow) notify(s SaveStatus) {
	if w.onStatus != nil {
		w.onStatus(s)
	}
}
