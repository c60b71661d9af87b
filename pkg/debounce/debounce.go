package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
	"github.com/dmitrymomot/validkit/pkg/logger"
	"github.com/dmitrymomot/validkit/pkg/schema"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

// Executor is the part of asyncvalidate.Controller the debouncer drives.
type Executor interface {
	ExecuteValidator(ctx context.Context, v validation.Validator, value any, vctx validation.Context, opts ...asyncvalidate.Option) (asyncvalidate.Result, error)
	CancelValidation(fieldID string) bool
}

type call struct {
	timer   *time.Timer
	cancel  context.CancelFunc
	done    chan asyncvalidate.Result
	started bool
}

// Debouncer coalesces bursts of validations per field: only the last call
// within the quiet window runs, earlier ones resolve as cancelled.
type Debouncer struct {
	exec    Executor
	wait    time.Duration
	opts    []asyncvalidate.Option
	logger  *slog.Logger
	mu      sync.Mutex
	pending map[string]*call
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithLogger sets the logger for superseded and cancelled calls.
func WithLogger(l *slog.Logger) Option {
	return func(d *Debouncer) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRunOptions applies controller options to every debounced run.
func WithRunOptions(opts ...asyncvalidate.Option) Option {
	return func(d *Debouncer) { d.opts = append(d.opts, opts...) }
}

// New returns a debouncer that waits for wait of quiet before running.
func New(exec Executor, wait time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		exec:    exec,
		wait:    max(wait, 0),
		logger:  logger.Nop(),
		pending: make(map[string]*call),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(logger.Component("debounce"))
	return d
}

// ForSchema returns a debouncer using the schema's debounceMs option.
func ForSchema(exec Executor, form *schema.FormSchema, opts ...Option) *Debouncer {
	var wait time.Duration
	if form != nil {
		wait = form.Options().Debounce()
	}
	return New(exec, wait, opts...)
}

// Wait returns the quiet window.
func (d *Debouncer) Wait() time.Duration {
	return d.wait
}

// Validate schedules v for vctx.FieldPath and blocks until it settles. Any
// scheduled or running validation for the same field is cancelled. A call
// superseded before or while running returns a cancelled result.
func (d *Debouncer) Validate(ctx context.Context, v validation.Validator, value any, vctx validation.Context, opts ...asyncvalidate.Option) asyncvalidate.Result {
	if vctx.FieldPath == "" {
		vctx.FieldPath = asyncvalidate.FormKey
	}
	field := vctx.FieldPath
	runOpts := append(append([]asyncvalidate.Option(nil), d.opts...), opts...)
	runCtx, cancel := context.WithCancel(ctx)
	c := &call{cancel: cancel, done: make(chan asyncvalidate.Result, 1)}

	d.mu.Lock()
	if prev, ok := d.pending[field]; ok {
		d.supersede(prev)
	}
	d.pending[field] = c
	d.exec.CancelValidation(field)
	c.timer = time.AfterFunc(d.wait, func() {
		d.fire(runCtx, c, field, v, value, vctx, runOpts)
	})
	d.mu.Unlock()

	select {
	case res := <-c.done:
		return res
	case <-ctx.Done():
		d.mu.Lock()
		if d.pending[field] == c {
			delete(d.pending, field)
			c.timer.Stop()
		}
		d.mu.Unlock()
		cancel()
		return cancelledResult()
	}
}

// supersede cancels prev and resolves it right away if its timer had not fired.
// A fired call resolves itself once it notices it is no longer pending or its
// run returns cancelled. Callers hold d.mu.
func (d *Debouncer) supersede(prev *call) {
	prev.cancel()
	if !prev.started && prev.timer.Stop() {
		prev.done <- cancelledResult()
	}
}

func (d *Debouncer) fire(ctx context.Context, c *call, field string, v validation.Validator, value any, vctx validation.Context, opts []asyncvalidate.Option) {
	defer c.cancel()

	d.mu.Lock()
	if d.pending[field] != c {
		d.mu.Unlock()
		c.done <- cancelledResult()
		return
	}
	c.started = true
	d.mu.Unlock()

	res, err := d.exec.ExecuteValidator(ctx, v, value, vctx, opts...)
	if err != nil {
		d.logger.ErrorContext(ctx, "debounced validation rejected", logger.Field(field), logger.Error(err))
		res = asyncvalidate.Result{Result: validation.Fail(validation.Error{
			Field:  field,
			Code:   validation.CodeValidationError,
			Params: map[string]any{"error": err.Error()},
		})}
	}

	d.mu.Lock()
	if d.pending[field] == c {
		delete(d.pending, field)
	}
	d.mu.Unlock()
	c.done <- res
}

// Cancel drops the scheduled or running validation of fieldID.
func (d *Debouncer) Cancel(fieldID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.pending[fieldID]
	if !ok {
		return false
	}
	delete(d.pending, fieldID)
	d.supersede(c)
	return true
}

// CancelAll cancels every field and returns how many were pending.
func (d *Debouncer) CancelAll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.pending)
	for field, c := range d.pending {
		delete(d.pending, field)
		d.supersede(c)
	}
	return n
}

// Pending reports whether fieldID has a scheduled or running validation.
func (d *Debouncer) Pending(fieldID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[fieldID]
	return ok
}

// Execute implements validation.AsyncExecutor.
func (d *Debouncer) Execute(ctx context.Context, v validation.Validator, value any, vctx validation.Context) validation.AsyncOutcome {
	return asyncvalidate.Outcome(d.Validate(ctx, v, value, vctx))
}

func cancelledResult() asyncvalidate.Result {
	return asyncvalidate.Result{Result: validation.Pass(), Cancelled: true}
}
