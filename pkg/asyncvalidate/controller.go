package asyncvalidate

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/validkit/pkg/async"
	"github.com/dmitrymomot/validkit/pkg/logger"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

// FormKey is the single-flight key used by Execute for validators that run at
// form level (empty field path).
const FormKey = "$form"

type scopeKey struct{}

// WithScope returns a context whose runs are tracked apart from runs started
// under any other scope. Runs of the same field in different scopes never
// supersede each other, and CancelValidation(field) only reaches unscoped runs.
// Use one scope per submitted record so concurrent submissions stay isolated.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// flightKey is the single-flight table key of fieldID for runs started under ctx.
func flightKey(ctx context.Context, fieldID string) string {
	if scope, ok := ctx.Value(scopeKey{}).(string); ok && scope != "" {
		return scope + "/" + fieldID
	}
	return fieldID
}

// Result is the outcome of one controlled run.
type Result struct {
	validation.Result
	ValidationID  uuid.UUID
	TimedOut      bool
	Cancelled     bool
	Duration      time.Duration
	RetryAttempts int
}

// State describes the in-flight run of a field.
type State struct {
	ValidationID   uuid.UUID
	CurrentAttempt int
	StartTime      time.Time
}

// Observer receives attempt and result notifications. Every run reports
// attempt 1 and exactly one result. Calls happen on the validating goroutine
// and must not block.
type Observer interface {
	ObserveAttempt(fieldID string, attempt int)
	ObserveResult(fieldID string, res Result)
}

type flight struct {
	State
	cancel context.CancelCauseFunc
}

// Controller runs validators under a timeout and retry policy and keeps at
// most one run per field identifier. Safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	flights  map[string]*flight
	policy   Policy
	logger   *slog.Logger
	observer Observer
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger for retries, failures and discarded results.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultPolicy sets the policy used when a call passes no options.
func WithDefaultPolicy(p Policy) ControllerOption {
	return func(c *Controller) { c.policy = p }
}

// WithObserver reports every attempt and result to o, e.g. a metrics.Observer.
func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) { c.observer = o }
}

// New returns a Controller using DefaultPolicy unless WithDefaultPolicy is given.
func New(opts ...ControllerOption) *Controller {
	c := &Controller{
		flights: make(map[string]*flight),
		policy:  DefaultPolicy(),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("asyncvalidate"))
	return c
}

// ExecuteValidator runs v for the field named by vctx.FieldPath. Timeouts,
// exhausted retries and cancellation are reported through Result; the error
// return is reserved for a nil validator or an empty field path.
//
// Only faults classified as network faults are retried. A validator that
// returns a failed Result is final on the first attempt.
func (c *Controller) ExecuteValidator(ctx context.Context, v validation.Validator, value any, vctx validation.Context, opts ...Option) (Result, error) {
	if v == nil {
		return Result{}, ErrNilValidator
	}
	if vctx.FieldPath == "" {
		return Result{}, ErrEmptyFieldID
	}
	return c.execute(ctx, vctx.FieldPath, v, value, vctx, opts), nil
}

func (c *Controller) execute(ctx context.Context, fieldID string, v validation.Validator, value any, vctx validation.Context, opts []Option) Result {
	p := c.policy
	for _, opt := range opts {
		opt(&p)
	}
	p.MaxRetries = max(p.MaxRetries, 0)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	fl := &flight{
		State:  State{ValidationID: uuid.New(), StartTime: time.Now()},
		cancel: cancel,
	}
	key := flightKey(ctx, fieldID)
	c.start(key, fl, p.CancelPrevious)
	runCtx = logger.ContextWithRun(runCtx, fieldID, fl.ValidationID)

	res := c.run(runCtx, key, fieldID, fl, v, value, vctx, p)
	res.ValidationID = fl.ValidationID
	res.Duration = time.Since(fl.StartTime)

	if !c.finish(key, fl.ValidationID) && !res.Cancelled {
		c.logger.DebugContext(ctx, "discarding stale async result",
			logger.Field(fieldID),
			logger.ValidationID(fl.ValidationID),
		)
		res = cancelled(res)
	}

	if c.observer != nil {
		c.observer.ObserveResult(fieldID, res)
	}
	return res
}

// start registers fl as the current run for fieldID, cancelling the previous
// one when asked to.
func (c *Controller) start(fieldID string, fl *flight, cancelPrevious bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.flights[fieldID]; ok && cancelPrevious {
		prev.cancel(ErrSuperseded)
	}
	c.flights[fieldID] = fl
}

// finish removes the state of fieldID if it still belongs to id and reports
// whether it did, i.e. whether the run's result is still current.
func (c *Controller) finish(fieldID string, id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.flights[fieldID]
	if !ok || cur.ValidationID != id {
		return false
	}
	delete(c.flights, fieldID)
	return true
}

func (c *Controller) setAttempt(fieldID string, id uuid.UUID, attempt int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.flights[fieldID]; ok && cur.ValidationID == id {
		cur.CurrentAttempt = attempt
	}
}

func (c *Controller) run(ctx context.Context, key, fieldID string, fl *flight, v validation.Validator, value any, vctx validation.Context, p Policy) Result {
	var (
		lastErr error
		attempt int
	)
	for attempt = 0; attempt <= p.MaxRetries; attempt++ {
		c.setAttempt(key, fl.ValidationID, attempt)
		if c.observer != nil {
			c.observer.ObserveAttempt(fieldID, attempt+1)
		}
		if ctx.Err() != nil {
			return cancelled(Result{RetryAttempts: attempt})
		}

		res, err := c.attempt(ctx, v, value, vctx, p.Timeout)
		if ctx.Err() != nil {
			return cancelled(Result{RetryAttempts: attempt})
		}
		if err == nil {
			return Result{Result: res, RetryAttempts: attempt}
		}

		lastErr = err
		kind, status := Classify(err)
		c.logger.DebugContext(ctx, "async validation attempt failed",
			logger.Attempt(attempt+1),
			slog.String("kind", kind.String()),
			slog.Int("status", status),
			logger.Error(err),
		)
		if !IsRetryable(kind) || attempt == p.MaxRetries {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return cancelled(Result{RetryAttempts: attempt})
		case <-timer.C:
		}
	}
	if attempt > p.MaxRetries {
		attempt = p.MaxRetries
	}

	res := c.terminal(lastErr, attempt, vctx, p)
	c.logger.WarnContext(ctx, "async validation failed",
		logger.RetryCount(attempt),
		logger.ErrorCode(res.Errors[0].Code),
		logger.Error(lastErr),
	)
	return res
}

// attempt races one validator call against the per-attempt timeout.
func (c *Controller) attempt(ctx context.Context, v validation.Validator, value any, vctx validation.Context, timeout time.Duration) (validation.Result, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return async.Go(attemptCtx, func(ctx context.Context) (validation.Result, error) {
		return validation.Invoke(ctx, v, value, vctx)
	}).Wait(attemptCtx)
}

func (c *Controller) terminal(err error, attempts int, vctx validation.Context, p Policy) Result {
	kind, status := Classify(err)
	switch {
	case kind == KindTimeout:
		params := map[string]any{"timeout": p.Timeout.String(), "retryAttempts": attempts}
		return Result{
			Result:        failure(vctx, validation.CodeValidationTimeout, params),
			TimedOut:      true,
			RetryAttempts: attempts,
		}
	case isNetworkFault(err):
		params := map[string]any{"errorType": kind.String(), "statusCode": status, "retryAttempts": attempts}
		return Result{
			Result:        failure(vctx, validation.CodeNetworkError, params),
			RetryAttempts: attempts,
		}
	default:
		params := map[string]any{"error": err.Error()}
		return Result{
			Result:        failure(vctx, validation.CodeValidationError, params),
			RetryAttempts: attempts,
		}
	}
}

func failure(vctx validation.Context, code string, params map[string]any) validation.Result {
	return validation.Fail(validation.Error{
		Field:   vctx.FieldPath,
		Code:    code,
		Message: vctx.Message(code, params),
		Params:  params,
	})
}

func cancelled(res Result) Result {
	res.Result = validation.Pass()
	res.Cancelled = true
	res.TimedOut = false
	return res
}

// CancelValidation stops the in-flight run for fieldID and removes its state.
// It reports whether a run was active.
func (c *Controller) CancelValidation(fieldID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fl, ok := c.flights[fieldID]
	if !ok {
		return false
	}
	delete(c.flights, fieldID)
	fl.cancel(ErrCancelled)
	return true
}

// CancelAllValidations cancels every in-flight run and returns how many there were.
func (c *Controller) CancelAllValidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.flights)
	for id, fl := range c.flights {
		fl.cancel(ErrCancelled)
		delete(c.flights, id)
	}
	return n
}

// IsValidating reports whether fieldID has an in-flight run.
func (c *Controller) IsValidating(fieldID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flights[fieldID]
	return ok
}

// ActiveValidations returns the field identifiers with an in-flight run, sorted.
// Runs started under WithScope are listed as "scope/field".
func (c *Controller) ActiveValidations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.flights))
	for id := range c.flights {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// State returns a snapshot of the in-flight run for fieldID.
func (c *Controller) State(fieldID string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fl, ok := c.flights[fieldID]
	if !ok {
		return State{}, false
	}
	return fl.State, true
}

// Execute implements validation.AsyncExecutor with the default policy.
func (c *Controller) Execute(ctx context.Context, v validation.Validator, value any, vctx validation.Context) validation.AsyncOutcome {
	return c.Executor().Execute(ctx, v, value, vctx)
}

// Executor returns a validation.AsyncExecutor that applies opts to every run.
func (c *Controller) Executor(opts ...Option) validation.AsyncExecutor {
	return executor{c: c, opts: opts}
}

type executor struct {
	c    *Controller
	opts []Option
}

func (e executor) Execute(ctx context.Context, v validation.Validator, value any, vctx validation.Context) validation.AsyncOutcome {
	if v == nil {
		return validation.AsyncOutcome{Result: failure(vctx, validation.CodeValidationError,
			map[string]any{"error": ErrNilValidator.Error()})}
	}
	key := vctx.FieldPath
	if key == "" {
		key = FormKey
	}
	res := e.c.execute(ctx, key, v, value, vctx, e.opts)
	return Outcome(res)
}

// Outcome converts a controller result into the engine's form.
func Outcome(res Result) validation.AsyncOutcome {
	return validation.AsyncOutcome{
		Result:    res.Result,
		Cancelled: res.Cancelled,
		TimedOut:  res.TimedOut,
	}
}

// Cause reports why ctx was cancelled when it belongs to a controlled run:
// ErrSuperseded, ErrCancelled or the parent's error.
func Cause(ctx context.Context) error {
	err := context.Cause(ctx)
	if errors.Is(err, ErrSuperseded) || errors.Is(err, ErrCancelled) {
		return err
	}
	return ctx.Err()
}
