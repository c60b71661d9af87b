package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"strconv"

	"github.com/dmitrymomot/validkit/internal/lru"
	"github.com/dmitrymomot/validkit/pkg/logger"
	"github.com/dmitrymomot/validkit/pkg/schema"
)

// AsyncOutcome is what an AsyncExecutor reports back to the engine.
type AsyncOutcome struct {
	Result    Result
	Cancelled bool
	TimedOut  bool
}

// AsyncExecutor runs validators flagged asynchronous. The async controller and
// the debouncer implement it.
type AsyncExecutor interface {
	Execute(ctx context.Context, v Validator, value any, vctx Context) AsyncOutcome
}

// Engine evaluates fields and forms against schemas using a Registry.
type Engine struct {
	registry *Registry
	async    AsyncExecutor
	logger   *slog.Logger
	strict   bool
	resolve  MessageResolver
	bindings *lru.Cache[string, Validator]
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithAsyncExecutor routes async validators through exec. Without one they run inline.
func WithAsyncExecutor(exec AsyncExecutor) EngineOption {
	return func(e *Engine) { e.async = exec }
}

// WithLogger sets the logger for skipped validators and faults.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStrictMode turns unknown validator types into unknownValidator errors
// instead of skipping them.
func WithStrictMode(strict bool) EngineOption {
	return func(e *Engine) { e.strict = strict }
}

// WithMessageResolver sets the fallback resolver used after the context's own.
func WithMessageResolver(r MessageResolver) EngineOption {
	return func(e *Engine) { e.resolve = r }
}

// WithBindingCache caches validators bound from factories, keyed by type and params.
// A size of zero or less disables the cache.
func WithBindingCache(size int) EngineOption {
	return func(e *Engine) {
		if size > 0 {
			e.bindings = lru.New[string, Validator](size, 0)
		} else {
			e.bindings = nil
		}
	}
}

// WithConfig applies an environment-loaded Config.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		WithStrictMode(cfg.Strict)(e)
		WithBindingCache(cfg.BindingCacheSize)(e)
	}
}

// NewEngine returns an engine resolving validator types from registry.
func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	e := &Engine{
		registry: registry,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("validation"))
	return e
}

// Registry returns the registry the engine resolves validator types from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

type specOutcome int

const (
	outcomeRan specOutcome = iota
	outcomeSkipped
	outcomeCancelled
)

// ValidateField runs a field's validators against value. Empty values short-circuit:
// a required field fails with a single required error, an optional one passes unchanged.
// Validator faults are converted to validationError entries and never returned.
func (e *Engine) ValidateField(ctx context.Context, value any, field schema.FieldSchema, vctx Context) Result {
	if IsEmpty(value) {
		if !field.IsRequired() {
			return PassWith(value)
		}
		spec := schema.ValidatorSpec{Type: CodeRequired}
		for _, v := range field.Validators {
			if v.Type == schema.RequiredType {
				spec = v
				break
			}
		}
		return Fail(e.render(spec, vctx, Errors{{Code: CodeRequired}})...)
	}

	var (
		errs    Errors
		warns   Errors
		current = value
	)
	for _, spec := range field.Validators {
		if spec.Type == schema.RequiredType {
			continue
		}
		if ctx.Err() != nil {
			errs, warns = e.cancelled(vctx, spec, errs, warns)
			break
		}

		res, outcome := e.runSpec(ctx, spec, current, vctx)
		if outcome == outcomeSkipped {
			continue
		}
		warns = append(warns, e.render(spec, vctx, res.Warnings)...)
		if outcome == outcomeCancelled {
			errs, warns = e.cancelled(vctx, spec, errs, warns)
			break
		}
		if len(res.Errors) > 0 {
			errs = append(errs, e.render(spec, vctx, res.Errors)...)
			if vctx.Options.AbortEarlyEnabled() {
				break
			}
			continue
		}
		if res.Data != nil {
			current = res.Data
		}
	}

	return Result{Data: current, Errors: errs, Warnings: warns}.normalize()
}

// ValidateForm validates data against form. The first vctx, if given, supplies
// the resolver, submit flag, a parent field path and option overrides.
func (e *Engine) ValidateForm(ctx context.Context, data map[string]any, form *schema.FormSchema, vctx ...Context) Result {
	var base Context
	if len(vctx) > 0 {
		base = vctx[0]
	}
	if form == nil {
		return Fail(e.render(schema.ValidatorSpec{}, base, Errors{{
			Field:  base.FieldPath,
			Code:   CodeSchemaParseError,
			Params: map[string]any{"error": ErrNilSchema.Error()},
		}})...)
	}

	opts := form.Options().Merge(base.Options)
	base.Options = opts
	base.FormData = data

	var (
		errs      Errors
		warns     Errors
		validated = make(map[string]any, form.Len())
	)
	for _, fld := range form.Fields() {
		fctx := base.WithField(joinPath(base.FieldPath, fld.Name))
		value, present := data[fld.Name]

		res := e.ValidateField(ctx, value, fld.Schema, fctx)
		warns = append(warns, res.Warnings...)
		if !res.Success {
			errs = append(errs, res.Errors...)
			if opts.AbortEarlyEnabled() {
				break
			}
			continue
		}
		if present || res.Data != nil {
			validated[fld.Name] = res.Data
		}
	}

	if len(errs) == 0 || !opts.AbortEarlyEnabled() {
		for _, spec := range form.FormValidators() {
			if ctx.Err() != nil {
				errs, warns = e.cancelled(base, spec, errs, warns)
				break
			}
			res, outcome := e.runSpec(ctx, spec, maps.Clone(validated), base)
			if outcome == outcomeSkipped {
				continue
			}
			warns = append(warns, e.render(spec, base, res.Warnings)...)
			if outcome == outcomeCancelled {
				errs, warns = e.cancelled(base, spec, errs, warns)
				break
			}
			if len(res.Errors) > 0 {
				errs = append(errs, e.render(spec, base, res.Errors)...)
				if opts.AbortEarlyEnabled() {
					break
				}
				continue
			}
			if m, ok := res.Data.(map[string]any); ok {
				validated = m
			}
		}
	}

	out := validated
	if !opts.StripsUnknown() {
		out = maps.Clone(data)
		if out == nil {
			out = make(map[string]any, len(validated))
		}
		maps.Copy(out, validated)
	}
	return Result{Data: out, Errors: errs, Warnings: warns}.normalize()
}

// ValidateFromSchema validates data against a live schema (*schema.FormSchema or
// schema.FormSchema) or a serialized JSON one ([]byte or string). A schema that
// cannot be decoded yields a single schemaParseError.
func (e *Engine) ValidateFromSchema(ctx context.Context, data map[string]any, src any, vctx ...Context) Result {
	var (
		form *schema.FormSchema
		err  error
	)
	switch s := src.(type) {
	case *schema.FormSchema:
		form = s
	case schema.FormSchema:
		form = &s
	case []byte:
		form, err = schema.Deserialize(s)
	case string:
		form, err = schema.Deserialize([]byte(s))
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedSchema, src)
	}
	if err != nil {
		var base Context
		if len(vctx) > 0 {
			base = vctx[0]
		}
		e.logger.WarnContext(ctx, "schema parse failed", logger.Error(err))
		return Fail(e.render(schema.ValidatorSpec{}, base, Errors{{
			Field:  base.FieldPath,
			Code:   CodeSchemaParseError,
			Params: map[string]any{"error": err.Error()},
		}})...)
	}
	return e.ValidateForm(ctx, data, form, vctx...)
}

// SerializeSchema encodes form as JSON.
func (e *Engine) SerializeSchema(form *schema.FormSchema) ([]byte, error) {
	return schema.Serialize(form)
}

// DeserializeSchema decodes a JSON schema.
func (e *Engine) DeserializeSchema(data []byte) (*schema.FormSchema, error) {
	return schema.Deserialize(data)
}

func (e *Engine) runSpec(ctx context.Context, spec schema.ValidatorSpec, value any, vctx Context) (Result, specOutcome) {
	entry, ok := e.registry.Entry(spec.Type)
	if !ok {
		if e.strict {
			return vctx.Fail(CodeUnknownValidator, map[string]any{"type": spec.Type}), outcomeRan
		}
		e.logger.WarnContext(ctx, "unknown validator type skipped",
			logger.Field(vctx.FieldPath),
			logger.ValidatorType(spec.Type),
		)
		return Result{}, outcomeSkipped
	}

	v, err := e.bind(entry, spec.Params)
	if err != nil {
		return e.fault(ctx, spec, vctx, err), outcomeRan
	}

	if (spec.Async || entry.IsAsync) && e.async != nil {
		out := e.async.Execute(ctx, v, value, vctx)
		if out.Cancelled {
			return out.Result, outcomeCancelled
		}
		return out.Result, outcomeRan
	}

	res, err := Invoke(ctx, v, value, vctx)
	if err != nil {
		return e.fault(ctx, spec, vctx, err), outcomeRan
	}
	return res, outcomeRan
}

func (e *Engine) fault(ctx context.Context, spec schema.ValidatorSpec, vctx Context, err error) Result {
	e.logger.WarnContext(ctx, "validator fault",
		logger.Field(vctx.FieldPath),
		logger.ValidatorType(spec.Type),
		logger.Error(err),
	)
	return vctx.Fail(CodeValidationError, map[string]any{"error": err.Error()})
}

// Invoke calls v, converting a panic into an ErrValidatorPanic fault and a
// failed result without errors into a single error carrying no code.
func Invoke(ctx context.Context, v Validator, value any, vctx Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrValidatorPanic, r, debug.Stack())
		}
	}()
	res, err = v(ctx, value, vctx)
	if err != nil {
		return Result{}, err
	}
	if !res.Success && len(res.Errors) == 0 {
		res.Errors = Errors{{}}
	}
	return res.normalize(), nil
}

func (e *Engine) bind(entry Entry, params map[string]any) (Validator, error) {
	if !entry.IsFactory || e.bindings == nil {
		return entry.Bind(params)
	}
	key, cacheable := bindingKey(entry, params)
	if cacheable {
		if v, ok := e.bindings.Get(key); ok {
			return v, nil
		}
	}
	v, err := entry.Bind(params)
	if err != nil {
		return nil, err
	}
	if cacheable {
		e.bindings.Put(key, v)
	}
	return v, nil
}

// bindingKey includes the entry revision so re-registering a type invalidates
// its cached bindings.
func bindingKey(entry Entry, params map[string]any) (string, bool) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", false
	}
	return entry.Type + "#" + strconv.FormatUint(entry.rev, 10) + "|" + string(raw), true
}

// render completes field and code on each error and fills the message:
// spec message, then the validator's own, then context resolver, engine
// resolver and finally the code.
func (e *Engine) render(spec schema.ValidatorSpec, vctx Context, errs Errors) Errors {
	if len(errs) == 0 {
		return nil
	}
	out := make(Errors, len(errs))
	for i, er := range errs {
		if er.Field == "" {
			er.Field = vctx.FieldPath
		}
		if er.Code == "" {
			er.Code = spec.Type
		}
		switch {
		case spec.Message != "" && !isSystemCode(er.Code):
			er.Message = spec.Message
		case er.Message != "":
		default:
			er.Message = e.message(vctx, er.Field, er.Code, er.Params)
		}
		out[i] = er
	}
	return out
}

func (e *Engine) message(vctx Context, field, code string, params map[string]any) string {
	if vctx.Resolve != nil {
		if msg := vctx.Resolve(field, code, params); msg != "" {
			return msg
		}
	}
	if e.resolve != nil {
		if msg := e.resolve(field, code, params); msg != "" {
			return msg
		}
	}
	return code
}

// cancelled records a validator that never finished. While editing that is a
// warning; on submit it is an error, since the record did not pass the check.
func (e *Engine) cancelled(vctx Context, spec schema.ValidatorSpec, errs, warns Errors) (Errors, Errors) {
	entry := e.render(schema.ValidatorSpec{}, vctx, Errors{{
		Code:   CodeValidationCancelled,
		Params: map[string]any{"validator": spec.Type},
	}})[0]
	if vctx.IsSubmitting {
		return append(errs, entry), warns
	}
	return errs, append(warns, entry)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
