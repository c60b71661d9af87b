package validkit

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
	"github.com/dmitrymomot/validkit/pkg/debounce"
	"github.com/dmitrymomot/validkit/pkg/logger"
	"github.com/dmitrymomot/validkit/pkg/messages"
	"github.com/dmitrymomot/validkit/pkg/rules"
	"github.com/dmitrymomot/validkit/pkg/schema"
	"github.com/dmitrymomot/validkit/pkg/unique"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

// Config is the environment form of the kit settings.
type Config struct {
	Engine   validation.Config
	Async    asyncvalidate.Config
	Language string        `env:"VALIDATION_LANGUAGE" envDefault:"en"`
	Debounce time.Duration `env:"VALIDATION_DEBOUNCE" envDefault:"0s"`
}

type options struct {
	logger     *slog.Logger
	engineOpts []validation.EngineOption
	policy     *asyncvalidate.Policy
	observer   asyncvalidate.Observer
	debounce   time.Duration
	catalog    *messages.Catalog
	language   string
	checker    unique.Checker
	extra      []validation.Registration
	builtins   bool
}

// Option configures a Kit.
type Option func(*options)

// WithLogger sets the logger shared by the controller, debouncer, engines and catalog.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConfig applies an environment-loaded Config.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, validation.WithConfig(cfg.Engine))
		p := cfg.Async.Policy()
		o.policy = &p
		o.debounce = cfg.Debounce
		if cfg.Language != "" {
			o.language = cfg.Language
		}
	}
}

// WithPolicy sets the default async policy.
func WithPolicy(p asyncvalidate.Policy) Option {
	return func(o *options) { o.policy = &p }
}

// WithEngineOptions passes options through to both engines.
func WithEngineOptions(opts ...validation.EngineOption) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// WithObserver reports async runs to obs, e.g. a metrics.Observer.
func WithObserver(obs asyncvalidate.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithDebounce sets the quiet window applied to interactive field validation.
// Zero runs every call right away.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithCatalog replaces the built-in English message catalog.
func WithCatalog(c *messages.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithLanguage sets the default message language.
func WithLanguage(lang string) Option {
	return func(o *options) { o.language = lang }
}

// WithUniqueChecker registers the async "unique" validator backed by c.
func WithUniqueChecker(c unique.Checker) Option {
	return func(o *options) { o.checker = c }
}

// WithValidators registers custom validators after the built-ins.
func WithValidators(regs ...validation.Registration) Option {
	return func(o *options) { o.extra = append(o.extra, regs...) }
}

// WithoutBuiltins starts from an empty registry.
func WithoutBuiltins() Option {
	return func(o *options) { o.builtins = false }
}

// Kit wires a registry, an async controller, a debouncer and two engines that
// share them: one for submits and one for interactive per-field checks.
// Every Kit owns its own state; nothing is shared between kits.
type Kit struct {
	registry   *validation.Registry
	controller *asyncvalidate.Controller
	debouncer  *debounce.Debouncer
	engine     *validation.Engine
	live       *validation.Engine
	catalog    *messages.Catalog
	language   string
	logger     *slog.Logger
}

// New builds a Kit. Built-in rules are registered unless WithoutBuiltins is given.
func New(opts ...Option) (*Kit, error) {
	o := options{
		logger:   logger.Nop(),
		language: messages.DefaultLanguage,
		builtins: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	reg := validation.NewRegistry()
	if o.builtins {
		if err := rules.Register(reg); err != nil {
			return nil, err
		}
	}
	if o.checker != nil {
		if err := unique.Register(reg, o.checker); err != nil {
			return nil, err
		}
	}
	if err := reg.RegisterBatch(o.extra); err != nil {
		return nil, err
	}

	if o.catalog == nil {
		o.catalog = messages.Default(messages.WithLogger(o.logger))
	}

	ctrlOpts := []asyncvalidate.ControllerOption{asyncvalidate.WithLogger(o.logger)}
	if o.policy != nil {
		ctrlOpts = append(ctrlOpts, asyncvalidate.WithDefaultPolicy(*o.policy))
	}
	if o.observer != nil {
		ctrlOpts = append(ctrlOpts, asyncvalidate.WithObserver(o.observer))
	}
	ctrl := asyncvalidate.New(ctrlOpts...)
	deb := debounce.New(ctrl, o.debounce, debounce.WithLogger(o.logger))

	base := append([]validation.EngineOption{
		validation.WithLogger(o.logger),
		validation.WithMessageResolver(o.catalog.Resolver(o.language)),
	}, o.engineOpts...)
	engine := validation.NewEngine(reg, slices.Concat(base, []validation.EngineOption{validation.WithAsyncExecutor(ctrl)})...)
	live := validation.NewEngine(reg, slices.Concat(base, []validation.EngineOption{validation.WithAsyncExecutor(deb)})...)

	return &Kit{
		registry:   reg,
		controller: ctrl,
		debouncer:  deb,
		engine:     engine,
		live:       live,
		catalog:    o.catalog,
		language:   o.language,
		logger:     o.logger,
	}, nil
}

// Registry returns the registry shared by both engines.
func (k *Kit) Registry() *validation.Registry { return k.registry }

// Controller returns the async controller.
func (k *Kit) Controller() *asyncvalidate.Controller { return k.controller }

// Debouncer returns the debouncer used by ValidateField.
func (k *Kit) Debouncer() *debounce.Debouncer { return k.debouncer }

// Engine returns the submit engine.
func (k *Kit) Engine() *validation.Engine { return k.engine }

// Catalog returns the message catalog.
func (k *Kit) Catalog() *messages.Catalog { return k.catalog }

// Language is the default message language.
func (k *Kit) Language() string { return k.language }

// ValidateForm validates a submitted record. Async validators run through the
// controller without debouncing, in a scope of their own, so concurrent
// submissions of the same form never cancel each other. An async validator
// that is cancelled anyway (Cancel, Close or ctx) fails the record.
func (k *Kit) ValidateForm(ctx context.Context, data map[string]any, form *schema.FormSchema) validation.Result {
	return k.engine.ValidateForm(submission(ctx), data, form, validation.Context{IsSubmitting: true})
}

func submission(ctx context.Context) context.Context {
	return asyncvalidate.WithScope(ctx, "submit-"+uuid.NewString())
}

// ValidateFormIn is ValidateForm with messages rendered in lang.
func (k *Kit) ValidateFormIn(ctx context.Context, lang string, data map[string]any, form *schema.FormSchema) validation.Result {
	return k.engine.ValidateForm(submission(ctx), data, form, validation.Context{
		IsSubmitting: true,
		Resolve:      k.catalog.Resolver(lang),
	})
}

// ValidateFromSchema validates data against a live or serialized schema.
func (k *Kit) ValidateFromSchema(ctx context.Context, data map[string]any, src any) validation.Result {
	return k.engine.ValidateFromSchema(submission(ctx), data, src, validation.Context{IsSubmitting: true})
}

// ValidateField checks one field of a record while it is being edited. Async
// validators are debounced per field, so a newer call for the same field
// supersedes an older one, which then returns a validationCancelled warning.
func (k *Kit) ValidateField(ctx context.Context, form *schema.FormSchema, field string, data map[string]any) validation.Result {
	if form == nil {
		return k.live.ValidateForm(ctx, data, nil, validation.Context{FieldPath: field})
	}
	fs, ok := form.Field(field)
	if !ok {
		return validation.Pass()
	}
	return k.live.ValidateField(ctx, data[field], fs, validation.Context{
		FormData:  data,
		FieldPath: field,
		Options:   form.Options(),
	})
}

// Cancel stops any scheduled or running live validation of field. Runs of a
// submission are scoped to it and stop with its ctx or with Close.
func (k *Kit) Cancel(field string) bool {
	debounced := k.debouncer.Cancel(field)
	running := k.controller.CancelValidation(field)
	return debounced || running
}

// Close cancels all scheduled and running validations.
func (k *Kit) Close() {
	n := k.debouncer.CancelAll() + k.controller.CancelAllValidations()
	if n > 0 {
		k.logger.Debug("cancelled pending validations", slog.Int("count", n))
	}
}
