package validation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Validator checks one value. A non-nil error is a fault (the check could not
// run) and is distinct from a failed Result.
type Validator func(ctx context.Context, value any, vctx Context) (Result, error)

// Factory binds validator params and returns a ready Validator.
type Factory func(params map[string]any) (Validator, error)

// Metadata documents a registered validator for tooling.
type Metadata struct {
	Description     string         `json:"description,omitempty" yaml:"description,omitempty"`
	ParameterSchema map[string]any `json:"parameterSchema,omitempty" yaml:"parameterSchema,omitempty"`
	Examples        []any          `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Entry is one registry row. Exactly one of Validator and Factory is set,
// as reported by IsFactory.
type Entry struct {
	Type      string
	Validator Validator
	Factory   Factory
	IsFactory bool
	IsAsync   bool
	Metadata  *Metadata

	rev uint64
}

// Bind returns the executable for params: the factory's product for factory
// entries, the plain validator otherwise.
func (e Entry) Bind(params map[string]any) (Validator, error) {
	if !e.IsFactory {
		if e.Validator == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilValidator, e.Type)
		}
		return e.Validator, nil
	}
	if e.Factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilValidator, e.Type)
	}
	v, err := e.Factory(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidParams, e.Type, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s factory returned nil", ErrNilValidator, e.Type)
	}
	return v, nil
}

// Registration is an input row for RegisterBatch.
type Registration struct {
	Type      string
	Validator Validator
	Factory   Factory
	Async     bool
	Metadata  *Metadata
}

// RegistryStats counts registry entries.
type RegistryStats struct {
	Total        int `json:"total"`
	Sync         int `json:"sync"`
	Async        int `json:"async"`
	WithMetadata int `json:"withMetadata"`
	Factories    int `json:"factories"`
}

// Registry maps validator types to executables. Registering an existing type
// replaces it. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	rev     uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

func (r *Registry) put(e Entry) error {
	if e.Type == "" {
		return ErrEmptyType
	}
	if (e.IsFactory && e.Factory == nil) || (!e.IsFactory && e.Validator == nil) {
		return fmt.Errorf("%w: %s", ErrNilValidator, e.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rev++
	e.rev = r.rev
	r.entries[e.Type] = e
	return nil
}

func firstMeta(meta []Metadata) *Metadata {
	if len(meta) == 0 {
		return nil
	}
	m := meta[0]
	return &m
}

// Register adds a synchronous validator.
func (r *Registry) Register(typ string, v Validator, meta ...Metadata) error {
	return r.put(Entry{Type: typ, Validator: v, Metadata: firstMeta(meta)})
}

// RegisterAsync adds a validator that runs through the async executor.
func (r *Registry) RegisterAsync(typ string, v Validator, meta ...Metadata) error {
	return r.put(Entry{Type: typ, Validator: v, IsAsync: true, Metadata: firstMeta(meta)})
}

// RegisterFactory adds a synchronous validator bound from spec params.
func (r *Registry) RegisterFactory(typ string, f Factory, meta ...Metadata) error {
	return r.put(Entry{Type: typ, Factory: f, IsFactory: true, Metadata: firstMeta(meta)})
}

// RegisterAsyncFactory registers a parameter-binding factory whose validators run asynchronously.
func (r *Registry) RegisterAsyncFactory(typ string, f Factory, meta ...Metadata) error {
	return r.put(Entry{Type: typ, Factory: f, IsFactory: true, IsAsync: true, Metadata: firstMeta(meta)})
}

// RegisterBatch registers every row. Invalid rows are reported together;
// valid rows are registered regardless.
func (r *Registry) RegisterBatch(regs []Registration) error {
	var errs []error
	for _, reg := range regs {
		e := Entry{
			Type:      reg.Type,
			Validator: reg.Validator,
			Factory:   reg.Factory,
			IsFactory: reg.Factory != nil,
			IsAsync:   reg.Async,
			Metadata:  reg.Metadata,
		}
		if err := r.put(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Entry returns the registry row for typ.
func (r *Registry) Entry(typ string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[typ]
	return e, ok
}

// Get returns the plain validator for typ. Factory entries are bound with nil params.
func (r *Registry) Get(typ string) (Validator, bool) {
	e, ok := r.Entry(typ)
	if !ok {
		return nil, false
	}
	v, err := e.Bind(nil)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	_, ok := r.Entry(typ)
	return ok
}

// IsAsync reports whether typ is registered as asynchronous.
func (r *Registry) IsAsync(typ string) bool {
	e, ok := r.Entry(typ)
	return ok && e.IsAsync
}

// Unregister removes typ and reports whether it was present.
func (r *Registry) Unregister(typ string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[typ]
	if ok {
		delete(r.entries, typ)
		r.rev++
	}
	return ok
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	r.rev++
}

// Types returns the registered types sorted alphabetically.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Stats counts the registered entries.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := RegistryStats{Total: len(r.entries)}
	for _, e := range r.entries {
		if e.IsAsync {
			st.Async++
		} else {
			st.Sync++
		}
		if e.Metadata != nil {
			st.WithMetadata++
		}
		if e.IsFactory {
			st.Factories++
		}
	}
	return st
}
