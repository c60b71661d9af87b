package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor derives an attribute from the context a record is logged with.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type runKey struct{}

type run struct {
	field string
	id    any
}

// ContextWithRun tags ctx with the field and validation id of an async run.
// Loggers from New add both to records logged with the returned context, so
// validators and checkers called within the run need not pass them.
func ContextWithRun(ctx context.Context, field string, id any) context.Context {
	return context.WithValue(ctx, runKey{}, run{field: field, id: id})
}

// RunFromContext returns the values stored by ContextWithRun.
func RunFromContext(ctx context.Context) (field string, id any, ok bool) {
	r, ok := ctx.Value(runKey{}).(run)
	return r.field, r.id, ok
}

func runExtractor(ctx context.Context) (slog.Attr, bool) {
	field, id, ok := RunFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	attrs := []slog.Attr{Field(field)}
	if id != nil {
		attrs = append(attrs, ValidationID(id))
	}
	return slog.Attr{Key: "run", Value: slog.GroupValue(attrs...)}, true
}

// contextHandler runs extractors on every record before passing it on.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, ex := range h.extractors {
			if attr, ok := ex(ctx); ok {
				rec.AddAttrs(attr)
			}
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
