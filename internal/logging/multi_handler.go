package logging

import (
	"context"
	"errors"
	"log/slog"
)

type ctxAttrsKey struct{}

// ContextWithAttrs returns a context whose log records carry attrs, for
// request-scoped values such as request_id that only the caller knows.
// Handlers read them through MultiHandler.
func ContextWithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	prev := attrsFromContext(ctx)
	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

func attrsFromContext(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	return attrs
}

// MultiHandler fans out log records to multiple slog.Handlers, adding any
// context attrs the record does not already set. A failing handler does not
// keep the record from the others.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	record = withContextAttrs(ctx, record)

	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func withContextAttrs(ctx context.Context, record slog.Record) slog.Record {
	attrs := attrsFromContext(ctx)
	if len(attrs) == 0 {
		return record
	}

	present := make(map[string]bool, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})

	out := record.Clone()
	for _, a := range attrs {
		if !present[a.Key] {
			out.AddAttrs(a)
		}
	}
	return out
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}
