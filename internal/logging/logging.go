// Package logging provides utilities for structured logging across the system.
//
// Design principles:
//   - Logging is dependency-injected, never global
//   - Each component owns its own scoped logger
//   - Logger scoping happens once at construction time
//   - slog.With() is used to attach default attributes
//   - If no logger is provided, a discard logger is used
//
// Global configuration (output format, level, destination) belongs only in main().
// Components must never call slog.SetDefault or access global loggers.
//
// Logging is intentionally sparse. Incomplete configurations, empty inputs, and
// lookups with no matches are normal pass-through outcomes and are not logged;
// only unexpected conditions (store failures, matched records missing the
// requested return field) produce log records.
package logging

import (
	"context"
	"log/slog"
	"sync"
)

// discardHandler is a handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
// Use this as a default when no logger is provided.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns the provided logger if non-nil, otherwise returns a discard logger.
// This is the standard pattern for optional logger parameters:
//
//	func NewComponent(logger *slog.Logger) *Component {
//	    logger = logging.Default(logger)
//	    return &Component{logger: logger.With("component", "name")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// ComponentFilterHandler filters log records by per-component level overrides.
// Components identify themselves with a "component" attribute, attached either
// per call or via logger.With at construction. Records without a component
// attribute use the default level.
//
// Level overrides can be changed at runtime; reads take an RLock only.
type ComponentFilterHandler struct {
	inner        slog.Handler
	defaultLevel slog.Level
	preAttrs     []slog.Attr

	mu     *sync.RWMutex
	levels map[string]slog.Level
}

// NewComponentFilterHandler wraps inner with per-component level filtering.
// All records at or above defaultLevel pass unless a component override says
// otherwise.
func NewComponentFilterHandler(inner slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		inner:        inner,
		defaultLevel: defaultLevel,
		mu:           &sync.RWMutex{},
		levels:       make(map[string]slog.Level),
	}
}

// SetLevel sets the minimum level for the given component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.levels[component] = level
}

// ClearLevel removes the override for the given component, restoring the default.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.levels, component)
}

// Level returns the effective minimum level for the given component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if level, ok := h.levels[component]; ok {
		return level
	}
	return h.defaultLevel
}

// DefaultLevel returns the level used for components without an override.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.defaultLevel
}

// SetDefaultLevel changes the level used for components without an override.
// Handler clones made via WithAttrs before this call keep the old default.
func (h *ComponentFilterHandler) SetDefaultLevel(level slog.Level) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.defaultLevel = level
}

// Enabled reports whether any component could log at this level. The
// per-record component check happens in Handle, because the component
// attribute is not available here.
func (h *ComponentFilterHandler) Enabled(_ context.Context, level slog.Level) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if level >= h.defaultLevel {
		return true
	}
	for _, l := range h.levels {
		if level >= l {
			return true
		}
	}
	return false
}

// Handle forwards the record to the inner handler if it passes the effective
// level for its component.
func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.componentOf(r)
	if r.Level < h.Level(component) {
		return nil
	}
	if h.inner == nil {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

// componentOf extracts the component name from pre-set attrs or the record itself.
func (h *ComponentFilterHandler) componentOf(r slog.Record) string {
	component := ""
	for _, a := range h.preAttrs {
		if a.Key == "component" {
			component = a.Value.String()
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return false
		}
		return true
	})
	return component
}

// WithAttrs returns a handler that remembers component attrs attached via
// logger.With, so filtering still works for component-scoped loggers.
func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	inner := h.inner
	if inner != nil {
		inner = inner.WithAttrs(attrs)
	}
	pre := make([]slog.Attr, len(h.preAttrs)+len(attrs))
	copy(pre, h.preAttrs)
	copy(pre[len(h.preAttrs):], attrs)
	return &ComponentFilterHandler{
		inner:        inner,
		defaultLevel: h.defaultLevel,
		preAttrs:     pre,
		mu:           h.mu,
		levels:       h.levels, // share overrides across clones
	}
}

// WithGroup returns a handler that opens a group on the inner handler.
func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	inner := h.inner
	if inner != nil {
		inner = inner.WithGroup(name)
	}
	return &ComponentFilterHandler{
		inner:        inner,
		defaultLevel: h.defaultLevel,
		preAttrs:     h.preAttrs,
		mu:           h.mu,
		levels:       h.levels,
	}
}
