package lookup

import (
	"context"
	"log/slog"

	"entref/internal/logging"
	"entref/internal/store"
)

// Step is the pipeline-facing lookup transform. It is stateless per call and
// safe to share across items when the host pipeline processes them in
// parallel.
type Step struct {
	engine *Engine
	logger *slog.Logger
}

// NewStep creates a lookup step backed by the given store interfaces.
func NewStep(querier store.Querier, loader store.Loader, logger *slog.Logger) *Step {
	logger = logging.Default(logger)
	return &Step{
		engine: NewEngine(querier, loader, logger),
		logger: logger.With("component", "lookup-step"),
	}
}

// Transform resolves the lookup for one pipeline item.
//
// The original input is returned unchanged whenever the configuration is
// incomplete, the input is empty, nothing matches, every match lacks the
// return field, or the store fails. Store failures are logged; the benign
// cases are not. Transform never panics and never returns an error: the
// worst case leaves the field as originally ingested.
func (s *Step) Transform(ctx context.Context, input any, cfg Config) any {
	valid, ok := cfg.resolve()
	if !ok {
		return input
	}

	values := Values(input)
	if len(values) == 0 {
		return input
	}

	records, err := s.engine.Find(ctx, valid, values)
	if err != nil {
		s.logger.Error("lookup failed",
			"kind", valid.kind,
			"bundle", valid.bundle,
			"lookup_field", valid.lookupField,
			"error", err)
		return input
	}
	if len(records) == 0 {
		return input
	}

	out := Project(valid.kind, records, valid.returnField, s.logger)
	if len(out) == 0 {
		return input
	}
	return out
}
