package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"entref/internal/logging"
	"entref/internal/record"
	"entref/internal/store"
)

// Engine executes the lookup query against the record store and loads the
// matching records. All dependencies are injected; the engine holds no state
// between calls.
type Engine struct {
	querier store.Querier
	loader  store.Loader
	logger  *slog.Logger
}

// NewEngine creates a lookup engine.
func NewEngine(querier store.Querier, loader store.Loader, logger *slog.Logger) *Engine {
	logger = logging.Default(logger)
	return &Engine{
		querier: querier,
		loader:  loader,
		logger:  logger.With("component", "lookup-engine"),
	}
}

// Find returns the records whose lookup field equals any of the given values,
// restricted to the configured kind and bundle, in store order. An empty
// value list and a query with no matches both return an empty result.
//
// The query always runs access-checked; the engine never bypasses record
// visibility. Unknown entity kinds and store failures are returned as errors
// for the caller to degrade to pass-through.
func (e *Engine) Find(ctx context.Context, cfg validConfig, values []record.Scalar) ([]record.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}

	subtype, ok := record.SubtypeField(cfg.kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, cfg.kind)
	}

	q := store.Query{
		Kind: cfg.kind,
		Conditions: []store.Condition{
			{Field: subtype, Values: []record.Scalar{cfg.bundle}},
			{Field: cfg.lookupField, Values: values},
		},
		CheckAccess: true,
	}

	ids, err := e.querier.QueryIDs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s/%s by %s: %w", cfg.kind, cfg.bundle, cfg.lookupField, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	records, err := e.loader.LoadRecords(ctx, cfg.kind, ids)
	if err != nil {
		return nil, fmt.Errorf("load %d %s records: %w", len(ids), cfg.kind, err)
	}
	return records, nil
}
