// Package schema exposes the store's bundles and fields as option lists for
// configuration tooling (an import UI picking kind, bundle, and fields).
//
// This is a configuration-time side channel only; the lookup transform never
// consults it. Failures degrade to an empty option set with a logged
// diagnostic, so a configuration surface can always render.
package schema

import (
	"context"
	"log/slog"

	"entref/internal/logging"
	"entref/internal/lookup"
	"entref/internal/record"
	"entref/internal/store"
)

// Option is one selectable choice, in display order.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Introspector reads schema information from a store.
type Introspector struct {
	reader store.SchemaReader
	logger *slog.Logger
}

// NewIntrospector creates a schema introspector.
func NewIntrospector(reader store.SchemaReader, logger *slog.Logger) *Introspector {
	logger = logging.Default(logger)
	return &Introspector{
		reader: reader,
		logger: logger.With("component", "schema"),
	}
}

// KindOptions returns the supported entity kinds. This comes from the closed
// kind registry, not the store, and cannot fail.
func (i *Introspector) KindOptions() []Option {
	kinds := record.Kinds()
	out := make([]Option, 0, len(kinds))
	for _, k := range kinds {
		label, _ := record.Label(k)
		out = append(out, Option{ID: string(k), Label: label})
	}
	return out
}

// BundleOptions returns the bundles of a kind for configuration-time
// selection. Unknown kinds and store errors yield an empty set.
func (i *Introspector) BundleOptions(ctx context.Context, kind record.Kind) []Option {
	bundles, err := i.reader.Bundles(ctx, kind)
	if err != nil {
		i.logger.Warn("bundle options unavailable", "kind", kind, "error", err)
		return []Option{}
	}

	out := make([]Option, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, Option{ID: b.ID, Label: b.Label})
	}
	return out
}

// FieldOptions returns the fields selectable as lookup or return field for a
// bundle. The identifier sentinel is always offered first. Unknown bundles
// and store errors yield an empty set.
func (i *Introspector) FieldOptions(ctx context.Context, kind record.Kind, bundle string) []Option {
	fields, err := i.reader.Fields(ctx, kind, bundle)
	if err != nil {
		i.logger.Warn("field options unavailable", "kind", kind, "bundle", bundle, "error", err)
		return []Option{}
	}

	out := make([]Option, 0, len(fields)+1)
	out = append(out, Option{ID: lookup.ReturnRecordID, Label: "Record ID"})
	for _, f := range fields {
		out = append(out, Option{ID: f.Name, Label: f.Label})
	}
	return out
}
