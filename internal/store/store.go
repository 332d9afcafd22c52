// Package store defines the record store interfaces the lookup core consumes.
//
// The store answers conjunctive equality queries over a kind's records,
// bulk-loads records by id, and exposes the schema (bundles and fields) for
// configuration-time introspection. Access control lives here, not in the
// lookup engine: an access-checked query only sees published records.
//
// Two backends implement Interface: store/memory (tests, snapshot-backed
// deployments) and store/sqlite (persistent).
package store

import (
	"context"
	"errors"

	"entref/internal/record"
)

// ErrUnknownKind is returned when a query names an entity kind the store has
// no handler for. Callers treat this as a configuration error, not as an
// empty result.
var ErrUnknownKind = errors.New("unknown entity kind")

// ErrUnknownBundle is returned by schema reads for bundles that do not exist.
var ErrUnknownBundle = errors.New("unknown bundle")

// Condition matches a field against one or more values. Multiple values use
// match-any-of semantics (the store's native set-membership query).
type Condition struct {
	Field  string
	Values []record.Scalar
}

// Query is a conjunctive equality query over one kind's records.
type Query struct {
	Kind       record.Kind
	Conditions []Condition

	// CheckAccess restricts results to records visible to the caller
	// (published records). The lookup engine always sets this.
	CheckAccess bool
}

// Querier answers queries with an ordered list of record identifiers.
type Querier interface {
	QueryIDs(ctx context.Context, q Query) ([]record.ID, error)
}

// Loader bulk-loads records of one kind by identifier. Identifiers that no
// longer exist are silently dropped (a delete can race the query); the
// returned records preserve the order of ids.
type Loader interface {
	LoadRecords(ctx context.Context, kind record.Kind, ids []record.ID) ([]record.Record, error)
}

// BundleInfo describes a bundle for configuration-time selection.
type BundleInfo struct {
	ID    string
	Label string
}

// FieldInfo describes a field defined on a bundle.
type FieldInfo struct {
	Name  string
	Label string
}

// SchemaReader exposes the store's schema for configuration tooling.
// It is never consulted during a lookup.
type SchemaReader interface {
	// Bundles returns the bundles of a kind, in definition order.
	Bundles(ctx context.Context, kind record.Kind) ([]BundleInfo, error)

	// Fields returns the fields defined on a bundle, in definition order.
	Fields(ctx context.Context, kind record.Kind, bundle string) ([]FieldInfo, error)
}

// Writer mutates the store. Used by seeding and import tooling, not by the
// lookup core.
type Writer interface {
	// PutBundle creates or replaces a bundle definition and its field schema.
	PutBundle(ctx context.Context, kind record.Kind, bundle BundleInfo, fields []FieldInfo) error

	// PutRecord creates or replaces a record.
	PutRecord(ctx context.Context, rec *record.Stored) error

	// DeleteRecord removes a record. Deleting a missing record is not an error.
	DeleteRecord(ctx context.Context, kind record.Kind, id record.ID) error

	// Reset removes all bundles and records. Used by snapshot replace.
	Reset(ctx context.Context) error
}

// Dumper exports a kind's records for snapshots. Records come back in store
// order, unpublished ones included.
type Dumper interface {
	DumpRecords(ctx context.Context, kind record.Kind) ([]*record.Stored, error)
}

// Interface is the full store contract implemented by each backend.
type Interface interface {
	Querier
	Loader
	SchemaReader
	Writer
	Dumper

	Close() error
}
