// Package sqlite provides a SQLite-backed record store implementation.
//
// Field values are materialized in their canonical string form (see
// record.CanonicalString), so equality matching behaves identically to the
// in-memory backend. Records keep a monotonically increasing ord column;
// queries and dumps return them in insertion order.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"entref/internal/record"
	"entref/internal/store"
)

// Store is a SQLite-backed record store.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Interface = (*Store)(nil)

// NewStore opens a SQLite database at path and runs migrations.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Set pragmas.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set foreign_keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// placeholders returns "?, ?, ..." for n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// QueryIDs returns the ids of records matching all conditions, in insertion
// order. Conditions on the kind's subtype discriminator match the records
// table directly; all other conditions match materialized field values.
func (s *Store) QueryIDs(ctx context.Context, q store.Query) ([]record.ID, error) {
	subtype, ok := record.SubtypeField(q.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, q.Kind)
	}

	var sb strings.Builder
	sb.WriteString("SELECT r.id FROM records r WHERE r.kind = ?")
	args := []any{string(q.Kind)}

	if q.CheckAccess {
		sb.WriteString(" AND r.published = 1")
	}

	for _, c := range q.Conditions {
		if len(c.Values) == 0 {
			// A condition with no values can match nothing.
			return nil, nil
		}
		values := make([]any, len(c.Values))
		for i, v := range c.Values {
			values[i] = record.CanonicalString(v)
		}

		if c.Field == subtype {
			fmt.Fprintf(&sb, " AND r.bundle IN (%s)", placeholders(len(values)))
			args = append(args, values...)
			continue
		}

		fmt.Fprintf(&sb,
			" AND EXISTS (SELECT 1 FROM record_fields f WHERE f.record_id = r.id AND f.name = ? AND f.value IN (%s))",
			placeholders(len(values)))
		args = append(args, c.Field)
		args = append(args, values...)
	}

	sb.WriteString(" ORDER BY r.ord")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var ids []record.ID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		id, err := record.ParseID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored record id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record ids: %w", err)
	}
	return ids, nil
}

// LoadRecords returns the records for the given ids, preserving id order.
// Missing ids are dropped.
func (s *Store) LoadRecords(ctx context.Context, kind record.Kind, ids []record.ID) ([]record.Record, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(kind))
	for _, id := range ids {
		args = append(args, id.String())
	}

	query := fmt.Sprintf(
		"SELECT id, bundle, published FROM records WHERE kind = ? AND id IN (%s)",
		placeholders(len(ids)))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	byID := make(map[record.ID]*record.Stored, len(ids))
	for rows.Next() {
		var raw, bundle string
		var published bool
		if err := rows.Scan(&raw, &bundle, &published); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		id, err := record.ParseID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored record id %q: %w", raw, err)
		}
		byID[id] = &record.Stored{
			RecordID:  id,
			Kind:      kind,
			Bundle:    bundle,
			Published: published,
			Fields:    make(map[string]record.Scalar),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	if err := s.loadFields(ctx, byID); err != nil {
		return nil, err
	}

	var out []record.Record
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// loadFields fills the field maps of the given records.
func (s *Store) loadFields(ctx context.Context, byID map[record.ID]*record.Stored) error {
	if len(byID) == 0 {
		return nil
	}

	args := make([]any, 0, len(byID))
	for id := range byID {
		args = append(args, id.String())
	}

	query := fmt.Sprintf(
		"SELECT record_id, name, value FROM record_fields WHERE record_id IN (%s)",
		placeholders(len(args)))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load record fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw, name, value string
		if err := rows.Scan(&raw, &name, &value); err != nil {
			return fmt.Errorf("scan record field: %w", err)
		}
		id, err := record.ParseID(raw)
		if err != nil {
			return fmt.Errorf("stored record id %q: %w", raw, err)
		}
		if rec, ok := byID[id]; ok {
			rec.Fields[name] = value
		}
	}
	return rows.Err()
}

// Bundles returns the bundles of a kind in definition order.
func (s *Store) Bundles(ctx context.Context, kind record.Kind) ([]store.BundleInfo, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, label FROM bundles WHERE kind = ? ORDER BY ord", string(kind))
	if err != nil {
		return nil, fmt.Errorf("query bundles: %w", err)
	}
	defer rows.Close()

	var out []store.BundleInfo
	for rows.Next() {
		var b store.BundleInfo
		if err := rows.Scan(&b.ID, &b.Label); err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Fields returns the fields defined on a bundle in definition order.
func (s *Store) Fields(ctx context.Context, kind record.Kind, bundle string) ([]store.FieldInfo, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM bundles WHERE kind = ? AND id = ?)",
		string(kind), bundle).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check bundle: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrUnknownBundle, kind, bundle)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, label FROM bundle_fields WHERE kind = ? AND bundle = ? ORDER BY ord",
		string(kind), bundle)
	if err != nil {
		return nil, fmt.Errorf("query bundle fields: %w", err)
	}
	defer rows.Close()

	var out []store.FieldInfo
	for rows.Next() {
		var f store.FieldInfo
		if err := rows.Scan(&f.Name, &f.Label); err != nil {
			return nil, fmt.Errorf("scan bundle field: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// PutBundle creates or replaces a bundle definition and its field schema.
func (s *Store) PutBundle(ctx context.Context, kind record.Kind, bundle store.BundleInfo, fields []store.FieldInfo) error {
	if _, ok := record.SubtypeField(kind); !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bundles (kind, id, label, ord)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(ord), 0) + 1 FROM bundles))
		ON CONFLICT (kind, id) DO UPDATE SET label = excluded.label`,
		string(kind), bundle.ID, bundle.Label)
	if err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM bundle_fields WHERE kind = ? AND bundle = ?", string(kind), bundle.ID)
	if err != nil {
		return fmt.Errorf("clear bundle fields: %w", err)
	}

	for i, f := range fields {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO bundle_fields (kind, bundle, name, label, ord) VALUES (?, ?, ?, ?, ?)",
			string(kind), bundle.ID, f.Name, f.Label, i+1)
		if err != nil {
			return fmt.Errorf("insert bundle field %q: %w", f.Name, err)
		}
	}

	return tx.Commit()
}

// PutRecord creates or replaces a record. Replacing keeps the original ord.
func (s *Store) PutRecord(ctx context.Context, rec *record.Stored) error {
	if _, ok := record.SubtypeField(rec.Kind); !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownKind, rec.Kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, kind, bundle, published, ord)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(ord), 0) + 1 FROM records))
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			bundle = excluded.bundle,
			published = excluded.published`,
		rec.RecordID.String(), string(rec.Kind), rec.Bundle, boolToInt(rec.Published))
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM record_fields WHERE record_id = ?", rec.RecordID.String())
	if err != nil {
		return fmt.Errorf("clear record fields: %w", err)
	}

	for name, value := range rec.Fields {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO record_fields (record_id, name, value) VALUES (?, ?, ?)",
			rec.RecordID.String(), name, record.CanonicalString(value))
		if err != nil {
			return fmt.Errorf("insert record field %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// DeleteRecord removes a record. Missing records are ignored.
func (s *Store) DeleteRecord(ctx context.Context, kind record.Kind, id record.ID) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE kind = ? AND id = ?", string(kind), id.String())
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Reset removes all bundles and records.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"record_fields", "records", "bundle_fields", "bundles"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// DumpRecords returns all records of a kind in insertion order, unpublished
// ones included.
func (s *Store) DumpRecords(ctx context.Context, kind record.Kind) ([]*record.Stored, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, bundle, published FROM records WHERE kind = ? ORDER BY ord", string(kind))
	if err != nil {
		return nil, fmt.Errorf("dump records: %w", err)
	}
	defer rows.Close()

	var ordered []record.ID
	byID := make(map[record.ID]*record.Stored)
	for rows.Next() {
		var raw, bundle string
		var published bool
		if err := rows.Scan(&raw, &bundle, &published); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		id, err := record.ParseID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored record id %q: %w", raw, err)
		}
		ordered = append(ordered, id)
		byID[id] = &record.Stored{
			RecordID:  id,
			Kind:      kind,
			Bundle:    bundle,
			Published: published,
			Fields:    make(map[string]record.Scalar),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	if err := s.loadFields(ctx, byID); err != nil {
		return nil, err
	}

	out := make([]*record.Stored, len(ordered))
	for i, id := range ordered {
		out[i] = byID[id]
	}
	return out, nil
}
