// Package seed provides store fixtures: a compressed snapshot format for
// exporting and loading whole record sets, a JSONPath-based mapping for
// importing records from arbitrary JSON documents, and demo data for local
// testing.
//
// Seeding is tooling; the lookup core never depends on this package.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"entref/internal/record"
	"entref/internal/store"
)

// Snapshot is the serialized form of a store's bundles and records.
type Snapshot struct {
	Bundles []BundleSeed `msgpack:"bundles"`
	Records []RecordSeed `msgpack:"records"`
}

// BundleSeed is one bundle definition with its field schema.
type BundleSeed struct {
	Kind   string      `msgpack:"kind"`
	ID     string      `msgpack:"id"`
	Label  string      `msgpack:"label"`
	Fields []FieldSeed `msgpack:"fields"`
}

// FieldSeed is one field definition on a bundle.
type FieldSeed struct {
	Name  string `msgpack:"name"`
	Label string `msgpack:"label"`
}

// RecordSeed is one record. An empty ID gets a fresh identifier on apply.
type RecordSeed struct {
	ID        string                   `msgpack:"id"`
	Kind      string                   `msgpack:"kind"`
	Bundle    string                   `msgpack:"bundle"`
	Published bool                     `msgpack:"published"`
	Fields    map[string]record.Scalar `msgpack:"fields"`
}

// WriteSnapshot writes a snapshot as zstd-compressed msgpack.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return zw.Close()
}

// ReadSnapshot reads a zstd-compressed msgpack snapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// WriteSnapshotFile writes a snapshot to path atomically via
// temp-file-then-rename.
func WriteSnapshotFile(path string, snap *Snapshot) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if err := WriteSnapshot(tmp, snap); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotFile reads a snapshot from path.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// Apply writes the snapshot's bundles and records into the store, in
// snapshot order. Returns the number of records applied.
func Apply(ctx context.Context, st store.Writer, snap *Snapshot) (int, error) {
	for _, b := range snap.Bundles {
		fields := make([]store.FieldInfo, len(b.Fields))
		for i, f := range b.Fields {
			fields[i] = store.FieldInfo{Name: f.Name, Label: f.Label}
		}
		err := st.PutBundle(ctx, record.Kind(b.Kind), store.BundleInfo{ID: b.ID, Label: b.Label}, fields)
		if err != nil {
			return 0, fmt.Errorf("apply bundle %s/%s: %w", b.Kind, b.ID, err)
		}
	}

	applied := 0
	for _, r := range snap.Records {
		rec, err := r.toStored()
		if err != nil {
			return applied, err
		}
		if err := st.PutRecord(ctx, rec); err != nil {
			return applied, fmt.Errorf("apply record %s: %w", rec.RecordID, err)
		}
		applied++
	}
	return applied, nil
}

// Replace resets the store and applies the snapshot.
func Replace(ctx context.Context, st store.Writer, snap *Snapshot) (int, error) {
	if err := st.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset store: %w", err)
	}
	return Apply(ctx, st, snap)
}

// toStored converts a seed record, minting an id when none is given.
func (r RecordSeed) toStored() (*record.Stored, error) {
	id := record.NewID()
	if r.ID != "" {
		parsed, err := record.ParseID(r.ID)
		if err != nil {
			return nil, fmt.Errorf("seed record id %q: %w", r.ID, err)
		}
		id = parsed
	}

	fields := make(map[string]record.Scalar, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &record.Stored{
		RecordID:  id,
		Kind:      record.Kind(r.Kind),
		Bundle:    r.Bundle,
		Published: r.Published,
		Fields:    fields,
	}, nil
}

// Dump exports all bundles and records of every supported kind.
func Dump(ctx context.Context, st store.Interface) (*Snapshot, error) {
	snap := &Snapshot{}

	for _, kind := range record.Kinds() {
		bundles, err := st.Bundles(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("dump %s bundles: %w", kind, err)
		}
		for _, b := range bundles {
			fields, err := st.Fields(ctx, kind, b.ID)
			if err != nil {
				return nil, fmt.Errorf("dump %s/%s fields: %w", kind, b.ID, err)
			}
			fs := make([]FieldSeed, len(fields))
			for i, f := range fields {
				fs[i] = FieldSeed{Name: f.Name, Label: f.Label}
			}
			snap.Bundles = append(snap.Bundles, BundleSeed{
				Kind:   string(kind),
				ID:     b.ID,
				Label:  b.Label,
				Fields: fs,
			})
		}

		records, err := st.DumpRecords(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("dump %s records: %w", kind, err)
		}
		for _, rec := range records {
			fields := make(map[string]record.Scalar, len(rec.Fields))
			for k, v := range rec.Fields {
				fields[k] = v
			}
			snap.Records = append(snap.Records, RecordSeed{
				ID:        rec.RecordID.String(),
				Kind:      string(rec.Kind),
				Bundle:    rec.Bundle,
				Published: rec.Published,
				Fields:    fields,
			})
		}
	}
	return snap, nil
}
