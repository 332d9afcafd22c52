// Package memory provides an in-memory record store implementation.
//
// Intended for tests and snapshot-backed deployments where the record set is
// loaded from a seed file. Records are returned in insertion order, which
// keeps query results deterministic.
package memory

import (
	"context"
	"fmt"
	"sync"

	"entref/internal/record"
	"entref/internal/store"
)

// bundleEntry holds a bundle definition and its field schema.
type bundleEntry struct {
	info   store.BundleInfo
	fields []store.FieldInfo
}

// Store is an in-memory record store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	bundles map[record.Kind][]bundleEntry
	order   []record.ID
	byID    map[record.ID]*record.Stored
}

var _ store.Interface = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		bundles: make(map[record.Kind][]bundleEntry),
		byID:    make(map[record.ID]*record.Stored),
	}
}

// QueryIDs returns the ids of records matching all conditions, in insertion
// order. An access-checked query only sees published records.
func (s *Store) QueryIDs(_ context.Context, q store.Query) ([]record.ID, error) {
	if _, ok := record.SubtypeField(q.Kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, q.Kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []record.ID
	for _, id := range s.order {
		rec := s.byID[id]
		if rec.Kind != q.Kind {
			continue
		}
		if q.CheckAccess && !rec.Published {
			continue
		}
		if matchesAll(rec, q.Conditions) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// matchesAll reports whether the record satisfies every condition.
func matchesAll(rec *record.Stored, conds []store.Condition) bool {
	for _, c := range conds {
		if !matches(rec, c) {
			return false
		}
	}
	return true
}

// matches reports whether the record's field equals any of the condition
// values, compared in canonical string form.
func matches(rec *record.Stored, c store.Condition) bool {
	if !rec.HasField(c.Field) {
		return false
	}
	have := record.CanonicalString(rec.Field(c.Field))
	for _, v := range c.Values {
		if record.CanonicalString(v) == have {
			return true
		}
	}
	return false
}

// LoadRecords returns the records for the given ids, preserving id order.
// Missing ids and ids of a different kind are dropped.
func (s *Store) LoadRecords(_ context.Context, kind record.Kind, ids []record.ID) ([]record.Record, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record
	for _, id := range ids {
		rec, ok := s.byID[id]
		if !ok || rec.Kind != kind {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

// Bundles returns the bundles of a kind in definition order.
func (s *Store) Bundles(_ context.Context, kind record.Kind) ([]store.BundleInfo, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.bundles[kind]
	out := make([]store.BundleInfo, len(entries))
	for i, e := range entries {
		out[i] = e.info
	}
	return out, nil
}

// Fields returns the fields defined on a bundle in definition order.
func (s *Store) Fields(_ context.Context, kind record.Kind, bundle string) ([]store.FieldInfo, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.bundles[kind] {
		if e.info.ID == bundle {
			out := make([]store.FieldInfo, len(e.fields))
			copy(out, e.fields)
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", store.ErrUnknownBundle, kind, bundle)
}

// PutBundle creates or replaces a bundle definition and its field schema.
func (s *Store) PutBundle(_ context.Context, kind record.Kind, bundle store.BundleInfo, fields []store.FieldInfo) error {
	if _, ok := record.SubtypeField(kind); !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := bundleEntry{info: bundle, fields: make([]store.FieldInfo, len(fields))}
	copy(entry.fields, fields)

	for i, e := range s.bundles[kind] {
		if e.info.ID == bundle.ID {
			s.bundles[kind][i] = entry
			return nil
		}
	}
	s.bundles[kind] = append(s.bundles[kind], entry)
	return nil
}

// PutRecord creates or replaces a record. Replacing keeps the original
// insertion position.
func (s *Store) PutRecord(_ context.Context, rec *record.Stored) error {
	if _, ok := record.SubtypeField(rec.Kind); !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownKind, rec.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.RecordID]; !exists {
		s.order = append(s.order, rec.RecordID)
	}
	s.byID[rec.RecordID] = rec.Clone()
	return nil
}

// DeleteRecord removes a record. Missing records are ignored.
func (s *Store) DeleteRecord(_ context.Context, kind record.Kind, id record.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok || rec.Kind != kind {
		return nil
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Reset removes all bundles and records.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bundles = make(map[record.Kind][]bundleEntry)
	s.order = nil
	s.byID = make(map[record.ID]*record.Stored)
	return nil
}

// DumpRecords returns all records of a kind in insertion order, unpublished
// ones included.
func (s *Store) DumpRecords(_ context.Context, kind record.Kind) ([]*record.Stored, error) {
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*record.Stored
	for _, id := range s.order {
		rec := s.byID[id]
		if rec.Kind == kind {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
