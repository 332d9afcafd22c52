package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"entref/internal/record"
	"entref/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedStore(t *testing.T, s *Store) []record.ID {
	t.Helper()
	ctx := context.Background()

	err := s.PutBundle(ctx, record.KindContent, store.BundleInfo{ID: "article", Label: "Article"},
		[]store.FieldInfo{
			{Name: "title", Label: "Title"},
			{Name: "field_tag", Label: "Tag"},
		})
	if err != nil {
		t.Fatalf("PutBundle: %v", err)
	}

	var ids []record.ID
	for _, tag := range []string{"news", "sports", "news"} {
		rec := &record.Stored{
			RecordID:  record.NewID(),
			Kind:      record.KindContent,
			Bundle:    "article",
			Published: true,
			Fields:    map[string]record.Scalar{"title": "t-" + tag, "field_tag": tag},
		}
		if err := s.PutRecord(ctx, rec); err != nil {
			t.Fatalf("PutRecord: %v", err)
		}
		ids = append(ids, rec.RecordID)
	}
	return ids
}

func TestQueryIDsConjunctive(t *testing.T) {
	s := newTestStore(t)
	ids := seedStore(t, s)
	ctx := context.Background()

	got, err := s.QueryIDs(ctx, store.Query{
		Kind: record.KindContent,
		Conditions: []store.Condition{
			{Field: "type", Values: []record.Scalar{"article"}},
			{Field: "field_tag", Values: []record.Scalar{"news"}},
		},
		CheckAccess: true,
	})
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(got) != 2 || got[0] != ids[0] || got[1] != ids[2] {
		t.Errorf("QueryIDs = %v, want [%v %v]", got, ids[0], ids[2])
	}
}

func TestQueryIDsSetMembership(t *testing.T) {
	s := newTestStore(t)
	ids := seedStore(t, s)
	ctx := context.Background()

	got, err := s.QueryIDs(ctx, store.Query{
		Kind: record.KindContent,
		Conditions: []store.Condition{
			{Field: "field_tag", Values: []record.Scalar{"news", "sports"}},
		},
		CheckAccess: true,
	})
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("QueryIDs matched %d records, want 3", len(got))
	}
	for i := range got {
		if got[i] != ids[i] {
			t.Errorf("QueryIDs[%d] = %v, want %v (insertion order)", i, got[i], ids[i])
		}
	}
}

func TestQueryIDsAccessCheck(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	hidden := &record.Stored{
		RecordID:  record.NewID(),
		Kind:      record.KindContent,
		Bundle:    "article",
		Published: false,
		Fields:    map[string]record.Scalar{"field_tag": "secret"},
	}
	if err := s.PutRecord(ctx, hidden); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	q := store.Query{
		Kind:        record.KindContent,
		Conditions:  []store.Condition{{Field: "field_tag", Values: []record.Scalar{"secret"}}},
		CheckAccess: true,
	}
	got, err := s.QueryIDs(ctx, q)
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("access-checked query returned %d unpublished records", len(got))
	}

	q.CheckAccess = false
	got, err = s.QueryIDs(ctx, q)
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("unchecked query returned %d records, want 1", len(got))
	}
}

func TestQueryIDsMediaDiscriminator(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &record.Stored{
		RecordID:  record.NewID(),
		Kind:      record.KindMedia,
		Bundle:    "image",
		Published: true,
		Fields:    map[string]record.Scalar{"field_alt": "a sunset"},
	}
	if err := s.PutRecord(ctx, rec); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	got, err := s.QueryIDs(ctx, store.Query{
		Kind: record.KindMedia,
		Conditions: []store.Condition{
			{Field: "bundle", Values: []record.Scalar{"image"}},
			{Field: "field_alt", Values: []record.Scalar{"a sunset"}},
		},
		CheckAccess: true,
	})
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(got) != 1 || got[0] != rec.RecordID {
		t.Errorf("QueryIDs = %v, want [%v]", got, rec.RecordID)
	}
}

func TestQueryIDsUnknownKind(t *testing.T) {
	s := newTestStore(t)
	_, err := s.QueryIDs(context.Background(), store.Query{Kind: record.Kind("taxonomy")})
	if !errors.Is(err, store.ErrUnknownKind) {
		t.Errorf("QueryIDs(taxonomy) err = %v, want ErrUnknownKind", err)
	}
}

func TestLoadRecordsOrderAndFields(t *testing.T) {
	s := newTestStore(t)
	ids := seedStore(t, s)
	ctx := context.Background()

	recs, err := s.LoadRecords(ctx, record.KindContent, []record.ID{ids[2], record.NewID(), ids[0]})
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("LoadRecords returned %d records, want 2", len(recs))
	}
	if recs[0].ID() != ids[2] || recs[1].ID() != ids[0] {
		t.Errorf("LoadRecords order = [%v %v], want [%v %v]", recs[0].ID(), recs[1].ID(), ids[2], ids[0])
	}
	if got := recs[0].Field("field_tag"); got != "news" {
		t.Errorf("Field(field_tag) = %v, want news", got)
	}
	if !recs[0].HasField("type") || recs[0].Field("type") != "article" {
		t.Error("loaded records should expose the subtype discriminator as a field")
	}
}

func TestSchemaReads(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	bundles, err := s.Bundles(ctx, record.KindContent)
	if err != nil {
		t.Fatalf("Bundles: %v", err)
	}
	if len(bundles) != 1 || bundles[0].ID != "article" || bundles[0].Label != "Article" {
		t.Errorf("Bundles = %v", bundles)
	}

	fields, err := s.Fields(ctx, record.KindContent, "article")
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 2 || fields[0].Name != "title" || fields[1].Name != "field_tag" {
		t.Errorf("Fields = %v, want definition order [title field_tag]", fields)
	}

	if _, err := s.Fields(ctx, record.KindContent, "nope"); !errors.Is(err, store.ErrUnknownBundle) {
		t.Errorf("Fields(nope) err = %v, want ErrUnknownBundle", err)
	}
}

func TestDeleteAndReset(t *testing.T) {
	s := newTestStore(t)
	ids := seedStore(t, s)
	ctx := context.Background()

	if err := s.DeleteRecord(ctx, record.KindContent, ids[1]); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	recs, err := s.DumpRecords(ctx, record.KindContent)
	if err != nil {
		t.Fatalf("DumpRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("DumpRecords after delete = %d records, want 2", len(recs))
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	recs, err = s.DumpRecords(ctx, record.KindContent)
	if err != nil {
		t.Fatalf("DumpRecords: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("DumpRecords after reset = %d records, want 0", len(recs))
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.db")
	ctx := context.Background()

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rec := &record.Stored{
		RecordID:  record.NewID(),
		Kind:      record.KindContent,
		Bundle:    "article",
		Published: true,
		Fields:    map[string]record.Scalar{"field_tag": "news"},
	}
	if err := s.PutRecord(ctx, rec); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("NewStore (reopen): %v", err)
	}
	defer s.Close()

	recs, err := s.DumpRecords(ctx, record.KindContent)
	if err != nil {
		t.Fatalf("DumpRecords: %v", err)
	}
	if len(recs) != 1 || recs[0].Fields["field_tag"] != "news" {
		t.Errorf("reopened store lost data: %v", recs)
	}
}
