package memory

import (
	"context"
	"errors"
	"testing"

	"entref/internal/record"
	"entref/internal/store"
)

func seedStore(t *testing.T) (*Store, []record.ID) {
	t.Helper()
	s := NewStore()
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
	return s, ids
}

func TestQueryIDsConjunctive(t *testing.T) {
	s, ids := seedStore(t)
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
	s, ids := seedStore(t)
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
	s, _ := seedStore(t)
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

func TestQueryIDsNumericEquality(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	rec := &record.Stored{
		RecordID:  record.NewID(),
		Kind:      record.KindContent,
		Bundle:    "article",
		Published: true,
		Fields:    map[string]record.Scalar{"weight": 42},
	}
	if err := s.PutRecord(ctx, rec); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	// JSON-decoded inputs arrive as float64; they must still match.
	got, err := s.QueryIDs(ctx, store.Query{
		Kind:        record.KindContent,
		Conditions:  []store.Condition{{Field: "weight", Values: []record.Scalar{float64(42)}}},
		CheckAccess: true,
	})
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("numeric match returned %d records, want 1", len(got))
	}
}

func TestQueryIDsUnknownKind(t *testing.T) {
	s, _ := seedStore(t)
	_, err := s.QueryIDs(context.Background(), store.Query{Kind: record.Kind("taxonomy")})
	if !errors.Is(err, store.ErrUnknownKind) {
		t.Errorf("QueryIDs(taxonomy) err = %v, want ErrUnknownKind", err)
	}
}

func TestLoadRecords(t *testing.T) {
	s, ids := seedStore(t)
	ctx := context.Background()

	// Reverse order must be preserved; an unknown id is dropped.
	want := []record.ID{ids[2], ids[0]}
	recs, err := s.LoadRecords(ctx, record.KindContent, []record.ID{ids[2], record.NewID(), ids[0]})
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("LoadRecords returned %d records, want 2", len(recs))
	}
	for i, rec := range recs {
		if rec.ID() != want[i] {
			t.Errorf("LoadRecords[%d] = %v, want %v", i, rec.ID(), want[i])
		}
	}
}

func TestLoadRecordsIsolation(t *testing.T) {
	s, ids := seedStore(t)
	ctx := context.Background()

	recs, err := s.LoadRecords(ctx, record.KindContent, ids[:1])
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	recs[0].(*record.Stored).Fields["field_tag"] = "mutated"

	again, err := s.LoadRecords(ctx, record.KindContent, ids[:1])
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if again[0].Field("field_tag") == "mutated" {
		t.Error("loaded records must not share state with the store")
	}
}

func TestSchemaReads(t *testing.T) {
	s, _ := seedStore(t)
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
	s, ids := seedStore(t)
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

	// Deleting again is not an error.
	if err := s.DeleteRecord(ctx, record.KindContent, ids[1]); err != nil {
		t.Errorf("DeleteRecord (missing): %v", err)
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
	bundles, err := s.Bundles(ctx, record.KindContent)
	if err != nil {
		t.Fatalf("Bundles: %v", err)
	}
	if len(bundles) != 0 {
		t.Errorf("Bundles after reset = %v, want none", bundles)
	}
}

func TestPutRecordReplaceKeepsOrder(t *testing.T) {
	s, ids := seedStore(t)
	ctx := context.Background()

	replacement := &record.Stored{
		RecordID:  ids[0],
		Kind:      record.KindContent,
		Bundle:    "article",
		Published: true,
		Fields:    map[string]record.Scalar{"field_tag": "updated"},
	}
	if err := s.PutRecord(ctx, replacement); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	recs, err := s.DumpRecords(ctx, record.KindContent)
	if err != nil {
		t.Fatalf("DumpRecords: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("DumpRecords = %d records, want 3", len(recs))
	}
	if recs[0].RecordID != ids[0] || recs[0].Fields["field_tag"] != "updated" {
		t.Error("replacing a record should keep its insertion position")
	}
}
