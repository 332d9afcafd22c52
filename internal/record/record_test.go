package record

import (
	"testing"

	"github.com/google/uuid"
)

func TestSubtypeField(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
		ok   bool
	}{
		{KindContent, "type", true},
		{KindMedia, "bundle", true},
		{Kind("taxonomy"), "", false},
		{Kind(""), "", false},
	}
	for _, tt := range tests {
		got, ok := SubtypeField(tt.kind)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SubtypeField(%q) = %q, %v; want %q, %v", tt.kind, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKindsOrder(t *testing.T) {
	got := Kinds()
	if len(got) != 2 || got[0] != KindContent || got[1] != KindMedia {
		t.Errorf("Kinds() = %v, want [content media]", got)
	}
}

func TestLabel(t *testing.T) {
	if label, ok := Label(KindMedia); !ok || label != "Media" {
		t.Errorf("Label(media) = %q, %v", label, ok)
	}
	if _, ok := Label(Kind("user")); ok {
		t.Error("Label(user) should not be ok")
	}
}

func TestParseID(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("ParseID(%q): %v", id, err)
	}
	if parsed != id {
		t.Errorf("ParseID round trip: got %v, want %v", parsed, id)
	}

	if _, err := ParseID("not-a-uuid"); err == nil {
		t.Error("ParseID should fail for garbage input")
	}
}

func TestNewIDTimeOrdered(t *testing.T) {
	a := NewID()
	b := NewID()
	if uuid.UUID(a).Version() != 7 {
		t.Errorf("NewID version = %d, want 7", uuid.UUID(a).Version())
	}
	if a == b {
		t.Error("NewID returned duplicate IDs")
	}
}

func TestCanonicalString(t *testing.T) {
	tests := []struct {
		in   Scalar
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{42, "42"},
		{int64(42), "42"},
		{float64(42), "42"},   // JSON-decoded integer
		{float64(4.25), "4.25"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := CanonicalString(tt.in); got != tt.want {
			t.Errorf("CanonicalString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty(nil) || !IsEmpty("") {
		t.Error("nil and empty string should be empty")
	}
	if IsEmpty("x") || IsEmpty(0) {
		t.Error("non-empty scalars should not be empty")
	}
}

func TestStoredFieldAccess(t *testing.T) {
	rec := &Stored{
		RecordID: NewID(),
		Kind:     KindContent,
		Bundle:   "article",
		Fields:   map[string]Scalar{"field_tag": "news"},
	}

	if !rec.HasField("field_tag") {
		t.Error("HasField(field_tag) = false, want true")
	}
	if got := rec.Field("field_tag"); got != "news" {
		t.Errorf("Field(field_tag) = %v, want news", got)
	}

	// The subtype discriminator reads as a field carrying the bundle id.
	if !rec.HasField("type") {
		t.Error("HasField(type) = false, want true")
	}
	if got := rec.Field("type"); got != "article" {
		t.Errorf("Field(type) = %v, want article", got)
	}

	if rec.HasField("missing") {
		t.Error("HasField(missing) = true, want false")
	}
	if got := rec.Field("missing"); got != nil {
		t.Errorf("Field(missing) = %v, want nil", got)
	}
}

func TestStoredMediaDiscriminator(t *testing.T) {
	rec := &Stored{
		RecordID: NewID(),
		Kind:     KindMedia,
		Bundle:   "image",
		Fields:   map[string]Scalar{},
	}
	if !rec.HasField("bundle") || rec.Field("bundle") != "image" {
		t.Error("media records should expose their bundle under the bundle field")
	}
	if rec.HasField("type") {
		t.Error("media records should not expose a type field")
	}
}

func TestStoredClone(t *testing.T) {
	rec := &Stored{
		RecordID: NewID(),
		Kind:     KindContent,
		Bundle:   "article",
		Fields:   map[string]Scalar{"field_tag": "news"},
	}
	c := rec.Clone()
	c.Fields["field_tag"] = "sports"
	if rec.Fields["field_tag"] != "news" {
		t.Error("Clone should not share the field map")
	}
}
