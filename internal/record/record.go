// Package record defines the content record model shared by the store
// backends and the lookup core.
//
// A record belongs to an entity kind (content, media) and a bundle within
// that kind (e.g. "article" within content). The set of supported kinds is
// closed and table-driven: adding a kind means adding a registry entry, not
// touching the lookup engine.
package record

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

var ErrInvalidID = errors.New("invalid record id")

// Kind is the category of content record.
type Kind string

const (
	// KindContent holds editorial content records (articles, pages, ...).
	KindContent Kind = "content"

	// KindMedia holds media records (images, documents, ...). Media stores
	// its subtype under "bundle" rather than the generic "type".
	KindMedia Kind = "media"
)

// kindInfo describes how a kind is represented in the store.
type kindInfo struct {
	// subtypeField is the store-internal field name holding the bundle id.
	subtypeField string
	label        string
}

// kinds is the closed registry of supported entity kinds, in display order.
// The lookup engine and the store backends both consult this table; a kind
// absent from it has no storage handler.
var kinds = []struct {
	kind Kind
	info kindInfo
}{
	{KindContent, kindInfo{subtypeField: "type", label: "Content"}},
	{KindMedia, kindInfo{subtypeField: "bundle", label: "Media"}},
}

// Kinds returns the supported entity kinds in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	for i, k := range kinds {
		out[i] = k.kind
	}
	return out
}

// SubtypeField returns the store-internal field name that holds the bundle
// id for the given kind. ok is false for unsupported kinds.
func SubtypeField(k Kind) (string, bool) {
	for _, e := range kinds {
		if e.kind == k {
			return e.info.subtypeField, true
		}
	}
	return "", false
}

// Label returns the display label for the given kind.
func Label(k Kind) (string, bool) {
	for _, e := range kinds {
		if e.kind == k {
			return e.info.label, true
		}
	}
	return "", false
}

// ID identifies a record within the store.
type ID uuid.UUID

// NewID returns a new time-ordered record ID.
func NewID() ID {
	return ID(uuid.Must(uuid.NewV7()))
}

// ParseID parses the canonical string form of a record ID.
func ParseID(value string) (ID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	return ID(parsed), nil
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Scalar is an opaque equality-comparable field value: a string or a number.
// Scalars are compared via their canonical string form so that JSON-decoded
// numbers and typed values match consistently.
type Scalar = any

// CanonicalString renders a scalar in its store comparison form.
func CanonicalString(v Scalar) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return canonicalFloat(float64(x))
	case float64:
		return canonicalFloat(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// canonicalFloat renders whole floats without a fraction so that the float64
// values produced by encoding/json compare equal to integer field values.
func canonicalFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// IsEmpty reports whether a scalar carries no value to look up.
func IsEmpty(v Scalar) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Record is the narrow handle the lookup core needs: identity plus
// field presence and value. Each store backend implements it once.
type Record interface {
	ID() ID
	HasField(name string) bool
	Field(name string) Scalar
}

// Stored is the concrete record held by the store backends.
type Stored struct {
	RecordID  ID
	Kind      Kind
	Bundle    string
	Published bool
	Fields    map[string]Scalar
}

var _ Record = (*Stored)(nil)

func (s *Stored) ID() ID {
	return s.RecordID
}

// HasField reports whether the record carries the named field. The kind's
// subtype discriminator counts as a field and answers with the bundle id.
func (s *Stored) HasField(name string) bool {
	if sub, ok := SubtypeField(s.Kind); ok && name == sub {
		return true
	}
	_, ok := s.Fields[name]
	return ok
}

// Field returns the named field's value, or nil if absent.
func (s *Stored) Field(name string) Scalar {
	if sub, ok := SubtypeField(s.Kind); ok && name == sub {
		return s.Bundle
	}
	return s.Fields[name]
}

// Clone returns a deep-enough copy: the field map is copied, values are
// scalars and shared.
func (s *Stored) Clone() *Stored {
	fields := make(map[string]Scalar, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	return &Stored{
		RecordID:  s.RecordID,
		Kind:      s.Kind,
		Bundle:    s.Bundle,
		Published: s.Published,
		Fields:    fields,
	}
}
