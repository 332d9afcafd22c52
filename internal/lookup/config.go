// Package lookup implements the field lookup step used during content
// import: match an input value against one field of a kind/bundle's records
// and project another field (or the record id) from each match.
//
// The step never fails the item it is processing. Incomplete configuration,
// empty input, no matches, and store errors all degrade to returning the
// original input unchanged; only unexpected conditions are logged.
package lookup

import (
	"strings"

	"entref/internal/record"
)

// ReturnRecordID is the return-field sentinel that projects the matched
// record's identifier instead of a field value.
const ReturnRecordID = "record_id"

// Config is the raw per-step configuration, typically decoded from an import
// pipeline definition. A lookup only executes when EntityKind, Bundle, and
// LookupField are all set; ReturnField defaults to ReturnRecordID.
type Config struct {
	EntityKind  string `json:"entity_kind"`
	Bundle      string `json:"bundle"`
	LookupField string `json:"lookup_field"`
	ReturnField string `json:"return_field"`
}

// validConfig is a resolved configuration ready for lookup.
type validConfig struct {
	kind        record.Kind
	bundle      string
	lookupField string
	returnField string
}

// resolve validates and normalizes the configuration. ok is false when a
// required key is missing, which callers treat as "pass the input through
// unchanged". Pure; no side effects, no logging.
func (c Config) resolve() (validConfig, bool) {
	kind := strings.TrimSpace(c.EntityKind)
	bundle := strings.TrimSpace(c.Bundle)
	lookupField := strings.TrimSpace(c.LookupField)
	if kind == "" || bundle == "" || lookupField == "" {
		return validConfig{}, false
	}

	returnField := strings.TrimSpace(c.ReturnField)
	if returnField == "" {
		returnField = ReturnRecordID
	}

	return validConfig{
		kind:        record.Kind(kind),
		bundle:      bundle,
		lookupField: lookupField,
		returnField: returnField,
	}, true
}

// Values normalizes a transform input to the list of scalars to match.
// Scalars become one-element lists; nils and empty strings are dropped.
// An empty result means there is nothing to look up.
func Values(input any) []record.Scalar {
	switch v := input.(type) {
	case nil:
		return nil
	case []record.Scalar:
		var out []record.Scalar
		for _, item := range v {
			if !record.IsEmpty(item) {
				out = append(out, item)
			}
		}
		return out
	case []string:
		var out []record.Scalar
		for _, item := range v {
			if item != "" {
				out = append(out, item)
			}
		}
		return out
	default:
		if record.IsEmpty(v) {
			return nil
		}
		return []record.Scalar{v}
	}
}
