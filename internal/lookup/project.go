package lookup

import (
	"log/slog"

	"entref/internal/logging"
	"entref/internal/record"
)

// Project extracts one output value per matched record, in match order.
//
// The identifier sentinel projects the record id; otherwise the named field's
// value is projected. A record that does not carry the return field is
// skipped (not nulled) with a warning, so one malformed record cannot fail
// the whole lookup. Duplicates are preserved; exactly one field is projected
// per match, never several.
func Project(kind record.Kind, records []record.Record, returnField string, logger *slog.Logger) []record.Scalar {
	logger = logging.Default(logger)

	out := make([]record.Scalar, 0, len(records))
	for _, rec := range records {
		if returnField == ReturnRecordID {
			out = append(out, rec.ID().String())
			continue
		}
		if !rec.HasField(returnField) {
			logger.Warn("matched record does not carry return field",
				"kind", kind,
				"id", rec.ID().String(),
				"field", returnField)
			continue
		}
		out = append(out, rec.Field(returnField))
	}
	return out
}
