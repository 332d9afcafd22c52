package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/theory/jsonpath"
	"golang.org/x/sync/errgroup"

	"entref/internal/logging"
	"entref/internal/record"
	"entref/internal/store"
)

// Mapping describes how to build records from source JSON documents.
// Each value is an RFC 9535 JSONPath evaluated against the document; when a
// path selects several nodes, the first one is used.
type Mapping struct {
	Kind      string            `json:"kind"`
	Bundle    string            `json:"bundle"`
	ID        string            `json:"id,omitempty"`
	Published string            `json:"published,omitempty"`
	Fields    map[string]string `json:"fields"`
}

// LoadMapping reads and compiles a mapping from a JSON file.
func LoadMapping(path string) (*CompiledMapping, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return m.Compile()
}

// CompiledMapping is a mapping with all JSONPaths parsed.
type CompiledMapping struct {
	kind      record.Kind
	bundle    string
	id        *jsonpath.Path
	published *jsonpath.Path
	fields    map[string]*jsonpath.Path
}

// Compile validates the mapping and parses its JSONPaths.
func (m Mapping) Compile() (*CompiledMapping, error) {
	kind := record.Kind(m.Kind)
	if _, ok := record.SubtypeField(kind); !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownKind, m.Kind)
	}
	if m.Bundle == "" {
		return nil, fmt.Errorf("mapping has no bundle")
	}
	if len(m.Fields) == 0 {
		return nil, fmt.Errorf("mapping has no fields")
	}

	c := &CompiledMapping{
		kind:   kind,
		bundle: m.Bundle,
		fields: make(map[string]*jsonpath.Path, len(m.Fields)),
	}

	var err error
	if m.ID != "" {
		if c.id, err = jsonpath.Parse(m.ID); err != nil {
			return nil, fmt.Errorf("id path: %w", err)
		}
	}
	if m.Published != "" {
		if c.published, err = jsonpath.Parse(m.Published); err != nil {
			return nil, fmt.Errorf("published path: %w", err)
		}
	}
	for name, path := range m.Fields {
		if c.fields[name], err = jsonpath.Parse(path); err != nil {
			return nil, fmt.Errorf("field %q path: %w", name, err)
		}
	}
	return c, nil
}

// Record builds one record from a JSON-decoded document. Fields whose path
// selects nothing are left absent; a missing published path defaults to
// published.
func (c *CompiledMapping) Record(doc any) (*record.Stored, error) {
	id := record.NewID()
	if c.id != nil {
		v, ok := first(c.id, doc)
		if !ok {
			return nil, fmt.Errorf("id path selected nothing")
		}
		parsed, err := record.ParseID(record.CanonicalString(v))
		if err != nil {
			return nil, fmt.Errorf("mapped id: %w", err)
		}
		id = parsed
	}

	published := true
	if c.published != nil {
		v, ok := first(c.published, doc)
		published = ok && truthy(v)
	}

	fields := make(map[string]record.Scalar, len(c.fields))
	for name, path := range c.fields {
		if v, ok := first(path, doc); ok {
			fields[name] = v
		}
	}

	return &record.Stored{
		RecordID:  id,
		Kind:      c.kind,
		Bundle:    c.bundle,
		Published: published,
		Fields:    fields,
	}, nil
}

// first returns the first node a path selects, if any.
func first(p *jsonpath.Path, doc any) (record.Scalar, bool) {
	nodes := p.Select(doc)
	if len(nodes) == 0 {
		return nil, false
	}
	return nodes[0], true
}

// truthy interprets a mapped published value.
func truthy(v record.Scalar) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "1" || x == "true" || x == "yes" || x == "published"
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return false
	}
}

// DiscoverFiles returns deduplicated paths of regular files matching any of
// the given glob patterns, in pattern-then-match order.
func DiscoverFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				result = append(result, m)
			}
		}
	}
	return result, nil
}

// ImportFiles imports records from every JSON file matching the patterns.
// A file may hold one document or an array of documents; one record is built
// per document. Files are decoded concurrently, then applied to the store in
// file order so import runs stay deterministic. Returns the number of
// records imported.
func ImportFiles(ctx context.Context, st store.Writer, m *CompiledMapping, patterns []string, logger *slog.Logger) (int, error) {
	logger = logging.Default(logger).With("component", "seed")

	files, err := DiscoverFiles(patterns)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	perFile := make([][]*record.Stored, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := importFile(m, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			perFile[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	imported := 0
	for i, records := range perFile {
		for _, rec := range records {
			if err := st.PutRecord(ctx, rec); err != nil {
				return imported, fmt.Errorf("%s: put record: %w", files[i], err)
			}
			imported++
		}
		logger.Debug("imported file", "path", files[i], "records", len(records))
	}
	return imported, nil
}

// importFile builds records from one JSON file.
func importFile(m *CompiledMapping, path string) ([]*record.Stored, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	docs := []any{doc}
	if list, ok := doc.([]any); ok {
		docs = list
	}

	records := make([]*record.Stored, 0, len(docs))
	for i, d := range docs {
		rec, err := m.Record(d)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
