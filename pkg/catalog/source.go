package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source fetches raw catalog records.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Record, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]Record, error) { return f(ctx) }

// document is the YAML layout of a catalog file: a flat list of attribute
// bags, each carrying its own category.
type document struct {
	Records []map[string]any `yaml:"records"`
}

// ParseYAML decodes a YAML catalog document into records.
func ParseYAML(data []byte) ([]Record, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	records := make([]Record, 0, len(doc.Records))
	for _, attrs := range doc.Records {
		records = append(records, Decode(attrs))
	}
	return records, nil
}

// FileSource reads a YAML catalog from disk on every fetch.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Path) == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseYAML(data)
}
