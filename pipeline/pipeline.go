// Package pipeline exports crawl results as CSV and JSONL files.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

const (
	// CategoryDir is where per-category exports land below the output root.
	CategoryDir = "solutions/categorie"
	// ImageDir is where product images land below the output root.
	ImageDir = "images"

	categoryFilePrefix = "categorie_"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("pipeline: unsupported format")

// ErrNoRecords is returned by Validate when a writer received no records.
var ErrNoRecords = errors.New("pipeline: no records written")

var separatorReplacer = strings.NewReplacer("/", "-", `\`, "-")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []*models.ProductRecord) error
	Close() error
	Validate() error
}

// Exporter writes one file set per category below an output root.
type Exporter struct {
	rootDir string
	format  string
}

// NewExporter returns an exporter for format csv, json or dual.
func NewExporter(rootDir, format string) *Exporter {
	return &Exporter{
		rootDir: rootDir,
		format:  strings.ToLower(format),
	}
}

// Export serialises records for category and returns the written paths.
// An empty record list writes nothing.
func (e *Exporter) Export(category string, records []*models.ProductRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	base := filepath.Join(e.rootDir, CategoryDir, categoryFilePrefix+SanitizeName(category))
	writer, paths, err := createWriter(e.format, base)
	if err != nil {
		return nil, err
	}

	if err := writer.Write(records); err != nil {
		writer.Close()
		return nil, fmt.Errorf("export %q: %w", category, err)
	}
	if err := writer.Validate(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("validate %q export: %w", category, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close %q export: %w", category, err)
	}
	return paths, nil
}

func createWriter(format, base string) (OutputWriter, []string, error) {
	csvPath := base + ".csv"
	jsonPath := base + ".jsonl"

	switch format {
	case "csv":
		w, err := NewCSVWriter(csvPath)
		return w, []string{csvPath}, err
	case "json":
		w, err := NewJSONWriter(jsonPath)
		return w, []string{jsonPath}, err
	case "dual":
		w, err := NewDualWriter(csvPath, jsonPath)
		return w, []string{csvPath, jsonPath}, err
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// SanitizeName replaces path separators so name stays a single path element.
func SanitizeName(name string) string {
	name = separatorReplacer.Replace(name)
	if name == "." || name == ".." {
		return strings.Repeat("-", len(name))
	}
	return name
}
