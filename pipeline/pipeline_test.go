package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Poetry", "Poetry"},
		{"Sequential Art", "Sequential Art"},
		{"AC/DC", "AC-DC"},
		{`a\b`, "a-b"},
		{".", "-"},
		{"..", "--"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExporterWritesCategoryCSV(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, "csv")

	paths, err := exporter.Export("Poetry", []*models.ProductRecord{sampleRecord(), sampleRecord()})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	want := filepath.Join(dir, "solutions", "categorie", "categorie_Poetry.csv")
	if len(paths) != 1 || paths[0] != want {
		t.Fatalf("paths=%v, want [%s]", paths, want)
	}
	if rows := readCSV(t, want); len(rows) != 3 {
		t.Fatalf("rows=%d, want 3", len(rows))
	}
}

func TestExporterDualFormat(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, "DUAL")

	paths, err := exporter.Export("Travel", []*models.ProductRecord{sampleRecord()})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths=%v, want csv and jsonl", paths)
	}
	if filepath.Ext(paths[0]) != ".csv" || filepath.Ext(paths[1]) != ".jsonl" {
		t.Fatalf("unexpected extensions: %v", paths)
	}
	if got := countJSONLines(t, paths[1]); got != 1 {
		t.Fatalf("json lines=%d, want 1", got)
	}
}

func TestExporterSkipsEmptyCategory(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, "csv")

	paths, err := exporter.Export("Empty", nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("paths=%v, want none", paths)
	}
	if _, err := os.Stat(filepath.Join(dir, CategoryDir)); !os.IsNotExist(err) {
		t.Fatalf("expected no export directory, stat err=%v", err)
	}
}

func TestExporterUnsupportedFormat(t *testing.T) {
	exporter := NewExporter(t.TempDir(), "xml")

	_, err := exporter.Export("Poetry", []*models.ProductRecord{sampleRecord()})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err=%v, want ErrUnsupportedFormat", err)
	}
}

func TestExporterIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, "csv")
	records := []*models.ProductRecord{sampleRecord()}

	first, err := exporter.Export("Poetry", records)
	if err != nil {
		t.Fatalf("first export: %v", err)
	}
	before, err := os.ReadFile(first[0])
	if err != nil {
		t.Fatalf("read first export: %v", err)
	}

	if _, err := exporter.Export("Poetry", records); err != nil {
		t.Fatalf("second export: %v", err)
	}
	after, err := os.ReadFile(first[0])
	if err != nil {
		t.Fatalf("read second export: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("export changed between identical runs")
	}
}

func TestWriteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travel", "top_cities.csv")

	err := WriteTable(path, []string{"city", "score"}, [][]string{{"Paris", "71.2"}, {"Nice", "80.1"}})
	if err != nil {
		t.Fatalf("write table: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows=%d, want 3", len(rows))
	}
	if rows[2][0] != "Nice" || rows[2][1] != "80.1" {
		t.Fatalf("unexpected row: %v", rows[2])
	}
}
