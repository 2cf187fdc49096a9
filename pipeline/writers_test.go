package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

func sampleRecord() *models.ProductRecord {
	rating := 2
	price := 10.5
	return &models.ProductRecord{
		Title:        "Test Book",
		Price:        "10.50",
		Availability: "In stock (3 available)",
		Rating:       "Two",
		UPC:          "a897fe39b1053632",
		Category:     "Poetry",
		ImageURL:     "http://example.test/media/img.jpg",
		ProductURL:   "http://example.test/catalogue/test-book_1/index.html",
		RatingValue:  &rating,
		PriceValue:   &price,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func countJSONLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.ProductRecord
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	return count
}

func TestCSVWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "products.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}
	for i, col := range CSVHeader {
		if rows[0][i] != col {
			t.Fatalf("header[%d]=%q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "Test Book" || rows[1][4] != "a897fe39b1053632" || rows[1][5] != "Poetry" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}

func TestCSVWriterQuotesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	record := sampleRecord()
	record.Title = `A "quoted", title`

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write([]*models.ProductRecord{record}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	rows := readCSV(t, path)
	if rows[1][0] != record.Title {
		t.Fatalf("title=%q, want %q", rows[1][0], record.Title)
	}
}

func TestJSONWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write([]*models.ProductRecord{sampleRecord(), sampleRecord()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	if got := countJSONLines(t, path); got != 2 {
		t.Fatalf("json lines=%d, want 2", got)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "products.csv")
	jsonPath := filepath.Join(dir, "products.jsonl")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if rows := readCSV(t, csvPath); len(rows) != 2 {
		t.Fatalf("csv rows=%d, want 2", len(rows))
	}
	if got := countJSONLines(t, jsonPath); got != 1 {
		t.Fatalf("json lines=%d, want 1", got)
	}
}

func TestValidateRequiresRecords(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewDualWriter(filepath.Join(dir, "empty.csv"), filepath.Join(dir, "empty.jsonl"))
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	defer writer.Close()

	if err := writer.csvWriter.Validate(); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("csv validate err=%v, want ErrNoRecords", err)
	}
	if err := writer.jsonWriter.Validate(); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("json validate err=%v, want ErrNoRecords", err)
	}
	if err := writer.Validate(); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("dual validate err=%v, want ErrNoRecords", err)
	}

	if err := writer.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate after write: %v", err)
	}
}
