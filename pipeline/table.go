package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteTable writes header and rows to path as CSV, replacing any existing file.
func WriteTable(path string, header []string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table %q: %w", path, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write table header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write table rows: %w", err)
	}
	return f.Close()
}
