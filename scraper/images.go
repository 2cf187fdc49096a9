package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/pipeline"
)

const maxImageNameLength = 60

// ImageRetriever downloads product images into per-category folders.
type ImageRetriever struct {
	fetcher *Fetcher
	rootDir string
	metrics *Metrics
}

// NewImageRetriever stores images below rootDir.
func NewImageRetriever(fetcher *Fetcher, rootDir string, metrics *Metrics) *ImageRetriever {
	return &ImageRetriever{
		fetcher: fetcher,
		rootDir: rootDir,
		metrics: metrics,
	}
}

// Retrieve fetches the record's image and writes it to disk. It reports
// whether a file was written. A record without an image, a failed fetch or a
// non-2xx response is skipped without error; only local write failures are
// returned.
func (ir *ImageRetriever) Retrieve(ctx context.Context, record *models.ProductRecord) (string, bool, error) {
	if !record.HasImage() {
		return "", false, nil
	}

	page, err := ir.fetcher.Fetch(ctx, record.ImageURL, KindImage)
	if err != nil {
		ir.metrics.IncImage("skipped")
		slog.Debug("image skipped",
			slog.String("url", record.ImageURL),
			slog.Any("error", err),
		)
		return "", false, nil
	}

	path := ImagePath(ir.rootDir, record)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("create image directory: %w", err)
	}
	if err := os.WriteFile(path, page.Body, 0o644); err != nil {
		return "", false, fmt.Errorf("write image %q: %w", path, err)
	}
	ir.metrics.IncImage("saved")
	return path, true, nil
}

// ImagePath is where the record's image is stored:
// <root>/<category>/<title, at most 60 characters>.jpg
func ImagePath(rootDir string, record *models.ProductRecord) string {
	folder := pipeline.SanitizeName(record.Category)
	if folder == "" {
		folder = models.UnknownValue
	}
	return filepath.Join(rootDir, folder, ImageFileName(record.Title))
}

// ImageFileName builds the file name of a product image from its title.
func ImageFileName(title string) string {
	name := pipeline.SanitizeName(title)
	if runes := []rune(name); len(runes) > maxImageNameLength {
		name = string(runes[:maxImageNameLength])
	}
	return name + ".jpg"
}
