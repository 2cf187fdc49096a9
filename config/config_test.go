package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "negative max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = -1
			},
			wantErr: "max pages",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "negative delay",
			mutate: func(cfg *Config) {
				cfg.Delay = -1 * time.Second
			},
			wantErr: "delay",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "empty output dir",
			mutate: func(cfg *Config) {
				cfg.OutputDir = ""
			},
			wantErr: "output directory",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultConfig()
	if cfg.BaseURL != def.BaseURL || cfg.OutputDir != def.OutputDir || cfg.OutputFormat != def.OutputFormat {
		t.Fatalf("loaded %+v, want defaults %+v", cfg, def)
	}
	if cfg.MaxPages != 0 || cfg.Delay != 0 {
		t.Fatalf("max pages/delay = %d/%v, want 0/0", cfg.MaxPages, cfg.Delay)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scraper.yaml")
	content := "categorie: Travel\nmax-pages: 3\noutdir: from-file\nformat: json\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SCRAPER_MAX_PAGES", "7")
	t.Setenv("SCRAPER_DELAY", "0.5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("outdir", "outputs", "")
	flags.String("format", "csv", "")
	if err := flags.Parse([]string{"--outdir", "from-flag"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Category != "Travel" {
		t.Fatalf("category = %q, want Travel (file)", cfg.Category)
	}
	if cfg.MaxPages != 7 {
		t.Fatalf("max pages = %d, want 7 (env over file)", cfg.MaxPages)
	}
	if cfg.Delay != 500*time.Millisecond {
		t.Fatalf("delay = %v, want 500ms", cfg.Delay)
	}
	if cfg.OutputDir != "from-flag" {
		t.Fatalf("outdir = %q, want from-flag (flag over file)", cfg.OutputDir)
	}
	if cfg.OutputFormat != "json" {
		t.Fatalf("format = %q, want json (file over unchanged flag)", cfg.OutputFormat)
	}
}

func TestTravelConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TravelConfig)
		wantErr string
	}{
		{name: "missing key", mutate: func(c *TravelConfig) { c.APIKey = "" }, wantErr: "API key"},
		{name: "no cities", mutate: func(c *TravelConfig) { c.Cities = nil }, wantErr: "city list"},
		{name: "zero top", mutate: func(c *TravelConfig) { c.TopN = 0 }, wantErr: "top"},
		{name: "bad booking url", mutate: func(c *TravelConfig) { c.BookingURL = "booking" }, wantErr: "booking URL"},
		{name: "negative delay", mutate: func(c *TravelConfig) { c.NominatimDelay = -time.Second }, wantErr: "delays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTravelConfig()
			cfg.APIKey = "key"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadTravelReadsEnvironment(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "secret")
	t.Setenv("SCRAPER_CITIES", "Paris, Le Havre ,Lyon")
	t.Setenv("SCRAPER_NOMINATIM_DELAY", "0s")

	cfg, err := LoadTravel("", nil)
	if err != nil {
		t.Fatalf("load travel: %v", err)
	}
	if cfg.APIKey != "secret" {
		t.Fatalf("api key = %q, want secret", cfg.APIKey)
	}
	want := []string{"Paris", "Le Havre", "Lyon"}
	if strings.Join(cfg.Cities, "|") != strings.Join(want, "|") {
		t.Fatalf("cities = %v, want %v", cfg.Cities, want)
	}
	if cfg.NominatimDelay != 0 {
		t.Fatalf("nominatim delay = %v, want 0", cfg.NominatimDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}
}
