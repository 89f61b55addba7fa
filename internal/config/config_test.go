package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Format != FormatTaylor {
		t.Errorf("default format = %q, want taylor", cfg.Logging.Format)
	}
}

func TestLoadParsesHostsAndIndexesThem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uuship.json5")
	doc := `{
		// trailing comments are fine, json5 is tolerant
		"spool": {"root": "/spool", "lock_dir": "/spool/LCK", "default_grade": "n"},
		"hosts": [
			{"name": "beta", "public_dir": "/spool/beta/PUBLIC", "default_grade": "d"},
		],
	}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	h, ok := cfg.Host("beta")
	if !ok {
		t.Fatal("host beta not indexed")
	}
	if h.SpoolDir != "/spool/beta" {
		t.Errorf("SpoolDir = %q, want /spool/beta", h.SpoolDir)
	}
	if h.DefaultGrade != "d" {
		t.Errorf("DefaultGrade = %q, want d", h.DefaultGrade)
	}

	if _, ok := cfg.Host("nosuch"); ok {
		t.Error("unexpected host found")
	}
}

func TestSynthesize(t *testing.T) {
	cfg := Default()
	h := cfg.Synthesize("gamma")
	if h.Name != "gamma" || h.SpoolDir != "/var/spool/uuship/gamma" {
		t.Errorf("Synthesize = %+v", h)
	}
}
