package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.MatchThreshold != 0.70 || cfg.IoUThreshold != 0.30 || cfg.MaxDetections != 10 {
		t.Fatalf("unexpected detection defaults: %+v", cfg)
	}
	if len(cfg.ColorRanges) != 3 || cfg.ColorRanges[0].Category != "green" {
		t.Fatalf("unexpected colour table: %+v", cfg.ColorRanges)
	}
}

func TestValidate_ClampsOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MatchThreshold = 3
	cfg.IoUThreshold = -1
	cfg.MatchWorkers = 0
	cfg.RetryBaseMs = 100
	cfg.RetryMaxMs = 10
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.MatchThreshold != 0.70 || cfg.IoUThreshold != 0.30 || cfg.MatchWorkers != 1 {
		t.Fatalf("clamp failed: %+v", cfg)
	}
	if cfg.RetryMaxMs != 100 {
		t.Fatalf("expected retry max raised to base, got %d", cfg.RetryMaxMs)
	}
}

func TestValidate_RejectsBadColorRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ColorRanges = append(cfg.ColorRanges, ColorRange{Category: "bad", Lower: [3]uint8{10, 0, 0}, Upper: [3]uint8{5, 0, 0}})
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for inverted bounds")
	}
}

func TestValidate_RejectsEmptyRegion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Region.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero-width region")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != DefaultConfig().Region {
		t.Fatalf("expected default region, got %+v", cfg.Region)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	body := `{"match_threshold": 0.85, "region": {"left": 1, "top": 2, "width": 30, "height": 40}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MatchThreshold != 0.85 {
		t.Fatalf("threshold not loaded: %v", cfg.MatchThreshold)
	}
	if cfg.Region != (Region{Left: 1, Top: 2, Width: 30, Height: 40}) {
		t.Fatalf("region not loaded: %+v", cfg.Region)
	}
	if cfg.IoUThreshold != 0.30 {
		t.Fatalf("unset fields should keep defaults, got iou=%v", cfg.IoUThreshold)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if cfg == nil || cfg.MatchThreshold != 0.70 {
		t.Fatalf("expected defaults alongside error")
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := DefaultConfig()
	cfg.ColorRanges = []ColorRange{{Category: "green", Lower: [3]uint8{1, 2, 3}, Upper: [3]uint8{4, 5, 6}}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.ColorRanges) != 1 || got.ColorRanges[0].Upper != [3]uint8{4, 5, 6} {
		t.Fatalf("colour table lost: %+v", got.ColorRanges)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#10ff80")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.R != 0x10 || c.G != 0xff || c.B != 0x80 || c.A != 0xff {
		t.Fatalf("unexpected colour %+v", c)
	}
	if _, err := ParseHexColor("zz"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_RangeMissingBoundIsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	body := `{"color_ranges": [{"category": "blue", "upper": [50, 50, 255]}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.ColorRanges) != 1 {
		t.Fatalf("expected only the file's range, got %+v", cfg.ColorRanges)
	}
	if got := cfg.ColorRanges[0]; got.Lower != [3]uint8{} || got.Upper != [3]uint8{50, 50, 255} {
		t.Fatalf("omitted lower bound should be zero, got %+v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoad_NoRangesKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"debug": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.ColorRanges) != len(DefaultRanges()) || cfg.ColorRanges[0] != DefaultRanges()[0] {
		t.Fatalf("expected default colour table, got %+v", cfg.ColorRanges)
	}
}

func TestValidate_KeepsMinimumThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MatchThreshold = -1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.MatchThreshold != -1 {
		t.Fatalf("threshold -1 is a legal score, got %v", cfg.MatchThreshold)
	}
}
