package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

// Region is the screen rectangle sampled every cycle.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ColorRange maps a category name to inclusive per-channel RGB bounds.
type ColorRange struct {
	Category string   `json:"category"`
	Lower    [3]uint8 `json:"lower"`
	Upper    [3]uint8 `json:"upper"`
}

// Config holds runtime configuration for detection and app behavior.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug    bool `json:"debug"`
	Headless bool `json:"headless"`

	// Template gallery
	TemplateDir       string `json:"template_dir"`
	AllowEmpty        bool   `json:"allow_empty_gallery"`
	Background        string `json:"background"`
	DuplicateDistance int    `json:"duplicate_distance"`

	// Capture
	Region         Region `json:"region"`
	CaptureBackend string `json:"capture_backend"`

	// Detection parameters
	MatchBackend   string       `json:"match_backend"`
	MatchWorkers   int          `json:"match_workers"`
	MatchThreshold float64      `json:"match_threshold"`
	IoUThreshold   float64      `json:"iou_threshold"`
	MaxDetections  int          `json:"max_detections"`
	ColorRanges    []ColorRange `json:"color_ranges"`

	// Loop control
	IntervalMs         int `json:"interval_ms"`
	MaxCaptureFailures int `json:"max_capture_failures"`
	MaxPresentFailures int `json:"max_present_failures"`
	RetryBaseMs        int `json:"retry_base_ms"`
	RetryMaxMs         int `json:"retry_max_ms"`
	StatsIntervalSec   int `json:"stats_interval_s"`

	// Window
	WindowTitle string `json:"window_title"`
	PreviewMaxW int    `json:"preview_max_w"`
	PreviewMaxH int    `json:"preview_max_h"`
}

// DefaultRanges returns the GREEN/BLUE/RED border table in RGB order.
func DefaultRanges() []ColorRange {
	return []ColorRange{
		{Category: "green", Lower: [3]uint8{0, 200, 0}, Upper: [3]uint8{50, 255, 50}},
		{Category: "blue", Lower: [3]uint8{0, 0, 200}, Upper: [3]uint8{50, 50, 255}},
		{Category: "red", Lower: [3]uint8{200, 0, 0}, Upper: [3]uint8{255, 50, 50}},
	}
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:              false,
		Headless:           false,
		TemplateDir:        "templates",
		AllowEmpty:         false,
		Background:         "#000000",
		DuplicateDistance:  2,
		Region:             Region{Left: 100, Top: 100, Width: 300, Height: 300},
		CaptureBackend:     "screenshot",
		MatchBackend:       "ncc",
		MatchWorkers:       1,
		MatchThreshold:     0.70,
		IoUThreshold:       0.30,
		MaxDetections:      10,
		ColorRanges:        DefaultRanges(),
		IntervalMs:         10,
		MaxCaptureFailures: 5,
		MaxPresentFailures: 5,
		RetryBaseMs:        50,
		RetryMaxMs:         1000,
		StatsIntervalSec:   5,
		WindowTitle:        "Minimap Detection",
		PreviewMaxW:        600,
		PreviewMaxH:        600,
	}
}

// Validate clamps/normalizes values to safe ranges. Structural problems that
// cannot be clamped (bad colour table, unparsable background) are returned.
func (c *Config) Validate() error {
	if c.MatchThreshold < -1 || c.MatchThreshold > 1 {
		c.MatchThreshold = 0.70
	}
	if c.IoUThreshold <= 0 || c.IoUThreshold > 1 {
		c.IoUThreshold = 0.30
	}
	if c.MaxDetections < 0 {
		c.MaxDetections = 10
	}
	if c.MatchWorkers <= 0 {
		c.MatchWorkers = 1
	}
	if c.IntervalMs < 0 {
		c.IntervalMs = 10
	}
	if c.MaxCaptureFailures < 0 {
		c.MaxCaptureFailures = 5
	}
	if c.MaxPresentFailures < 0 {
		c.MaxPresentFailures = 5
	}
	if c.RetryBaseMs <= 0 {
		c.RetryBaseMs = 50
	}
	if c.RetryMaxMs < c.RetryBaseMs {
		c.RetryMaxMs = c.RetryBaseMs
	}
	if c.StatsIntervalSec <= 0 {
		c.StatsIntervalSec = 5
	}
	if c.PreviewMaxW < 50 {
		c.PreviewMaxW = 50
	}
	if c.PreviewMaxH < 50 {
		c.PreviewMaxH = 50
	}
	if c.CaptureBackend == "" {
		c.CaptureBackend = "screenshot"
	}
	if c.MatchBackend == "" {
		c.MatchBackend = "ncc"
	}
	if c.WindowTitle == "" {
		c.WindowTitle = "Minimap Detection"
	}
	var errs []error
	if c.Region.Width <= 0 || c.Region.Height <= 0 {
		errs = append(errs, fmt.Errorf("config: region must have positive size, got %dx%d", c.Region.Width, c.Region.Height))
	}
	if _, err := ParseHexColor(c.Background); err != nil {
		errs = append(errs, err)
	}
	for i, r := range c.ColorRanges {
		if strings.TrimSpace(r.Category) == "" {
			errs = append(errs, fmt.Errorf("config: color_ranges[%d]: empty category", i))
		}
		for ch := 0; ch < 3; ch++ {
			if r.Lower[ch] > r.Upper[ch] {
				errs = append(errs, fmt.Errorf("config: color_ranges[%d] (%s): lower > upper on channel %d", i, r.Category, ch))
			}
		}
	}
	return errors.Join(errs...)
}

// BackgroundColor returns the parsed flattening background, falling back to black.
func (c *Config) BackgroundColor() color.NRGBA {
	col, err := ParseHexColor(c.Background)
	if err != nil {
		return color.NRGBA{A: 0xFF}
	}
	return col
}

// ParseHexColor parses "#rrggbb" (leading # optional) into an opaque colour.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("config: invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("config: invalid hex colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	p, err := xdg.ConfigFile(filepath.Join("minimap-watch", "config.json"))
	if err != nil {
		return "config.json"
	}
	return p
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	// Decoding into the default slice would merge each file entry with the
	// default range at the same index, so ranges start empty.
	cfg.ColorRanges = nil
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	if cfg.ColorRanges == nil {
		cfg.ColorRanges = DefaultRanges()
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
