package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks configuration errors detected before the run
// touches any collaborator.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config carries every knob of a run. Flags are layered over an optional
// YAML file, so every field has a yaml tag.
type Config struct {
	Term   string `yaml:"term"`
	OutDir string `yaml:"out_dir"`

	// Search
	SearchIn   string `yaml:"search_in"` // "text", "title", "both"
	MathMap    bool   `yaml:"math_map"`
	BatchLimit int    `yaml:"batch_limit"` // pages per search API call

	// Matching
	CaseSensitive     bool `yaml:"case_sensitive"`
	WholeWord         bool `yaml:"whole_word"`
	HighlightAll      bool `yaml:"highlight_all"`
	MaxMatchesPerPage int  `yaml:"max_matches_per_page"`
	MaxTotalMatches   int  `yaml:"max_total_matches"`

	// Capture geometry
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	DPR           float64 `yaml:"dpr"`
	TargetWordPx  int     `yaml:"target_word_px"`
	FramingZoom   float64 `yaml:"framing_zoom"`
	CenterEpsPx   float64 `yaml:"center_eps_px"`
	CenterMaxIter int     `yaml:"center_max_iter"`
	PadToCenter   bool    `yaml:"pad_to_center"`
	SettleMS      int     `yaml:"settle_ms"`

	// Timeline
	FPS          float64 `yaml:"fps"`
	ShotDuration float64 `yaml:"shot_duration"` // seconds per capture
	BaseScale    float64 `yaml:"base_scale"`    // percent
	Punch        float64 `yaml:"punch"`         // end scale multiplier - 1

	// Assembly extras
	Normalize bool `yaml:"normalize"`
	QROutro   bool `yaml:"qr_outro"`

	// Execution
	Workers      int    `yaml:"workers"`
	RunAE        bool   `yaml:"run_ae"`
	AEVersion    string `yaml:"ae_version"`
	ShowStats    bool   `yaml:"show_stats"`
	BuildVersion string `yaml:"-"`
}

// Default returns the baseline configuration the CLI layers flags over.
func Default() *Config {
	return &Config{
		OutDir:            "./wiki_collage",
		SearchIn:          "text",
		MathMap:           true,
		BatchLimit:        20,
		CaseSensitive:     true,
		WholeWord:         true,
		MaxMatchesPerPage: 3,
		MaxTotalMatches:   50,
		Width:             1920,
		Height:            1080,
		DPR:               3.0,
		TargetWordPx:      600,
		FramingZoom:       1.0,
		CenterEpsPx:       0.05,
		CenterMaxIter:     6,
		SettleMS:          60,
		FPS:               60.0,
		ShotDuration:      0.12,
		BaseScale:         100.0,
		Workers:           2,
		AEVersion:         "Adobe After Effects 2025",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first configuration error. A failed validation
// means the run must not start.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if c.Term == "" {
		return fail("term is required")
	}
	switch c.SearchIn {
	case "text", "title", "both":
	default:
		return fail("search_in must be text, title or both, got %q", c.SearchIn)
	}
	if c.BatchLimit < 1 {
		return fail("batch_limit must be >= 1, got %d", c.BatchLimit)
	}
	if c.MaxMatchesPerPage < 1 {
		return fail("max_matches_per_page must be >= 1, got %d", c.MaxMatchesPerPage)
	}
	if c.MaxTotalMatches < 1 {
		return fail("max_total_matches must be >= 1, got %d", c.MaxTotalMatches)
	}
	if c.Width < 2 || c.Height < 2 {
		return fail("frame size %dx%d is too small", c.Width, c.Height)
	}
	if c.DPR <= 0 {
		return fail("dpr must be positive, got %g", c.DPR)
	}
	if c.TargetWordPx < 1 {
		return fail("target_word_px must be >= 1, got %d", c.TargetWordPx)
	}
	if c.CenterEpsPx <= 0 {
		return fail("center_eps_px must be positive, got %g", c.CenterEpsPx)
	}
	if c.CenterMaxIter < 1 {
		return fail("center_max_iter must be >= 1, got %d", c.CenterMaxIter)
	}
	if c.SettleMS < 0 {
		return fail("settle_ms must be >= 0, got %d", c.SettleMS)
	}
	if c.FPS <= 0 {
		return fail("fps must be positive, got %g", c.FPS)
	}
	if c.ShotDuration <= 0 {
		return fail("shot_duration must be positive, got %g", c.ShotDuration)
	}
	if c.BaseScale <= 0 {
		return fail("base_scale must be positive, got %g", c.BaseScale)
	}
	if c.Punch < 0 {
		return fail("punch must be >= 0, got %g", c.Punch)
	}
	if c.Workers < 1 {
		return fail("workers must be >= 1, got %d", c.Workers)
	}
	return nil
}
