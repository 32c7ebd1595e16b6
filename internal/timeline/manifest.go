package timeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/reedalexschultz/wikisplice/internal/capture"
)

// Manifest records a complete run: the parameters and every artifact
// with its residual geometry. A manifest is enough to regenerate the
// composition script without re-capturing.
type Manifest struct {
	Version      string            `yaml:"version"`
	Term         string            `yaml:"term"`
	Width        int               `yaml:"width"`
	Height       int               `yaml:"height"`
	FPS          float64           `yaml:"fps"`
	ShotDuration float64           `yaml:"shot_duration"`
	BaseScale    float64           `yaml:"base_scale"`
	Punch        float64           `yaml:"punch"`
	DPR          float64           `yaml:"dpr"`
	Captures     []ManifestCapture `yaml:"captures"`
}

// ManifestCapture is one artifact's entry.
type ManifestCapture struct {
	File        string       `yaml:"file"` // relative to the screens directory
	Title       string       `yaml:"title"`
	URL         string       `yaml:"url"`
	Text        string       `yaml:"text"`
	GlobalIndex int          `yaml:"global_index"`
	PageIndex   int          `yaml:"page_index"`
	Crop        ManifestRect `yaml:"crop_device_px"`
	DX          float64      `yaml:"dx_css"`
	DY          float64      `yaml:"dy_css"`
	Iterations  int          `yaml:"iterations"`
	Converged   bool         `yaml:"converged"`
}

// ManifestRect is the final crop rectangle in device pixels, matching
// the raster's actual dimensions.
type ManifestRect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// NewManifest builds a manifest from the run's artifacts.
func NewManifest(term string, p Params, arts []capture.Artifact) *Manifest {
	m := &Manifest{
		Version:      "1.0",
		Term:         term,
		Width:        p.Width,
		Height:       p.Height,
		FPS:          p.FPS,
		ShotDuration: p.ShotDuration,
		BaseScale:    p.BaseScale,
		Punch:        p.Punch,
		DPR:          p.DPR,
	}
	for _, a := range arts {
		dev := a.Refined.Device()
		m.Captures = append(m.Captures, ManifestCapture{
			File:        a.Filename,
			Title:       a.DocTitle,
			URL:         a.DocURL,
			Text:        a.Text,
			GlobalIndex: a.GlobalIndex,
			PageIndex:   a.PageIndex,
			Crop:        ManifestRect{X: dev.X, Y: dev.Y, W: dev.W, H: dev.H},
			DX:          a.Refined.OffsetX,
			DY:          a.Refined.OffsetY,
			Iterations:  a.Refined.Iterations,
			Converged:   a.Refined.Converged,
		})
	}
	return m
}

// Items maps manifest captures to generator items, resolving files
// against the screens directory.
func (m *Manifest) Items(screensDir string) []Item {
	items := make([]Item, 0, len(m.Captures))
	for _, c := range m.Captures {
		items = append(items, Item{
			Path: filepath.Join(screensDir, c.File),
			DX:   c.DX,
			DY:   c.DY,
		})
	}
	return items
}

// Params reconstructs generator parameters from the manifest.
func (m *Manifest) Params() Params {
	return Params{
		FPS:          m.FPS,
		ShotDuration: m.ShotDuration,
		Width:        m.Width,
		Height:       m.Height,
		BaseScale:    m.BaseScale,
		Punch:        m.Punch,
		DPR:          m.DPR,
	}
}

// WriteManifest writes a manifest as YAML.
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}
