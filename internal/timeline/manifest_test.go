package timeline

import (
	"path/filepath"
	"testing"

	"github.com/reedalexschultz/wikisplice/internal/capture"
)

func TestManifestRoundTrip(t *testing.T) {
	p := testParams()
	p.Punch = 0.08

	arts := []capture.Artifact{
		{
			Refined: capture.RefinedCapture{
				Crop:       capture.Rect{X: 120, Y: 340.5, W: 640, H: 360},
				DPR:        2,
				OffsetX:    0.25,
				OffsetY:    -0.125,
				Iterations: 2,
				Converged:  true,
			},
			DocTitle:    "Entropy",
			DocURL:      "https://en.wikipedia.org/wiki/Entropy",
			Text:        "entropy",
			GlobalIndex: 1,
			PageIndex:   1,
			Filename:    "001_01_Entropy.png",
		},
		{
			Refined:     capture.RefinedCapture{Iterations: 6, Converged: false},
			DocTitle:    "Heat",
			DocURL:      "https://en.wikipedia.org/wiki/Heat",
			Text:        "entropy",
			GlobalIndex: 2,
			PageIndex:   1,
			Filename:    "002_01_Heat.png",
		},
	}

	m := NewManifest("entropy", p, arts)
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := WriteManifest(m, path); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}

	if got.Term != "entropy" || got.FPS != p.FPS || got.Punch != p.Punch {
		t.Errorf("Parameters lost in round trip: %+v", got)
	}
	if len(got.Captures) != 2 {
		t.Fatalf("Expected 2 captures, got %d", len(got.Captures))
	}
	c := got.Captures[0]
	if c.File != "001_01_Entropy.png" || c.DX != 0.25 || c.DY != -0.125 || !c.Converged {
		t.Errorf("Capture entry corrupted: %+v", c)
	}
	// The crop is recorded in device pixels: CSS coordinates times DPR.
	if (c.Crop != ManifestRect{X: 240, Y: 681, W: 1280, H: 720}) {
		t.Errorf("Device crop corrupted: %+v", c.Crop)
	}
	if got.Captures[1].Converged {
		t.Error("Converged flag must survive as false")
	}
}

func TestManifestRebuildsTimeline(t *testing.T) {
	p := testParams()
	arts := []capture.Artifact{
		{Filename: "001_01_A.png", Refined: capture.RefinedCapture{OffsetX: 1.5}},
		{Filename: "002_01_B.png"},
	}
	m := NewManifest("term", p, arts)

	items := m.Items("/run/screens")
	if items[0].Path != filepath.Join("/run/screens", "001_01_A.png") {
		t.Errorf("Item path = %q", items[0].Path)
	}
	if items[0].DX != 1.5 {
		t.Errorf("Residual offset lost: %g", items[0].DX)
	}

	tl, err := Generate(items, m.Params())
	if err != nil {
		t.Fatalf("Generate from manifest failed: %v", err)
	}
	if len(tl.Layers) != 2 {
		t.Errorf("Expected 2 layers, got %d", len(tl.Layers))
	}
	if tl.FPS != p.FPS || tl.Width != p.Width {
		t.Errorf("Parameters not reconstructed: %+v", tl.Params)
	}
}
