// Package capture implements the precision capture pipeline: the
// iterative crop refinement that centers a matched term within a pixel
// tolerance, and the assembler that turns refined crops into ordered,
// cap-limited artifacts.
package capture

import "math"

// Rect is an axis-aligned box in CSS pixel coordinates.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// DeviceRect is a crop rectangle in device pixels.
type DeviceRect struct {
	X int
	Y int
	W int
	H int
}

// MarkOptions controls how occurrences are located in a document.
type MarkOptions struct {
	CaseSensitive bool
	WholeWord     bool
	MaxMatches    int // per-document cap; earliest matches win
	HighlightAll  bool
}

// Match identifies one located occurrence of the search term in a
// document. Immutable once produced by the locator.
type Match struct {
	DocTitle string
	DocURL   string
	MarkID   string // DOM id of the measurable span wrapping the occurrence
	Text     string
	Index    int  // 0-based occurrence index within the document
	Box      Rect // approximate bounding box at location time, CSS px
}

// RefinedCapture is the refinement engine's result for one match.
//
// When Converged is true, |OffsetX| and |OffsetY| are both within the
// configured epsilon. Otherwise Crop is the minimum-error rectangle
// observed across the iteration budget.
type RefinedCapture struct {
	Crop       Rect // quantized to the device pixel grid, CSS px
	DPR        float64
	OffsetX    float64 // residual centering error, CSS px, signed
	OffsetY    float64
	Iterations int
	Converged  bool
}

// Device returns the crop rectangle in device pixels. Crop is quantized
// so the conversion is exact up to float rounding.
func (rc RefinedCapture) Device() DeviceRect {
	return DeviceRect{
		X: int(math.Round(rc.Crop.X * rc.DPR)),
		Y: int(math.Round(rc.Crop.Y * rc.DPR)),
		W: int(math.Round(rc.Crop.W * rc.DPR)),
		H: int(math.Round(rc.Crop.H * rc.DPR)),
	}
}

// Artifact is a refined capture written to the artifact store, with its
// position in the run's global and per-document ordering.
type Artifact struct {
	Refined  RefinedCapture
	DocTitle string
	DocURL   string
	Text     string

	GlobalIndex int // 1-based, discovery order across documents
	PageIndex   int // 1-based within the document
	Filename    string
}
