package capture

import (
	"context"
	"errors"
	"math"
)

// ErrMarkVanished reports that a mark could no longer be measured, e.g.
// because a reflow dropped the element. The caller skips the match.
var ErrMarkVanished = errors.New("mark vanished during refinement")

// Surface is the refinement engine's view of the rendering collaborator:
// a single exclusively-owned page context. Implementations must keep
// layout stable between MeasureMark calls unless InsertPadding is used.
type Surface interface {
	// MeasureMark returns the current bounding box of a marked
	// occurrence in document CSS coordinates. ok is false when the
	// element no longer exists or has collapsed to zero size.
	MeasureMark(ctx context.Context, markID string) (box Rect, ok bool, err error)

	// PageSize returns the full document extent in CSS pixels.
	PageSize(ctx context.Context) (w, h float64, err error)

	// InsertPadding grows the document at its top and bottom edges and
	// waits for layout to settle before returning.
	InsertPadding(ctx context.Context, top, bottom float64) error
}

// Refiner computes minimal, match-centered crop rectangles.
type Refiner struct {
	FrameWidth   int     // composition frame width, px
	FrameHeight  int     // composition frame height, px
	DPR          float64 // device pixel ratio of the final raster
	TargetWordPx int     // desired matched-text width in frame pixels
	FramingZoom  float64 // >1 widens the window around the match
	Epsilon      float64 // centering tolerance, CSS px, per axis
	MaxIter      int
	PadToCenter  bool
}

// Refine runs the bounded fixed-point centering loop for one match.
//
// Each pass re-measures the mark, computes the signed offset between the
// match center and the crop center, and translates the crop by the
// negative offset, clamped to the document bounds. A match pinned
// against a document edge with PadToCenter disabled therefore burns the
// whole budget and comes back with Converged=false; that is the designed
// soft degradation, not a failure.
func (r *Refiner) Refine(ctx context.Context, surf Surface, m Match) (RefinedCapture, error) {
	aspect := float64(r.FrameWidth) / float64(r.FrameHeight)

	box, ok, err := surf.MeasureMark(ctx, m.MarkID)
	if err != nil {
		return RefinedCapture{}, err
	}
	if !ok || box.W <= 0 || box.H <= 0 {
		return RefinedCapture{}, ErrMarkVanished
	}

	// Size the window so the word lands at TargetWordPx after scaling to
	// the frame, then widen by the framing zoom. Scale compensation in
	// the timeline keeps the on-screen word size constant.
	cw := math.Max(32.0, float64(r.FrameWidth)*box.W/math.Max(1.0, float64(r.TargetWordPx)))
	cw *= math.Max(0.25, r.FramingZoom)
	ch := cw / aspect
	cw = r.quant(cw)
	ch = r.quant(ch)

	cx, cy := box.CenterX(), box.CenterY()
	x := cx - cw/2
	y := cy - ch/2

	if r.PadToCenter {
		_, pageH, err := surf.PageSize(ctx)
		if err != nil {
			return RefinedCapture{}, err
		}
		padTop := math.Max(0, -y)
		padBottom := math.Max(0, y+ch-pageH)
		if padTop > 0 || padBottom > 0 {
			if err := surf.InsertPadding(ctx, padTop, padBottom); err != nil {
				return RefinedCapture{}, err
			}
			// Padding reflows the document; the mark has moved.
			box, ok, err = surf.MeasureMark(ctx, m.MarkID)
			if err != nil {
				return RefinedCapture{}, err
			}
			if !ok || box.W <= 0 || box.H <= 0 {
				return RefinedCapture{}, ErrMarkVanished
			}
			cx, cy = box.CenterX(), box.CenterY()
			x = cx - cw/2
			y = cy - ch/2
		}
	}

	pageW, pageH, err := surf.PageSize(ctx)
	if err != nil {
		return RefinedCapture{}, err
	}
	x = clamp(x, 0, pageW-cw)
	y = clamp(y, 0, pageH-ch)

	best := RefinedCapture{DPR: r.DPR, Converged: false}
	bestErr := math.Inf(1)
	iters := 0

	for iters < r.MaxIter {
		iters++

		box, ok, err = surf.MeasureMark(ctx, m.MarkID)
		if err != nil {
			return RefinedCapture{}, err
		}
		if !ok {
			return RefinedCapture{}, ErrMarkVanished
		}
		cx, cy = box.CenterX(), box.CenterY()

		dx := cx - (x + cw/2)
		dy := cy - (y + ch/2)

		if e := math.Max(math.Abs(dx), math.Abs(dy)); e < bestErr {
			bestErr = e
			best.Crop = Rect{X: x, Y: y, W: cw, H: ch}
			best.OffsetX = dx
			best.OffsetY = dy
		}

		if math.Abs(dx) <= r.Epsilon && math.Abs(dy) <= r.Epsilon {
			best.Converged = true
			best.Crop = Rect{X: x, Y: y, W: cw, H: ch}
			best.OffsetX = dx
			best.OffsetY = dy
			break
		}

		// Move the window to cancel the error. Clamping at a document
		// edge is what prevents convergence for boundary matches.
		x = clamp(x+dx, 0, pageW-cw)
		y = clamp(y+dy, 0, pageH-ch)
	}

	best.Iterations = iters
	best.Crop = r.clampCrop(best.Crop, pageW, pageH)
	return best, nil
}

// quant snaps a CSS length onto the device pixel grid, with a floor of
// one device pixel.
func (r *Refiner) quant(v float64) float64 {
	return math.Max(1.0/r.DPR, r.snap(v))
}

// snap aligns a CSS coordinate to the device pixel grid without the
// length floor, so an edge-pinned crop can sit exactly at zero.
func (r *Refiner) snap(v float64) float64 {
	return math.Round(v*r.DPR) / r.DPR
}

// clampCrop trims the rectangle to the document and quantizes it, so the
// raster clip is always valid and integral in device pixels.
func (r *Refiner) clampCrop(c Rect, pageW, pageH float64) Rect {
	if c.X < 0 {
		c.W += c.X
		c.X = 0
	}
	if c.Y < 0 {
		c.H += c.Y
		c.Y = 0
	}
	if c.X+c.W > pageW {
		c.W = pageW - c.X
	}
	if c.Y+c.H > pageH {
		c.H = pageH - c.Y
	}
	minCSS := 1.0 / math.Max(1.0, r.DPR)
	c.W = math.Max(minCSS, c.W)
	c.H = math.Max(minCSS, c.H)
	return Rect{X: r.snap(c.X), Y: r.snap(c.Y), W: r.quant(c.W), H: r.quant(c.H)}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
