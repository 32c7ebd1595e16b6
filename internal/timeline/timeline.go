// Package timeline turns an ordered capture sequence into deterministic
// composition instructions for After Effects: per-layer placement, scale
// curves and frame-exact timing, serialized as a JSX script.
package timeline

import (
	"errors"
	"fmt"
	"math"
)

// Item is one capture the generator sequences: the artifact file plus
// the residual centering offsets the layer must compensate for.
type Item struct {
	Path string  // absolute path of the raster file
	DX   float64 // residual horizontal centering error, CSS px
	DY   float64 // residual vertical centering error, CSS px
}

// Params are the global timing and visual knobs of a composition.
type Params struct {
	FPS          float64
	ShotDuration float64 // seconds each capture stays on screen
	Width        int
	Height       int
	BaseScale    float64 // percent, applied on top of scale-to-fill
	Punch        float64 // end scale multiplier - 1; 0 disables the zoom
	DPR          float64 // device pixel ratio the captures were taken at
	CompName     string
}

// Layer is one animation instruction. Layers occupy disjoint, contiguous
// frame ranges; at any instant exactly one layer is visible.
type Layer struct {
	Item
	StartFrame int
	Frames     int
}

// StartTime returns the layer's in point in seconds.
func (l Layer) StartTime(fps float64) float64 { return float64(l.StartFrame) / fps }

// EndTime returns the layer's out point in seconds.
func (l Layer) EndTime(fps float64) float64 { return float64(l.StartFrame+l.Frames) / fps }

// Timeline is a fully sequenced composition.
type Timeline struct {
	Params
	Layers      []Layer
	TotalFrames int
}

// Duration returns the composition length in seconds.
func (t *Timeline) Duration() float64 { return float64(t.TotalFrames) / t.FPS }

// Generate sequences items into contiguous layers.
//
// Layer i ends at round-half-up((i+1)*ShotDuration*FPS), so its frame
// count is the difference between successive rounded totals, floored at
// one. Rounding each layer independently would accumulate the per-layer
// error linearly (7.2 frames per shot becomes 7, losing 8 frames over 40
// shots); diffusing the error through the cumulative target keeps the
// total at round(N*ShotDuration*FPS) while every start frame still
// derives from integer frame counts, never from elapsed seconds.
func Generate(items []Item, p Params) (*Timeline, error) {
	if len(items) == 0 {
		return nil, errors.New("no captures to sequence")
	}
	if p.FPS <= 0 || p.ShotDuration <= 0 {
		return nil, fmt.Errorf("invalid timing: fps=%g shot=%g", p.FPS, p.ShotDuration)
	}
	if p.CompName == "" {
		p.CompName = "WikiCollage"
	}

	rate := p.ShotDuration * p.FPS

	tl := &Timeline{Params: p, Layers: make([]Layer, 0, len(items))}
	start := 0
	for i, it := range items {
		end := int(math.Floor(float64(i+1)*rate + 0.5))
		frames := end - start
		if frames < 1 {
			frames = 1
		}
		tl.Layers = append(tl.Layers, Layer{Item: it, StartFrame: start, Frames: frames})
		start += frames
	}
	tl.TotalFrames = start
	return tl, nil
}
