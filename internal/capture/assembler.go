package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"regexp"

	xdraw "golang.org/x/image/draw"
)

// ErrRunExhausted signals that the global capture cap has been reached.
// It is cooperative early termination, not a failure.
var ErrRunExhausted = errors.New("global capture cap reached")

// Store is the artifact sink: a filename -> raster-bytes write that is
// assumed durable once it returns nil.
type Store interface {
	Write(name string, data []byte) error
}

// Candidate is a refined capture plus its raster, produced by a document
// worker and not yet admitted into the run's ordering.
type Candidate struct {
	Match   Match
	Refined RefinedCapture
	PNG     []byte
}

// Assembler admits candidates in discovery order, enforces the per-run
// cap, names artifacts and writes them to the store. It is driven by a
// single collector goroutine and is not safe for concurrent use; the
// counters it keeps are the run's only mutable shared state.
type Assembler struct {
	MaxTotal  int
	Store     Store
	Normalize bool // rescale rasters to FrameW x FrameH before writing
	FrameW    int
	FrameH    int

	total int
}

// Total returns the number of artifacts written so far.
func (a *Assembler) Total() int { return a.total }

// Add writes one candidate as the next artifact of the run. pageIndex is
// the 1-based position within the candidate's document. Returns
// ErrRunExhausted once the global cap is reached; the candidate is not
// written in that case. The counter only advances after a successful
// store write, so an artifact is never counted without existing.
func (a *Assembler) Add(pageIndex int, c Candidate) (Artifact, error) {
	if a.total >= a.MaxTotal {
		return Artifact{}, ErrRunExhausted
	}

	data := c.PNG
	if a.Normalize {
		scaled, err := a.normalize(data)
		if err != nil {
			return Artifact{}, fmt.Errorf("normalize capture: %w", err)
		}
		data = scaled
	}

	name := fmt.Sprintf("%03d_%02d_%s.png", a.total+1, pageIndex, Slug(c.Match.DocTitle))
	if err := a.Store.Write(name, data); err != nil {
		return Artifact{}, fmt.Errorf("write artifact %s: %w", name, err)
	}
	a.total++

	return Artifact{
		Refined:     c.Refined,
		DocTitle:    c.Match.DocTitle,
		DocURL:      c.Match.DocURL,
		Text:        c.Match.Text,
		GlobalIndex: a.total,
		PageIndex:   pageIndex,
		Filename:    name,
	}, nil
}

// normalize decodes, rescales to the frame size with CatmullRom and
// re-encodes, so downstream import needs no per-layer fitting.
func (a *Assembler) normalize(data []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() == a.FrameW && b.Dy() == a.FrameH {
		return data, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, a.FrameW, a.FrameH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	slugUnsafe = regexp.MustCompile(`[\\/:*?"<>|]`)
	slugSpace  = regexp.MustCompile(`\s+`)
)

// Slug makes a document title safe to use as a filename component.
func Slug(s string) string {
	s = slugUnsafe.ReplaceAllString(s, "_")
	s = slugSpace.ReplaceAllString(s, "_")
	if len(s) > 140 {
		s = s[:140]
	}
	if s == "" {
		return "untitled"
	}
	return s
}
