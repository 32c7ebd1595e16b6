// Package engine orchestrates a run: search, per-document capture with a
// bounded worker pool, ordered artifact assembly and composition script
// generation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reedalexschultz/wikisplice/internal/capture"
	"github.com/reedalexschultz/wikisplice/internal/config"
	"github.com/reedalexschultz/wikisplice/internal/mathmap"
	"github.com/reedalexschultz/wikisplice/internal/timeline"
	"github.com/reedalexschultz/wikisplice/internal/wiki"
)

// Searcher is the search collaborator: an opaque ordered source of
// documents believed to contain the term.
type Searcher interface {
	SearchBatch(ctx context.Context, query string, limit, offset int) ([]wiki.Page, error)
}

// Document is one exclusively-owned page context for the duration of a
// single document's processing.
type Document interface {
	capture.Surface
	Load(ctx context.Context, url string) error
	MarkMatches(ctx context.Context, term string, opts capture.MarkOptions) ([]string, error)
	CaptureClip(ctx context.Context, r capture.Rect) ([]byte, error)
	Close() error
}

// Renderer hands out page contexts. Each worker gets its own; contexts
// are never shared across workers.
type Renderer interface {
	NewPage(ctx context.Context) (Document, error)
}

// Result is everything a completed run produced.
type Result struct {
	Artifacts    []capture.Artifact
	JSXPath      string
	ManifestPath string
	Script       string
}

// Project wires the collaborators for one run.
type Project struct {
	Config     *config.Config
	Search     Searcher
	Render     Renderer
	Store      capture.Store
	OutDir     string
	ScreensDir string
}

// Run executes the full pipeline. Artifacts already written stay on disk
// even when the run fails afterwards; the script is only emitted for a
// completed run.
func (p *Project) Run(ctx context.Context) (*Result, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	cfg := p.Config

	variants := mathmap.Expand(cfg.Term, cfg.MathMap)
	query := wiki.BuildQuery(cfg.Term, cfg.SearchIn, variants)
	fmt.Printf("[*] Query: %s\n", query)

	asm := &capture.Assembler{
		MaxTotal:  cfg.MaxTotalMatches,
		Store:     p.Store,
		Normalize: cfg.Normalize,
		FrameW:    cfg.Width,
		FrameH:    cfg.Height,
	}

	captureStart := time.Now()
	artifacts, err := p.captureAll(ctx, query, asm)
	if err != nil {
		return nil, err
	}
	captureTime := time.Since(captureStart)

	if len(artifacts) == 0 {
		return nil, errors.New("no captures produced")
	}

	res, err := p.compose(artifacts)
	if err != nil {
		return nil, err
	}

	if cfg.ShowStats {
		fmt.Printf(
			"--- [PERFORMANCE REPORT] ---\n"+
				"Build: %s\n"+
				"Total Time: %.2fs\n"+
				"Capture: %.2fs\n"+
				"Artifacts: %d\n"+
				"----------------------------\n",
			cfg.BuildVersion, time.Since(start).Seconds(), captureTime.Seconds(), len(artifacts),
		)
	}
	return res, nil
}

// captureAll pages through search results until the global cap is hit or
// the index runs dry.
func (p *Project) captureAll(ctx context.Context, query string, asm *capture.Assembler) ([]capture.Artifact, error) {
	cfg := p.Config

	var artifacts []capture.Artifact
	offset := 0
	for asm.Total() < cfg.MaxTotalMatches {
		pages, err := p.Search.SearchBatch(ctx, query, cfg.BatchLimit, offset)
		if err != nil {
			if offset == 0 {
				// Unreachable on the very first call: terminal failure.
				return nil, fmt.Errorf("search collaborator: %w", err)
			}
			log.Printf("[!] Search batch failed at offset %d: %v", offset, err)
			break
		}
		if len(pages) == 0 {
			break
		}

		batch, hitCap, err := p.processBatch(ctx, pages, asm)
		artifacts = append(artifacts, batch...)
		if err != nil {
			return artifacts, err
		}
		if hitCap {
			fmt.Printf("[*] Global cap of %d captures reached\n", cfg.MaxTotalMatches)
			break
		}

		offset += len(pages)
		if len(pages) < cfg.BatchLimit {
			break
		}
	}
	return artifacts, nil
}

type docResult struct {
	candidates []capture.Candidate
	err        error
}

// processBatch fans one search batch out to the worker pool and collects
// candidates strictly in search order, so global indices always equal
// discovery order. Workers refine concurrently against their own page
// contexts; hitting the global cap cancels the remaining work.
func (p *Project) processBatch(parent context.Context, pages []wiki.Page, asm *capture.Assembler) ([]capture.Artifact, bool, error) {
	cfg := p.Config

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	results := make([]chan docResult, len(pages))
	for i := range results {
		results[i] = make(chan docResult, 1)
	}

	// Result channels are buffered, so scheduling every document first
	// cannot deadlock against the ordered drain below even when g.Go
	// blocks on the worker limit.
	for i, pg := range pages {
		i, pg := i, pg
		g.Go(func() error {
			doc, err := p.Render.NewPage(gctx)
			if err != nil {
				results[i] <- docResult{err: err}
				if gctx.Err() != nil {
					return nil // cancelled, not a collaborator failure
				}
				return fmt.Errorf("rendering collaborator: %w", err)
			}
			defer doc.Close()
			cands, derr := p.captureDocument(gctx, doc, pg)
			results[i] <- docResult{candidates: cands, err: derr}
			return nil
		})
	}

	var artifacts []capture.Artifact
	hitCap := false
	for i, pg := range pages {
		r := <-results[i]
		if r.err != nil {
			if gctx.Err() == nil {
				log.Printf("[skip] %s: %v", pg.Title, r.err)
			}
			continue
		}
		if hitCap {
			continue // drain remaining workers
		}
		for j, cand := range r.candidates {
			art, err := asm.Add(j+1, cand)
			if errors.Is(err, capture.ErrRunExhausted) {
				hitCap = true
				cancel()
				break
			}
			if err != nil {
				cancel()
				g.Wait()
				return artifacts, false, err
			}
			artifacts = append(artifacts, art)
			if !art.Refined.Converged {
				log.Printf("[!] %s [%d]: not converged after %d iterations (residual %.3f, %.3f)",
					art.DocTitle, art.PageIndex, art.Refined.Iterations, art.Refined.OffsetX, art.Refined.OffsetY)
			}
			fmt.Printf("[ok] %s [%d/%d] -> %s (residual: %.3f, %.3f)\n",
				art.DocTitle, j+1, len(r.candidates), art.Filename, art.Refined.OffsetX, art.Refined.OffsetY)
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return artifacts, hitCap, err
	}
	return artifacts, hitCap, nil
}

// captureDocument locates, refines and rasterizes matches on one page.
// Per-match failures are logged and skipped; a document-level failure is
// returned so the collector can log the skip.
func (p *Project) captureDocument(ctx context.Context, doc Document, pg wiki.Page) ([]capture.Candidate, error) {
	cfg := p.Config

	if err := doc.Load(ctx, pg.URL); err != nil {
		return nil, err
	}

	ids, err := doc.MarkMatches(ctx, cfg.Term, capture.MarkOptions{
		CaseSensitive: cfg.CaseSensitive,
		WholeWord:     cfg.WholeWord,
		MaxMatches:    cfg.MaxMatchesPerPage,
		HighlightAll:  cfg.HighlightAll,
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		log.Printf("[skip] No matches for %q in %s", cfg.Term, pg.Title)
		return nil, nil
	}

	refiner := &capture.Refiner{
		FrameWidth:   cfg.Width,
		FrameHeight:  cfg.Height,
		DPR:          cfg.DPR,
		TargetWordPx: cfg.TargetWordPx,
		FramingZoom:  cfg.FramingZoom,
		Epsilon:      cfg.CenterEpsPx,
		MaxIter:      cfg.CenterMaxIter,
		PadToCenter:  cfg.PadToCenter,
	}

	var cands []capture.Candidate
	for j, id := range ids {
		if len(cands) >= cfg.MaxMatchesPerPage {
			break
		}
		if err := ctx.Err(); err != nil {
			return cands, nil // cooperative stop between matches
		}

		box, ok, err := doc.MeasureMark(ctx, id)
		if err != nil || !ok {
			log.Printf("[skip] %s match %d: unmeasurable (%v)", pg.Title, j+1, err)
			continue
		}
		m := capture.Match{
			DocTitle: pg.Title,
			DocURL:   pg.URL,
			MarkID:   id,
			Text:     cfg.Term,
			Index:    j,
			Box:      box,
		}

		rc, err := refiner.Refine(ctx, doc, m)
		if err != nil {
			log.Printf("[skip] %s match %d: refine failed: %v", pg.Title, j+1, err)
			continue
		}

		png, err := doc.CaptureClip(ctx, rc.Crop)
		if err != nil {
			log.Printf("[skip] %s match %d: capture failed: %v", pg.Title, j+1, err)
			continue
		}
		cands = append(cands, capture.Candidate{Match: m, Refined: rc, PNG: png})
	}
	return cands, nil
}

// compose sequences artifacts into a timeline and writes the script and
// the run manifest.
func (p *Project) compose(artifacts []capture.Artifact) (*Result, error) {
	cfg := p.Config

	absScreens, err := filepath.Abs(p.ScreensDir)
	if err != nil {
		absScreens = p.ScreensDir
	}

	items := make([]timeline.Item, 0, len(artifacts)+1)
	for _, a := range artifacts {
		items = append(items, timeline.Item{
			Path: filepath.Join(absScreens, a.Filename),
			DX:   a.Refined.OffsetX,
			DY:   a.Refined.OffsetY,
		})
	}

	if cfg.QROutro {
		card, err := capture.OutroCard(artifacts[0].DocURL, cfg.Width, cfg.Height)
		if err != nil {
			log.Printf("[!] Outro card skipped: %v", err)
		} else if err := p.Store.Write("outro_qr.png", card); err != nil {
			log.Printf("[!] Outro card skipped: %v", err)
		} else {
			items = append(items, timeline.Item{Path: filepath.Join(absScreens, "outro_qr.png")})
		}
	}

	params := timeline.Params{
		FPS:          cfg.FPS,
		ShotDuration: cfg.ShotDuration,
		Width:        cfg.Width,
		Height:       cfg.Height,
		BaseScale:    cfg.BaseScale,
		Punch:        cfg.Punch,
		DPR:          cfg.DPR,
		CompName:     "WikiCollage",
	}
	tl, err := timeline.Generate(items, params)
	if err != nil {
		return nil, fmt.Errorf("generate timeline: %w", err)
	}
	script := tl.ScriptJSX()

	slug := capture.Slug(cfg.Term)
	jsxPath := filepath.Join(p.OutDir, fmt.Sprintf("build_wikisplice_%s.jsx", slug))
	if err := os.WriteFile(jsxPath, []byte(script), 0644); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}

	manifestPath := filepath.Join(p.OutDir, fmt.Sprintf("manifest_%s.yaml", slug))
	manifest := timeline.NewManifest(cfg.Term, params, artifacts)
	if err := timeline.WriteManifest(manifest, manifestPath); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return &Result{
		Artifacts:    artifacts,
		JSXPath:      jsxPath,
		ManifestPath: manifestPath,
		Script:       script,
	}, nil
}
