package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/reedalexschultz/wikisplice/internal/capture"
	"github.com/reedalexschultz/wikisplice/internal/config"
	"github.com/reedalexschultz/wikisplice/internal/wiki"
)

type fakeSearcher struct {
	pages []wiki.Page
	err   error
}

func (s *fakeSearcher) SearchBatch(ctx context.Context, query string, limit, offset int) ([]wiki.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.pages) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.pages) {
		end = len(s.pages)
	}
	return s.pages[offset:end], nil
}

// fakeDoc is a stable page: every mark measures to the same interior
// box, so refinement converges on the first pass.
type fakeDoc struct {
	marks int
}

func (d *fakeDoc) Load(ctx context.Context, url string) error { return nil }

func (d *fakeDoc) MarkMatches(ctx context.Context, term string, opts capture.MarkOptions) ([]string, error) {
	ids := make([]string, d.marks)
	for i := range ids {
		ids[i] = fmt.Sprintf("ws_mark_%d", i)
	}
	return ids, nil
}

func (d *fakeDoc) MeasureMark(ctx context.Context, markID string) (capture.Rect, bool, error) {
	return capture.Rect{X: 850, Y: 980, W: 300, H: 40}, true, nil
}

func (d *fakeDoc) PageSize(ctx context.Context) (float64, float64, error) {
	return 2000, 4000, nil
}

func (d *fakeDoc) InsertPadding(ctx context.Context, top, bottom float64) error { return nil }

func (d *fakeDoc) CaptureClip(ctx context.Context, r capture.Rect) ([]byte, error) {
	return []byte("raster"), nil
}

func (d *fakeDoc) Close() error { return nil }

type fakeRenderer struct {
	marks int

	mu    sync.Mutex
	pages int
}

func (r *fakeRenderer) NewPage(ctx context.Context) (Document, error) {
	r.mu.Lock()
	r.pages++
	r.mu.Unlock()
	return &fakeDoc{marks: r.marks}, nil
}

type fakeStore struct {
	mu     sync.Mutex
	writes []string
}

func (s *fakeStore) Write(name string, data []byte) error {
	s.mu.Lock()
	s.writes = append(s.writes, name)
	s.mu.Unlock()
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Term = "entropy"
	cfg.DPR = 2.0
	cfg.Workers = 3
	return cfg
}

func testPages(n int) []wiki.Page {
	pages := make([]wiki.Page, n)
	for i := range pages {
		pages[i] = wiki.Page{
			Title: fmt.Sprintf("Article %02d", i+1),
			URL:   fmt.Sprintf("https://en.wikipedia.org/wiki/Article_%02d", i+1),
		}
	}
	return pages
}

func newTestProject(t *testing.T, cfg *config.Config, search Searcher, render Renderer) (*Project, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	dir := t.TempDir()
	return &Project{
		Config:     cfg,
		Search:     search,
		Render:     render,
		Store:      store,
		OutDir:     dir,
		ScreensDir: dir,
	}, store
}

func TestRunOrdersArtifactsByDiscovery(t *testing.T) {
	cfg := testConfig(t)
	render := &fakeRenderer{marks: 2}
	p, store := newTestProject(t, cfg, &fakeSearcher{pages: testPages(5)}, render)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Artifacts) != 10 {
		t.Fatalf("Expected 10 artifacts (5 pages x 2 matches), got %d", len(res.Artifacts))
	}

	// Indices and document order must follow search order even though
	// workers process pages concurrently.
	for i, a := range res.Artifacts {
		if a.GlobalIndex != i+1 {
			t.Errorf("Artifact %d has GlobalIndex %d", i, a.GlobalIndex)
		}
		wantTitle := fmt.Sprintf("Article %02d", i/2+1)
		if a.DocTitle != wantTitle {
			t.Errorf("Artifact %d from %q, expected %q", i, a.DocTitle, wantTitle)
		}
		wantPage := i%2 + 1
		if a.PageIndex != wantPage {
			t.Errorf("Artifact %d has PageIndex %d, expected %d", i, a.PageIndex, wantPage)
		}
	}

	if len(store.writes) != 10 {
		t.Errorf("Store saw %d writes", len(store.writes))
	}
	if res.JSXPath == "" || res.ManifestPath == "" {
		t.Error("Run must report script and manifest paths")
	}
	t.Logf("First artifact: %s", res.Artifacts[0].Filename)
}

func TestRunStopsAtGlobalCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxTotalMatches = 3
	render := &fakeRenderer{marks: 2}
	p, store := newTestProject(t, cfg, &fakeSearcher{pages: testPages(10)}, render)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Artifacts) != 3 {
		t.Errorf("Expected exactly 3 artifacts at the cap, got %d", len(res.Artifacts))
	}
	if len(store.writes) != 3 {
		t.Errorf("Store saw %d writes past the cap", len(store.writes))
	}
	for i, a := range res.Artifacts {
		if a.GlobalIndex != i+1 {
			t.Errorf("Artifact %d has GlobalIndex %d", i, a.GlobalIndex)
		}
	}
}

func TestRunSearchFailureIsTerminal(t *testing.T) {
	cfg := testConfig(t)
	p, _ := newTestProject(t, cfg, &fakeSearcher{err: errors.New("api down")}, &fakeRenderer{marks: 1})

	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Expected a terminal error when the first search fails")
	}
	if !strings.Contains(err.Error(), "search collaborator") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRunNoMatchesAnywhere(t *testing.T) {
	cfg := testConfig(t)
	p, _ := newTestProject(t, cfg, &fakeSearcher{pages: testPages(2)}, &fakeRenderer{marks: 0})

	if _, err := p.Run(context.Background()); err == nil {
		t.Error("Expected an error when no captures are produced")
	}
}

func TestRunScriptMatchesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	p, _ := newTestProject(t, cfg, &fakeSearcher{pages: testPages(2)}, &fakeRenderer{marks: 1})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, a := range res.Artifacts {
		if !strings.Contains(res.Script, a.Filename) {
			t.Errorf("Script missing layer for %s", a.Filename)
		}
	}
}
