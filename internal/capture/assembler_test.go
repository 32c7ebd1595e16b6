package capture

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
)

type memStore struct {
	writes []string
	data   map[string][]byte
	fail   bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Write(name string, data []byte) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.writes = append(s.writes, name)
	s.data[name] = data
	return nil
}

func candidate(title string) Candidate {
	return Candidate{
		Match:   Match{DocTitle: title, DocURL: "https://en.wikipedia.org/wiki/" + title, Text: "entropy"},
		Refined: RefinedCapture{Converged: true},
		PNG:     []byte("png-bytes"),
	}
}

func TestAssemblerGlobalOrdering(t *testing.T) {
	store := newMemStore()
	asm := &Assembler{MaxTotal: 50, Store: store}

	// Three documents contributing 2, 1 and 2 captures.
	docs := []struct {
		title string
		n     int
	}{
		{"Alpha", 2},
		{"Beta", 1},
		{"Gamma", 2},
	}

	var arts []Artifact
	for _, d := range docs {
		for j := 1; j <= d.n; j++ {
			art, err := asm.Add(j, candidate(d.title))
			if err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			arts = append(arts, art)
		}
	}

	for i, a := range arts {
		if a.GlobalIndex != i+1 {
			t.Errorf("Artifact %d has GlobalIndex %d", i, a.GlobalIndex)
		}
	}

	// Filenames carry the global counter, the in-document position and
	// the slug, so a directory listing sorts in discovery order.
	if arts[2].Filename != "003_01_Beta.png" {
		t.Errorf("Filename = %q, expected 003_01_Beta.png", arts[2].Filename)
	}
	if arts[4].Filename != "005_02_Gamma.png" {
		t.Errorf("Filename = %q, expected 005_02_Gamma.png", arts[4].Filename)
	}
	t.Logf("Writes: %v", store.writes)
}

func TestAssemblerEnforcesCap(t *testing.T) {
	store := newMemStore()
	asm := &Assembler{MaxTotal: 5, Store: store}

	admitted := 0
	for i := 0; i < 15; i++ {
		_, err := asm.Add(1, candidate("Doc"))
		if errors.Is(err, ErrRunExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		admitted++
	}

	if admitted != 5 {
		t.Errorf("Admitted %d captures, cap is 5", admitted)
	}
	if len(store.writes) != 5 {
		t.Errorf("Store saw %d writes, expected 5", len(store.writes))
	}
	if asm.Total() != 5 {
		t.Errorf("Total() = %d", asm.Total())
	}
}

func TestAssemblerCounterOnlyAdvancesOnWrite(t *testing.T) {
	store := newMemStore()
	store.fail = true
	asm := &Assembler{MaxTotal: 5, Store: store}

	if _, err := asm.Add(1, candidate("Doc")); err == nil {
		t.Fatal("Expected a write error")
	}
	if asm.Total() != 0 {
		t.Errorf("Failed write must not advance the counter, Total() = %d", asm.Total())
	}

	store.fail = false
	art, err := asm.Add(1, candidate("Doc"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if art.GlobalIndex != 1 {
		t.Errorf("Index after a failed write = %d, expected 1", art.GlobalIndex)
	}
}

func TestAssemblerNormalize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	store := newMemStore()
	asm := &Assembler{MaxTotal: 5, Store: store, Normalize: true, FrameW: 8, FrameH: 6}

	c := candidate("Doc")
	c.PNG = buf.Bytes()
	art, err := asm.Add(1, c)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	out, err := png.Decode(bytes.NewReader(store.data[art.Filename]))
	if err != nil {
		t.Fatalf("decode stored artifact: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("Stored size %dx%d, expected 8x6", b.Dx(), b.Dy())
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Entropy (information theory)": "Entropy_(information_theory)",
		`A/B: "test" <x>?`:             "A_B___test___x__",
		"":                             "untitled",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, expected %q", in, got, want)
		}
	}

	long := strings.Repeat("x", 300)
	if got := Slug(long); len(got) != 140 {
		t.Errorf("Long slug length = %d, expected 140", len(got))
	}
}

func TestOutroCard(t *testing.T) {
	data, err := OutroCard("https://en.wikipedia.org/wiki/Entropy", 1920, 1080)
	if err != nil {
		t.Fatalf("OutroCard failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode outro: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1920 || b.Dy() != 1080 {
		t.Errorf("Outro size %dx%d, expected the frame size", b.Dx(), b.Dy())
	}
}
