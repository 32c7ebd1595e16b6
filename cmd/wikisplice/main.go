package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/reedalexschultz/wikisplice/internal/browser"
	"github.com/reedalexschultz/wikisplice/internal/capture"
	"github.com/reedalexschultz/wikisplice/internal/config"
	"github.com/reedalexschultz/wikisplice/internal/engine"
	"github.com/reedalexschultz/wikisplice/internal/system"
	"github.com/reedalexschultz/wikisplice/internal/timeline"
	"github.com/reedalexschultz/wikisplice/internal/wiki"
)

var buildVersion = "dev"

func main() {
	system.InitResourceLimits()

	def := config.Default()

	configPath := flag.String("config", "", "Optional YAML config file; flags override it")
	fromManifest := flag.String("from-manifest", "", "Rebuild the JSX from an existing run manifest, no capturing")

	term := flag.String("term", "", "Search term (required)")
	out := flag.String("out", def.OutDir, "Output directory (screens + JSX + manifest)")
	searchIn := flag.String("search-in", def.SearchIn, "Where to search: text, title, both")
	noMathMap := flag.Bool("no-math-map", false, "Disable glyph to TeX expansion for the search query")
	limit := flag.Int("limit", def.BatchLimit, "Search batch size per API call")

	ignoreCase := flag.Bool("ignore-case", false, "Match without case sensitivity")
	noWholeWord := flag.Bool("no-whole-word", false, "Allow substring matches")
	highlightAll := flag.Bool("highlight-all", false, "Highlight every match on the page")
	maxPerPage := flag.Int("max-matches-per-page", def.MaxMatchesPerPage, "Captures per page (upper bound)")
	maxTotal := flag.Int("max-total-matches", def.MaxTotalMatches, "Stop after this many captures overall")

	width := flag.Int("width", def.Width, "Composition width")
	height := flag.Int("height", def.Height, "Composition height")
	dpr := flag.Float64("dpr", def.DPR, "Device scale factor for crisp PNGs")
	targetWordPx := flag.Int("target-word-px", def.TargetWordPx, "Desired final word width in comp pixels")
	framingZoom := flag.Float64("framing-zoom", def.FramingZoom, ">1 captures more area around the word")
	centerEps := flag.Float64("center-eps-px", def.CenterEpsPx, "Max center error (CSS px) after quantization")
	centerMaxIter := flag.Int("center-max-iter", def.CenterMaxIter, "Re-center iterations")
	padToCenter := flag.Bool("pad-to-center", false, "Pad page edges so boundary words can be centered")
	settleMS := flag.Int("settle-ms", def.SettleMS, "Layout settle interval in milliseconds")

	fps := flag.Float64("fps", def.FPS, "Composition frame rate")
	speed := flag.Float64("speed", def.ShotDuration, "Seconds per still")
	scale := flag.Float64("scale", def.BaseScale, "Base scale percent for each layer")
	punch := flag.Float64("punch", def.Punch, "End scale multiplier minus one (0.08 = +8%)")

	normalize := flag.Bool("normalize", false, "Rescale captures to the composition size before writing")
	qrOutro := flag.Bool("qr-outro", false, "Append an attribution card with a QR link to the first article")

	workers := flag.Int("workers", def.Workers, "Concurrent document workers (browser tabs)")
	runAE := flag.Bool("run-ae", false, "Launch After Effects with the generated script")
	aeVersion := flag.String("ae-version", def.AEVersion, "After Effects application name")
	showStats := flag.Bool("stats", false, "Print a performance report")

	flag.Parse()

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[-] Config error: %v", err)
		}
		cfg = loaded
	}

	// Explicitly set flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "term":
			cfg.Term = *term
		case "out":
			cfg.OutDir = *out
		case "search-in":
			cfg.SearchIn = *searchIn
		case "no-math-map":
			cfg.MathMap = !*noMathMap
		case "limit":
			cfg.BatchLimit = *limit
		case "ignore-case":
			cfg.CaseSensitive = !*ignoreCase
		case "no-whole-word":
			cfg.WholeWord = !*noWholeWord
		case "highlight-all":
			cfg.HighlightAll = *highlightAll
		case "max-matches-per-page":
			cfg.MaxMatchesPerPage = *maxPerPage
		case "max-total-matches":
			cfg.MaxTotalMatches = *maxTotal
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "dpr":
			cfg.DPR = *dpr
		case "target-word-px":
			cfg.TargetWordPx = *targetWordPx
		case "framing-zoom":
			cfg.FramingZoom = *framingZoom
		case "center-eps-px":
			cfg.CenterEpsPx = *centerEps
		case "center-max-iter":
			cfg.CenterMaxIter = *centerMaxIter
		case "pad-to-center":
			cfg.PadToCenter = *padToCenter
		case "settle-ms":
			cfg.SettleMS = *settleMS
		case "fps":
			cfg.FPS = *fps
		case "speed":
			cfg.ShotDuration = *speed
		case "scale":
			cfg.BaseScale = *scale
		case "punch":
			cfg.Punch = *punch
		case "normalize":
			cfg.Normalize = *normalize
		case "qr-outro":
			cfg.QROutro = *qrOutro
		case "workers":
			cfg.Workers = *workers
		case "run-ae":
			cfg.RunAE = *runAE
		case "ae-version":
			cfg.AEVersion = *aeVersion
		case "stats":
			cfg.ShowStats = *showStats
		}
	})
	cfg.BuildVersion = buildVersion

	if *fromManifest != "" {
		if err := rebuildFromManifest(*fromManifest); err != nil {
			log.Fatalf("[-] %v", err)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outDir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		log.Fatalf("[-] Output path: %v", err)
	}
	cfg.OutDir = outDir
	screensDir := filepath.Join(outDir, "screens")

	store, err := system.NewDirStore(screensDir)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	cfg.Workers = system.ClampWorkers(cfg.Workers)

	fmt.Println("--- [WIKISPLICE] ---")
	fmt.Printf("[*] Term: %q | search-in: %s | workers: %d\n", cfg.Term, cfg.SearchIn, cfg.Workers)
	fmt.Printf("[*] Frame: %dx%d @ %g FPS | DPR: %g | target word: %dpx\n",
		cfg.Width, cfg.Height, cfg.FPS, cfg.DPR, cfg.TargetWordPx)
	fmt.Println("--------------------")

	b, err := browser.Launch(ctx, browser.Options{
		Width:    cfg.Width,
		Height:   cfg.Height,
		DPR:      cfg.DPR,
		SettleMS: cfg.SettleMS,
	})
	if err != nil {
		log.Fatalf("[-] Browser: %v", err)
	}
	defer b.Close()

	project := &engine.Project{
		Config:     cfg,
		Search:     wiki.NewClient(),
		Render:     engine.ChromeRenderer{Browser: b},
		Store:      store,
		OutDir:     outDir,
		ScreensDir: screensDir,
	}

	res, err := project.Run(ctx)
	if err != nil {
		log.Fatalf("[-] Run failed: %v", err)
	}

	fmt.Printf("[+++] Done: %d captures, JSX written: %s\n", len(res.Artifacts), res.JSXPath)
	if cfg.RunAE {
		if err := system.LaunchAfterEffects(res.JSXPath, cfg.AEVersion); err != nil {
			log.Printf("[!] After Effects launch failed: %v", err)
		}
	} else {
		fmt.Printf("Open JSX in After Effects: %s\n", res.JSXPath)
	}
}

// rebuildFromManifest regenerates the composition script from a prior
// run's manifest without touching the network or the browser.
func rebuildFromManifest(path string) error {
	m, err := timeline.ReadManifest(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	outDir := filepath.Dir(path)
	screensDir := filepath.Join(outDir, "screens")

	tl, err := timeline.Generate(m.Items(screensDir), m.Params())
	if err != nil {
		return fmt.Errorf("generate timeline: %w", err)
	}

	jsxPath := filepath.Join(outDir, fmt.Sprintf("build_wikisplice_%s.jsx", capture.Slug(m.Term)))
	if err := os.WriteFile(jsxPath, []byte(tl.ScriptJSX()), 0644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	fmt.Printf("[+++] JSX rebuilt from manifest: %s\n", jsxPath)
	return nil
}
