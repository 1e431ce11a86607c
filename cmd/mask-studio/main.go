package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	maskstudio "github.com/menta2k/mask-studio"
	"github.com/menta2k/mask-studio/internal/config"
	"github.com/menta2k/mask-studio/internal/utils"
	"github.com/menta2k/mask-studio/pkg/compositor"
	"github.com/menta2k/mask-studio/pkg/coords"
	"github.com/menta2k/mask-studio/pkg/imgio"
	"github.com/menta2k/mask-studio/pkg/remote"
	"github.com/menta2k/mask-studio/pkg/session"
	"github.com/menta2k/mask-studio/pkg/tracker"
	"github.com/menta2k/mask-studio/pkg/types"
)

func main() {
	var in, promptsPath, cfgPath, url, outDir string
	var threshold, simplify float64
	var invert, largest, best bool
	var maskIndex, padding, rounding int
	var convention string
	var debug bool

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp)")
	flag.StringVar(&promptsPath, "prompts", "", "prompts JSON file (bare prompt set or a saved result document)")
	flag.StringVar(&cfgPath, "config", "", "config file path (defaults built in when empty)")
	flag.StringVar(&url, "url", "", "inference server URL (default http://localhost:8080)")
	flag.StringVar(&outDir, "out", "", "output directory for results (overrides config)")

	flag.Float64Var(&threshold, "threshold", 0, "score cutoff; pixels strictly above it are foreground")
	flag.BoolVar(&invert, "invert", false, "invert the thresholded mask")
	flag.BoolVar(&best, "best", true, "pick the highest-quality mask candidate")
	flag.IntVar(&maskIndex, "index", 0, "explicit mask candidate index (used with -best=false)")
	flag.BoolVar(&largest, "largest", false, "keep only the largest connected component")
	flag.IntVar(&padding, "pad", 0, "grow (+) or shrink (-) the mask boundary, in pixels")
	flag.IntVar(&rounding, "round", 0, "round corners: + opens, - closes, in pixels")
	flag.Float64Var(&simplify, "simplify", 0, "polygon simplification tolerance, in pixels")
	flag.StringVar(&convention, "convention", "", "coordinate convention: center or edge (overrides config)")
	flag.BoolVar(&debug, "debug", false, "also save the frame with prompts drawn on it")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL -prompts prompts.json [-url server] [-out dir]", filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if url != "" {
		cfg.Remote.ServerURL = url
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if convention != "" {
		cfg.Pipeline.Convention = convention
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	conv := coords.Center
	if cfg.Pipeline.Convention == "edge" {
		conv = coords.Edge
	}

	var prompts types.PromptSet
	if promptsPath != "" {
		loaded, err := session.LoadPrompts(promptsPath)
		if err != nil {
			log.Fatal(err)
		}
		prompts = loaded
	}

	client, err := remote.NewClient(cfg.Remote.ServerURL)
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}

	pipe := maskstudio.NewWithOptions(client, maskstudio.Options{
		Convention:          conv,
		UpscaleScores:       cfg.Pipeline.UpscaleScores,
		SuppressEmptyPrompt: cfg.Remote.SuppressEmptyPrompt,
		Compositor: compositor.New(cfg.Compositor.BrightnessPct,
			cfg.Compositor.ContrastPct, cfg.Compositor.TileSizePx),
	})

	if !strings.HasPrefix(in, "http://") && !strings.HasPrefix(in, "https://") {
		if !utils.FileExists(in) {
			log.Fatalf("input file not found: %s", in)
		}
		if !utils.IsImageFile(in) {
			log.Printf("warning: %s does not look like an image file", in)
		}
	}

	img, err := imgio.LoadSmart(in)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := pipe.SetFrame(ctx, img); err != nil {
		log.Fatal(err)
	}

	// Config supplies the pipeline defaults; flags override only when given
	snap := tracker.Snapshot{
		Prompts:     prompts,
		MaskIndex:   cfg.Pipeline.MaskIndex,
		UseBestMask: cfg.Pipeline.UseBestMask,
		Threshold:   cfg.Pipeline.Threshold,
		Invert:      cfg.Pipeline.Invert,
		LargestOnly: cfg.Pipeline.LargestOnly,
		Rounding:    cfg.Pipeline.RoundingPx,
		Padding:     cfg.Pipeline.PaddingPx,
		SimplifyTol: cfg.Pipeline.SimplifyTol,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threshold":
			snap.Threshold = threshold
		case "invert":
			snap.Invert = invert
		case "best":
			snap.UseBestMask = best
		case "index":
			snap.MaskIndex = maskIndex
		case "largest":
			snap.LargestOnly = largest
		case "pad":
			snap.Padding = padding
		case "round":
			snap.Rounding = rounding
		case "simplify":
			snap.SimplifyTol = simplify
		}
	})
	res, err := pipe.Tick(ctx, snap)
	if err != nil {
		log.Fatal(err)
	}

	n, quality := pipe.Candidates()
	log.Printf("candidates=%d quality=%v picked=%d ok=%v contours=%d",
		n, quality, res.Index, res.OK, len(res.Contours))
	if res.Degraded {
		log.Printf("hint point missed the mask, kept largest component")
	}

	result := session.Result{
		Prompts:       prompts,
		Contours:      res.Contours,
		Mask:          res.Mask,
		PreviewFormat: cfg.Output.PreviewFormat,
		Quality:       cfg.Output.Quality,
	}
	if res.OK {
		result.Preview = pipe.Composite(img, res.Mask)
	}

	folder, err := session.Save(cfg.Output.Dir, result)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", folder)

	if debug {
		overlay := imgio.DrawPrompts(img, prompts)
		dbgPath := filepath.Join(folder, "prompts_overlay.png")
		if err := imgio.Save(overlay, dbgPath, "png", 100, false); err != nil {
			log.Printf("debug overlay save failed: %v", err)
		} else {
			log.Printf("wrote %s", dbgPath)
		}
	}
}
