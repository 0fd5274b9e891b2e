package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/output"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// options holds the parsed command line
type options struct {
	Scene         string
	SceneDir      string
	Width         int
	Height        int
	SPP           int
	Bounces       int // negative keeps the scene's own depth
	Workers       int
	Seed          uint64
	Out           string
	Format        string
	SnapshotEvery int
	LensPerPixel  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.Scene, "scene", "default", "Built-in scene name, yaml:<name> for a file in -scenes, or a path to a .yaml file")
	flag.StringVar(&opts.SceneDir, "scenes", "scenes", "Directory holding YAML scene files")
	flag.IntVar(&opts.Width, "width", 0, "Image width (0 = scene default)")
	flag.IntVar(&opts.Height, "height", 0, "Image height (0 = scene default)")
	flag.IntVar(&opts.SPP, "spp", 0, "Samples per pixel, one per pass (0 = scene default)")
	flag.IntVar(&opts.Bounces, "bounces", -1, "Maximum bounces per path (-1 = scene default)")
	flag.IntVar(&opts.Workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	flag.Uint64Var(&opts.Seed, "seed", renderer.DefaultProgressiveConfig().Seed, "Root random seed")
	flag.StringVar(&opts.Out, "out", "file://./output", "Output bucket URL (file://, gs:// or mem://)")
	flag.StringVar(&opts.Format, "format", "ppm", "Image format: ppm or png")
	flag.IntVar(&opts.SnapshotEvery, "snapshot-every", 0, "Write an intermediate image every N passes (0 = final image only)")
	flag.BoolVar(&opts.LensPerPixel, "lens-per-pixel", false, "Draw a lens sample per pixel instead of one per pass")
	verbose := flag.Bool("v", false, "Log every pass")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Progressive Path Tracer")
		fmt.Println("Usage: pathtracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Built-in scenes:")
		for _, name := range scene.BuiltinNames() {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println()
		fmt.Println("Images are written to <out>/<scene>/<render id>/final.<format>")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("render failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// run renders the selected scene progressively, writing snapshots and the
// final image to the output bucket
func run(ctx context.Context, opts options, logger *slog.Logger) error {
	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if opts.SnapshotEvery < 0 {
		return errors.Errorf("snapshot interval %d must not be negative", opts.SnapshotEvery)
	}

	s, err := createScene(opts.Scene, opts.SceneDir, opts.overrides())
	if err != nil {
		return err
	}
	if opts.Bounces == 0 {
		// Zero is also the "keep" value of an override, so apply it directly
		if err := s.SetMaxDepth(0); err != nil {
			return err
		}
	}

	config := renderer.ConfigForScene(s)
	config.NumWorkers = opts.Workers
	config.Seed = opts.Seed
	config.LensSamplePerPixel = opts.LensPerPixel

	raytracer, err := renderer.NewProgressiveRaytracer(s, config, logger)
	if err != nil {
		return err
	}

	sink, err := output.OpenSink(ctx, opts.Out, format, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	renderID := uuid.New()
	logger = logger.With("render_id", renderID.String())
	logger.Info("rendering",
		"scene", s.Name,
		"width", s.SamplingConfig.Width,
		"height", s.SamplingConfig.Height,
		"spp", config.SamplesPerPixel,
		"bounces", config.MaxDepth,
		"objects", s.GetPrimitiveCount(),
	)

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	passChan, errChan := raytracer.RenderProgressive(renderCtx)

	var last renderer.PassResult
	var sinkErr error
	for result := range passChan {
		last = result
		if opts.SnapshotEvery == 0 || result.IsLast || result.PassNumber%opts.SnapshotEvery != 0 {
			continue
		}
		if _, err := sink.Write(ctx, output.SnapshotKey(s.Name, renderID, result.PassNumber), result.Image); err != nil {
			sinkErr = err
			cancel()
			break
		}
	}
	// Drain so the render goroutine can observe the cancellation and exit
	for range passChan {
	}
	renderErr := <-errChan

	if sinkErr != nil {
		return sinkErr
	}
	if renderErr != nil && !errors.Is(renderErr, context.Canceled) {
		return renderErr
	}
	if last.Image == nil {
		return renderErr
	}

	// An interrupted render still saves the passes it completed
	key, err := sink.Write(context.WithoutCancel(ctx), output.FinalKey(s.Name, renderID), last.Image)
	if err != nil {
		return err
	}
	logger.Info("render saved",
		"key", key,
		"passes", last.PassNumber,
		"elapsed", last.Stats.Elapsed,
		"mean_variance", last.Stats.MeanVariance,
	)
	return renderErr
}

func (o options) overrides() scene.SamplingConfig {
	override := scene.SamplingConfig{
		Width:           o.Width,
		Height:          o.Height,
		SamplesPerPixel: o.SPP,
	}
	if o.Bounces > 0 {
		override.MaxDepth = o.Bounces
	}
	return override
}

// createScene resolves a scene argument: a built-in name, a yaml:<name> ID
// for a file in sceneDir, or a direct path to a YAML file
func createScene(sceneType, sceneDir string, override scene.SamplingConfig) (*scene.Scene, error) {
	if sceneType == "" {
		return nil, errors.New("no scene given")
	}

	ext := strings.ToLower(filepath.Ext(sceneType))
	if ext != ".yaml" && ext != ".yml" {
		return scene.Resolve(sceneType, sceneDir, override)
	}

	s, err := scene.LoadFile(sceneType)
	if err != nil {
		return nil, err
	}
	if err := s.Override(override); err != nil {
		return nil, err
	}
	return s, nil
}
