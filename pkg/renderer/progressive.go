package renderer

import (
	"context"
	"log/slog"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/pkg/errors"
)

// lensStream tags the per-pass random stream that draws the shared lens sample
const lensStream = ^uint64(0)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int    // Size of each tile (64x64 recommended)
	SamplesPerPixel    int    // Number of passes; each pass adds one sample per pixel
	MaxDepth           int    // Maximum ray bounce depth
	NumWorkers         int    // Number of parallel workers (0 = use CPU count)
	Seed               uint64 // Root seed for every random stream
	LensSamplePerPixel bool   // Draw a lens sample per pixel instead of one per pass
	FlipVertical       bool   // Emit snapshot rows bottom to top
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:        64,
		SamplesPerPixel: 50,
		MaxDepth:        50,
		NumWorkers:      0, // Auto-detect CPU count
		Seed:            42,
	}
}

// ConfigForScene returns the default config with the scene's sample count and depth
func ConfigForScene(s *scene.Scene) ProgressiveConfig {
	config := DefaultProgressiveConfig()
	config.SamplesPerPixel = s.SamplingConfig.SamplesPerPixel
	config.MaxDepth = s.SamplingConfig.MaxDepth
	return config
}

// Validate reports the first out-of-range setting
func (c ProgressiveConfig) Validate() error {
	if c.TileSize <= 0 {
		return errors.Errorf("tile size %d must be positive", c.TileSize)
	}
	if c.SamplesPerPixel < 1 {
		return errors.Errorf("samples per pixel %d must be at least 1", c.SamplesPerPixel)
	}
	if c.MaxDepth < 0 {
		return errors.Errorf("max depth %d must not be negative", c.MaxDepth)
	}
	return nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *Image // Tone-mapped snapshot after this pass
	Stats      RenderStats
	IsLast     bool
}

// ProgressiveRaytracer manages progressive rendering with multiple passes.
// It is not safe for concurrent use; one goroutine drives the passes while
// the worker pool fans each pass out over tiles.
type ProgressiveRaytracer struct {
	scene        *scene.Scene
	width        int
	height       int
	config       ProgressiveConfig
	tiles        []*Tile
	framebuffer  *FrameBuffer
	tileRenderer *TileRenderer
	workerPool   *WorkerPool
	logger       *slog.Logger
	currentPass  int
	started      time.Time
}

// NewProgressiveRaytracer creates a new progressive raytracer. A nil logger
// uses slog.Default().
func NewProgressiveRaytracer(s *scene.Scene, config ProgressiveConfig, logger *slog.Logger) (*ProgressiveRaytracer, error) {
	if s == nil || s.Camera == nil || s.World == nil {
		return nil, errors.New("scene must have a camera and a world")
	}
	if err := s.SamplingConfig.Validate(); err != nil {
		return nil, errors.Wrapf(err, "scene %q", s.Name)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "progressive config")
	}
	if logger == nil {
		logger = slog.Default()
	}

	width, height := s.SamplingConfig.Width, s.SamplingConfig.Height

	pathTracer := integrator.NewPathTracingIntegrator(config.MaxDepth)
	pathTracer.Background = s.Background

	return &ProgressiveRaytracer{
		scene:        s,
		width:        width,
		height:       height,
		config:       config,
		tiles:        NewTileGrid(width, height, config.TileSize),
		framebuffer:  NewFrameBuffer(width, height),
		tileRenderer: NewTileRenderer(s, pathTracer, config.LensSamplePerPixel),
		workerPool:   NewWorkerPool(config.NumWorkers),
		logger:       logger.With("scene", s.Name),
	}, nil
}

// FrameBuffer returns the accumulation buffer
func (pr *ProgressiveRaytracer) FrameBuffer() *FrameBuffer {
	return pr.framebuffer
}

// CurrentPass returns the number of completed passes
func (pr *ProgressiveRaytracer) CurrentPass() int {
	return pr.currentPass
}

// Image tone-maps the current estimate
func (pr *ProgressiveRaytracer) Image() *Image {
	return pr.framebuffer.ToneMap(pr.config.FlipVertical)
}

// RenderPass adds one sample to every pixel. Passes are numbered from 1 and
// must be rendered in order. A cancelled context stops the render before the
// pass starts; once started a pass always runs to completion so the buffer
// never mixes sample counts.
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int) (RenderStats, error) {
	if passNumber != pr.currentPass+1 {
		return RenderStats{}, errors.Errorf("pass %d requested after pass %d", passNumber, pr.currentPass)
	}
	if err := ctx.Err(); err != nil {
		return RenderStats{}, err
	}
	if pr.started.IsZero() {
		pr.started = time.Now()
	}

	startTime := time.Now()

	var lensOffset core.Vec3
	if !pr.config.LensSamplePerPixel {
		lensOffset = core.RandomInUnitDisk(core.NewSeededSampler(pr.config.Seed, lensStream, uint64(passNumber)))
	}

	tasks := make([]TileTask, len(pr.tiles))
	for i, tile := range pr.tiles {
		tasks[i] = TileTask{Tile: tile, PassNumber: passNumber}
	}

	err := pr.workerPool.Run(context.WithoutCancel(ctx), tasks, func(_ context.Context, task TileTask) error {
		sampler := task.Tile.Sampler(pr.config.Seed, task.PassNumber)
		pr.tileRenderer.RenderTileBounds(task.Tile.Bounds, pr.framebuffer, sampler, lensOffset)
		return nil
	})
	if err != nil {
		return RenderStats{}, errors.Wrapf(err, "pass %d", passNumber)
	}

	pr.framebuffer.CompletePass()
	pr.currentPass = passNumber

	stats := pr.stats(time.Since(startTime))

	level := slog.LevelDebug
	if passNumber == 1 || passNumber == pr.config.SamplesPerPixel {
		level = slog.LevelInfo
	}
	pr.logger.Log(ctx, level, "pass complete",
		"pass", passNumber,
		"samples", stats.SamplesPerPixel,
		"workers", pr.workerPool.GetNumWorkers(),
		"elapsed", stats.PassTime,
	)

	return stats, nil
}

// RenderProgressive renders the remaining passes in the background, sending a
// snapshot after each one. Both channels are closed when rendering stops; a
// cancelled context or failed pass is reported on the error channel.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		pr.logger.Info("starting progressive rendering",
			"width", pr.width,
			"height", pr.height,
			"passes", pr.config.SamplesPerPixel,
			"tiles", len(pr.tiles),
			"workers", pr.workerPool.GetNumWorkers(),
		)

		for pass := pr.currentPass + 1; pass <= pr.config.SamplesPerPixel; pass++ {
			// Check if client disconnected before starting this pass
			select {
			case <-ctx.Done():
				pr.logger.Info("rendering cancelled", "before_pass", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			stats, err := pr.RenderPass(ctx, pass)
			if err != nil {
				errChan <- err
				return
			}

			result := PassResult{
				PassNumber: pass,
				Image:      pr.Image(),
				Stats:      stats,
				IsLast:     pass == pr.config.SamplesPerPixel,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return passChan, errChan
}

// Render runs every remaining pass and returns the accumulated buffer
func (pr *ProgressiveRaytracer) Render(ctx context.Context) (*FrameBuffer, error) {
	for pass := pr.currentPass + 1; pass <= pr.config.SamplesPerPixel; pass++ {
		if _, err := pr.RenderPass(ctx, pass); err != nil {
			return pr.framebuffer, err
		}
	}
	return pr.framebuffer, nil
}

// stats summarizes the buffer after the latest pass
func (pr *ProgressiveRaytracer) stats(passTime time.Duration) RenderStats {
	pixels := pr.width * pr.height
	samples := pr.framebuffer.Samples()
	return RenderStats{
		Pass:            pr.currentPass,
		TotalPasses:     pr.config.SamplesPerPixel,
		TotalPixels:     pixels,
		SamplesPerPixel: samples,
		TotalSamples:    pixels * samples,
		PassTime:        passTime,
		Elapsed:         time.Since(pr.started),
		MeanVariance:    pr.framebuffer.MeanVariance(),
	}
}
