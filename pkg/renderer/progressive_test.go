package renderer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustScene(t *testing.T, name string, override scene.SamplingConfig) *scene.Scene {
	t.Helper()
	s, err := scene.ByName(name, override)
	if err != nil {
		t.Fatalf("ByName(%q) failed: %v", name, err)
	}
	return s
}

func newTestRaytracer(t *testing.T, s *scene.Scene, modify func(*ProgressiveConfig)) *ProgressiveRaytracer {
	t.Helper()
	config := ConfigForScene(s)
	config.TileSize = 8
	if modify != nil {
		modify(&config)
	}
	pr, err := NewProgressiveRaytracer(s, config, discardLogger())
	if err != nil {
		t.Fatalf("NewProgressiveRaytracer failed: %v", err)
	}
	return pr
}

func TestProgressiveConfig(t *testing.T) {
	config := DefaultProgressiveConfig()

	if config.TileSize != 64 {
		t.Errorf("Expected default tile size 64, got %d", config.TileSize)
	}
	if config.SamplesPerPixel != 50 {
		t.Errorf("Expected default samples 50, got %d", config.SamplesPerPixel)
	}
	if config.MaxDepth != 50 {
		t.Errorf("Expected default max depth 50, got %d", config.MaxDepth)
	}
	if config.Seed != 42 {
		t.Errorf("Expected default seed 42, got %d", config.Seed)
	}
	if config.LensSamplePerPixel || config.FlipVertical {
		t.Error("Expected per-pass lens sampling and top-down rows by default")
	}
}

func TestNewProgressiveRaytracerValidation(t *testing.T) {
	s := mustScene(t, "ground", scene.SamplingConfig{})

	tests := []struct {
		name   string
		modify func(*ProgressiveConfig)
	}{
		{"Zero tile size", func(c *ProgressiveConfig) { c.TileSize = 0 }},
		{"No samples", func(c *ProgressiveConfig) { c.SamplesPerPixel = 0 }},
		{"Negative depth", func(c *ProgressiveConfig) { c.MaxDepth = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := ConfigForScene(s)
			tt.modify(&config)
			if _, err := NewProgressiveRaytracer(s, config, nil); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if _, err := NewProgressiveRaytracer(&scene.Scene{}, DefaultProgressiveConfig(), nil); err == nil {
		t.Error("Expected error for a scene without camera")
	}
}

func TestGroundSceneTopRowIsBackground(t *testing.T) {
	s := mustScene(t, "ground", scene.SamplingConfig{Width: 64, Height: 32, SamplesPerPixel: 1, MaxDepth: 1})
	pr := newTestRaytracer(t, s, nil)

	fb, err := pr.Render(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for x := 0; x < fb.Width(); x++ {
		if got := fb.Average(x, 0); got != s.Background {
			t.Errorf("Top row pixel %d: expected background %v, got %v", x, s.Background, got)
		}
	}
}

func TestGroundSceneUnderSky(t *testing.T) {
	sky := core.NewVec3(0.5, 0.7, 1.0)
	s := mustScene(t, "ground", scene.SamplingConfig{Width: 64, Height: 32, SamplesPerPixel: 1, MaxDepth: 1})
	s.Background = sky
	pr := newTestRaytracer(t, s, nil)

	fb, err := pr.Render(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for x := 0; x < fb.Width(); x++ {
		if got := fb.Average(x, 0); got != sky {
			t.Errorf("Top row pixel %d: expected sky %v, got %v", x, sky, got)
		}
		// One bounce off the grey ground halves the sky at best
		bottom := fb.Average(x, fb.Height()-1)
		if bottom.X > 0.25+1e-12 || bottom.Z > 0.5+1e-12 {
			t.Errorf("Bottom row pixel %d: expected attenuated sky or black, got %v", x, bottom)
		}
	}
}

func TestGroundSceneFlipVertical(t *testing.T) {
	sky := core.NewVec3(0.5, 0.7, 1.0)
	s := mustScene(t, "ground", scene.SamplingConfig{Width: 32, Height: 16, SamplesPerPixel: 1, MaxDepth: 1})
	s.Background = sky
	pr := newTestRaytracer(t, s, func(c *ProgressiveConfig) { c.FlipVertical = true })

	if _, err := pr.Render(context.Background()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	img := pr.Image()
	want := ToneMap(sky)
	for x := 0; x < img.Width; x++ {
		if got := img.At(x, img.Height-1); got != want {
			t.Errorf("Flipped image should put the sky row last, pixel %d is %v, want %v", x, got, want)
		}
	}
}

func TestLightSceneIsBackgroundOrEmission(t *testing.T) {
	s := mustScene(t, "light", scene.SamplingConfig{Width: 40, Height: 20, SamplesPerPixel: 1})
	pr := newTestRaytracer(t, s, nil)

	fb, err := pr.Render(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	emission := core.NewVec3(0.9, 0.6, 0.3)
	lit, dark := 0, 0
	for y := 0; y < fb.Height(); y++ {
		for x := 0; x < fb.Width(); x++ {
			switch got := fb.Average(x, y); got {
			case emission:
				lit++
			case s.Background:
				dark++
			default:
				t.Fatalf("Pixel (%d,%d) = %v is neither background nor the light", x, y, got)
			}
		}
	}
	if lit == 0 || dark == 0 {
		t.Errorf("Expected both lit and dark pixels, got lit=%d dark=%d", lit, dark)
	}
}

func TestProgressiveDeterministicAcrossWorkers(t *testing.T) {
	render := func(workers int) *FrameBuffer {
		s := mustScene(t, "lit-sphere", scene.SamplingConfig{Width: 24, Height: 18, SamplesPerPixel: 3, MaxDepth: 5})
		pr := newTestRaytracer(t, s, func(c *ProgressiveConfig) { c.NumWorkers = workers })
		fb, err := pr.Render(context.Background())
		if err != nil {
			t.Fatalf("Render with %d workers failed: %v", workers, err)
		}
		return fb
	}

	serial := render(1)
	parallel := render(4)
	for y := 0; y < serial.Height(); y++ {
		for x := 0; x < serial.Width(); x++ {
			if serial.Sum(x, y) != parallel.Sum(x, y) {
				t.Fatalf("Pixel (%d,%d) differs: %v vs %v", x, y, serial.Sum(x, y), parallel.Sum(x, y))
			}
		}
	}
}

func TestProgressiveSeedChangesResult(t *testing.T) {
	render := func(seed uint64) *FrameBuffer {
		s := mustScene(t, "lit-sphere", scene.SamplingConfig{Width: 16, Height: 12, SamplesPerPixel: 2, MaxDepth: 3})
		pr := newTestRaytracer(t, s, func(c *ProgressiveConfig) { c.Seed = seed })
		fb, err := pr.Render(context.Background())
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		return fb
	}

	a, b := render(1), render(2)
	differs := false
	for y := 0; y < a.Height() && !differs; y++ {
		for x := 0; x < a.Width(); x++ {
			if a.Sum(x, y) != b.Sum(x, y) {
				differs = true
				break
			}
		}
	}
	if !differs {
		t.Error("Different seeds should give different noise")
	}
}

func TestProgressiveConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("convergence test renders 1000 passes")
	}

	variance := func(spp int) float64 {
		s := mustScene(t, "lit-sphere", scene.SamplingConfig{Width: 12, Height: 9, SamplesPerPixel: spp, MaxDepth: 4})
		pr := newTestRaytracer(t, s, nil)
		fb, err := pr.Render(context.Background())
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if fb.Samples() != spp {
			t.Fatalf("Expected %d samples, got %d", spp, fb.Samples())
		}
		return fb.MeanVariance()
	}

	v10 := variance(10)
	v100 := variance(100)
	v1000 := variance(1000)

	if v10 <= 0 {
		t.Fatalf("A lit diffuse sphere should be noisy at 10 samples, variance %g", v10)
	}
	if !(v100 < v10/3 && v1000 < v100/3) {
		t.Errorf("Variance should fall with more samples: 10=%g 100=%g 1000=%g", v10, v100, v1000)
	}
}

func TestRenderPassOrdering(t *testing.T) {
	s := mustScene(t, "light", scene.SamplingConfig{Width: 8, Height: 4, SamplesPerPixel: 3})
	pr := newTestRaytracer(t, s, nil)
	ctx := context.Background()

	if _, err := pr.RenderPass(ctx, 2); err == nil {
		t.Error("Skipping pass 1 should fail")
	}

	stats, err := pr.RenderPass(ctx, 1)
	if err != nil {
		t.Fatalf("RenderPass(1) failed: %v", err)
	}
	if stats.Pass != 1 || stats.SamplesPerPixel != 1 || stats.TotalPasses != 3 || stats.TotalPixels != 32 || stats.TotalSamples != 32 {
		t.Errorf("Unexpected stats after pass 1: %+v", stats)
	}

	if _, err := pr.RenderPass(ctx, 1); err == nil {
		t.Error("Repeating pass 1 should fail")
	}
	if pr.CurrentPass() != 1 || pr.FrameBuffer().Samples() != 1 {
		t.Errorf("Expected one completed pass, got pass=%d samples=%d", pr.CurrentPass(), pr.FrameBuffer().Samples())
	}
}

func TestRenderProgressiveDeliversEveryPass(t *testing.T) {
	s := mustScene(t, "lit-sphere", scene.SamplingConfig{Width: 16, Height: 12, SamplesPerPixel: 4, MaxDepth: 3})
	pr := newTestRaytracer(t, s, nil)

	passChan, errChan := pr.RenderProgressive(context.Background())

	var results []PassResult
	for result := range passChan {
		results = append(results, result)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("Expected 4 passes, got %d", len(results))
	}
	for i, result := range results {
		if result.PassNumber != i+1 || result.Stats.SamplesPerPixel != i+1 {
			t.Errorf("Result %d: pass %d with %d samples", i, result.PassNumber, result.Stats.SamplesPerPixel)
		}
		if result.IsLast != (i == 3) {
			t.Errorf("Result %d: IsLast=%v", i, result.IsLast)
		}
		if result.Image.Width != 16 || result.Image.Height != 12 {
			t.Errorf("Result %d: unexpected image size %dx%d", i, result.Image.Width, result.Image.Height)
		}
	}
}

func TestRenderProgressiveCancellation(t *testing.T) {
	t.Run("Before start", func(t *testing.T) {
		s := mustScene(t, "light", scene.SamplingConfig{Width: 8, Height: 4, SamplesPerPixel: 5})
		pr := newTestRaytracer(t, s, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		passChan, errChan := pr.RenderProgressive(ctx)
		for range passChan {
			t.Error("No pass should be delivered after cancellation")
		}
		if err := <-errChan; !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if pr.FrameBuffer().Samples() != 0 {
			t.Errorf("Expected no samples, got %d", pr.FrameBuffer().Samples())
		}
	})

	t.Run("Between passes", func(t *testing.T) {
		s := mustScene(t, "lit-sphere", scene.SamplingConfig{Width: 16, Height: 12, SamplesPerPixel: 200, MaxDepth: 3})
		pr := newTestRaytracer(t, s, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		passChan, errChan := pr.RenderProgressive(ctx)
		first, ok := <-passChan
		if !ok {
			t.Fatal("Expected a first pass")
		}
		cancel()
		for range passChan {
		}

		if err := <-errChan; !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}

		// Passes are atomic: the buffer holds whole passes only
		fb := pr.FrameBuffer()
		if fb.Samples() < first.PassNumber || fb.Samples() >= 200 {
			t.Errorf("Expected a partial render of whole passes, got %d samples", fb.Samples())
		}
		if fb.Samples() != pr.CurrentPass() {
			t.Errorf("Sample count %d should match completed passes %d", fb.Samples(), pr.CurrentPass())
		}
	})
}

func TestRenderResumesAfterCancellation(t *testing.T) {
	s := mustScene(t, "light", scene.SamplingConfig{Width: 8, Height: 4, SamplesPerPixel: 3})
	pr := newTestRaytracer(t, s, nil)

	if _, err := pr.RenderPass(context.Background(), 1); err != nil {
		t.Fatalf("RenderPass failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pr.Render(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	fb, err := pr.Render(context.Background())
	if err != nil {
		t.Fatalf("Resumed render failed: %v", err)
	}
	if fb.Samples() != 3 {
		t.Errorf("Expected 3 samples after resuming, got %d", fb.Samples())
	}
}
