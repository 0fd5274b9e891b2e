package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/output"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene           string // Scene ID: a built-in name or yaml:<file>
	Width           int    // Image width, 0 keeps the scene's
	Height          int    // Image height, 0 keeps the scene's
	SamplesPerPixel int    // Passes to render, 0 keeps the scene's
	MaxDepth        int    // Bounce limit, negative keeps the scene's
	Seed            uint64
}

// PassUpdate is the payload of a "pass" event
type PassUpdate struct {
	RenderID    string `json:"renderId"`
	Pass        int    `json:"pass"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int     `json:"totalPixels"`
	SamplesPerPixel  int     `json:"samplesPerPixel"`
	TotalSamples     int64   `json:"totalSamples"`
	PassMs           int64   `json:"passMs"`
	MeanVariance     float64 `json:"meanVariance"`
	AverageLuminance float64 `json:"averageLuminance"`
}

// CompleteUpdate is the payload of a "complete" event
type CompleteUpdate struct {
	RenderID  string `json:"renderId"`
	Passes    int    `json:"passes"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string // "pass", "console", "error", "complete"
	Data string // JSON-encoded data, or a plain message for errors
}

// RenderingPipeline contains the configured scene and raytracer
type RenderingPipeline struct {
	Scene     *scene.Scene
	Raytracer *renderer.ProgressiveRaytracer
}

// handleRender streams a progressive render as Server-Sent Events. The render
// stops after the current pass when the client disconnects.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Every write to w goes through one goroutine
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := uuid.New().String()
	consoleChan := make(chan ConsoleMessage, 50)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	// Only called once nothing logs to the console any more
	stopConsole := func() {
		close(consoleChan)
		<-consoleDone
	}

	logger := slog.New(NewConsoleHandler(consoleChan, s.logger.Handler(), nil)).With("render_id", renderID)

	pipeline, err := s.setupRenderingPipeline(req, logger)
	if err != nil {
		stopConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	startTime := time.Now()
	passChan, errChan := pipeline.Raytracer.RenderProgressive(ctx)

	passes := 0
	for result := range passChan {
		passes = result.PassNumber
		s.handlePassComplete(ctx, sseEventChan, renderID, result, startTime)
	}
	renderErr := <-errChan
	stopConsole()

	if renderErr != nil {
		if ctx.Err() == nil {
			s.handleError(ctx, sseEventChan, fmt.Sprintf("Render error: %v", renderErr))
		}
		return
	}

	data, err := json.Marshal(CompleteUpdate{
		RenderID:  renderID,
		Passes:    passes,
		ElapsedMs: time.Since(startTime).Milliseconds(),
	})
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	s.sendEvent(ctx, sseEventChan, SSEEvent{Type: "complete", Data: string(data)})
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes events until the channel is closed or the client
// disconnects. After a failed write it keeps draining so senders never block.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	failed := false
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if failed {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				failed = true
				continue
			}
			if flusher != nil {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// streamConsoleMessages forwards console records as "console" events until
// consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			s.logger.Error("encoding console message", "err", err)
			continue
		}

		// Drop console lines rather than stall the render
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
		}
	}
}

// setupRenderingPipeline resolves the scene, applies the request overrides
// and builds the raytracer
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger *slog.Logger) (*RenderingPipeline, error) {
	sceneObj, err := scene.Resolve(req.Scene, s.sceneDir, scene.SamplingConfig{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.SamplesPerPixel,
	})
	if err != nil {
		return nil, err
	}
	if req.MaxDepth >= 0 {
		if err := sceneObj.SetMaxDepth(req.MaxDepth); err != nil {
			return nil, err
		}
	}

	config := renderer.ConfigForScene(sceneObj)
	config.Seed = req.Seed

	raytracer, err := renderer.NewProgressiveRaytracer(sceneObj, config, logger)
	if err != nil {
		return nil, err
	}
	return &RenderingPipeline{Scene: sceneObj, Raytracer: raytracer}, nil
}

// handlePassComplete encodes a finished pass and queues it as a "pass" event
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, renderID string, result renderer.PassResult, startTime time.Time) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		s.logger.Error("encoding pass image", "pass", result.PassNumber, "err", err)
		return
	}

	update := PassUpdate{
		RenderID:    renderID,
		Pass:        result.PassNumber,
		TotalPasses: result.Stats.TotalPasses,
		ImageData:   imageData,
		Stats: Stats{
			TotalPixels:      result.Stats.TotalPixels,
			SamplesPerPixel:  result.Stats.SamplesPerPixel,
			TotalSamples:     int64(result.Stats.TotalSamples),
			PassMs:           result.Stats.PassTime.Milliseconds(),
			MeanVariance:     result.Stats.MeanVariance,
			AverageLuminance: renderer.CalculateAverageLuminance(result.Image),
		},
		IsComplete: result.IsLast,
		ElapsedMs:  time.Since(startTime).Milliseconds(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		s.logger.Error("encoding pass update", "pass", result.PassNumber, "err", err)
		return
	}
	s.sendEvent(ctx, sseEventChan, SSEEvent{Type: "pass", Data: string(data)})
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 0, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	if req.SamplesPerPixel, err = parseIntParam(query, "spp", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "bounces", -1, 0, maxBounces); err != nil {
		return nil, err
	}
	if req.Seed, err = parseUintParam(query, "seed", renderer.DefaultProgressiveConfig().Seed); err != nil {
		return nil, err
	}

	if req.Width*req.Height > 800*600 && req.SamplesPerPixel > 100 {
		s.logger.Warn("large image with high samples may render slowly",
			"width", req.Width, "height", req.Height, "spp", req.SamplesPerPixel)
	}

	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img *renderer.Image) (string, error) {
	var buf bytes.Buffer
	if err := output.EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError sends an error event. SSE data lines cannot hold newlines.
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	s.sendEvent(ctx, sseEventChan, SSEEvent{Type: "error", Data: strings.ReplaceAll(message, "\n", " ")})
}

func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, event SSEEvent) {
	select {
	case sseEventChan <- event:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
