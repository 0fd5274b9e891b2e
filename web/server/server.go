package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/go-json-experiment/json"
	"github.com/pkg/errors"
)

// Request limits shared by the render and scene-config endpoints
const (
	minImageSize = 16
	maxImageSize = 2000
	maxSamples   = 10000
	maxBounces   = 1000
)

// Server handles web requests for the progressive path tracer
type Server struct {
	port      int
	sceneDir  string
	staticDir string
	logger    *slog.Logger
}

// NewServer creates a new web server. Scene files are listed from sceneDir
// and static files served from staticDir. A nil logger uses slog.Default().
func NewServer(port int, sceneDir, staticDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{port: port, sceneDir: sceneDir, staticDir: staticDir, logger: logger}
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	return mux
}

// Start serves until the listener fails
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting web server", "addr", "http://localhost"+addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in and file scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.sceneDir)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, scenes)
}

// SceneConfigResponse describes a scene's defaults and the accepted ranges
// of each render parameter
type SceneConfigResponse struct {
	Scene    string           `json:"scene"`
	Defaults SceneDefaults    `json:"defaults"`
	Limits   map[string]Limit `json:"limits"`
}

// SceneDefaults is the scene's own sampling configuration
type SceneDefaults struct {
	Width           int `json:"width"`
	Height          int `json:"height"`
	SamplesPerPixel int `json:"samplesPerPixel"`
	MaxDepth        int `json:"maxDepth"`
}

// Limit is an inclusive parameter range
type Limit struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = "default"
	}

	sceneObj, err := scene.Resolve(sceneName, s.sceneDir)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	config := sceneObj.SamplingConfig
	s.writeJSON(w, http.StatusOK, SceneConfigResponse{
		Scene: sceneName,
		Defaults: SceneDefaults{
			Width:           config.Width,
			Height:          config.Height,
			SamplesPerPixel: config.SamplesPerPixel,
			MaxDepth:        config.MaxDepth,
		},
		Limits: map[string]Limit{
			"width":   {minImageSize, maxImageSize},
			"height":  {minImageSize, maxImageSize},
			"spp":     {1, maxSamples},
			"bounces": {0, maxBounces},
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding response", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, errors.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, errors.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseUintParam parses an unsigned 64-bit parameter from URL query
func parseUintParam(values url.Values, key string, defaultValue uint64) (uint64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return 0, errors.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
