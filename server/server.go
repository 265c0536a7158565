// Package server exposes a thin HTTP control plane around the generation
// pipeline: a regenerate trigger, a status endpoint, the current
// heightmap, and a websocket stream of progress events.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/habib256/wilderness/erosion"
	"github.com/habib256/wilderness/export"
	"github.com/habib256/wilderness/generators"
	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// RegenerateRequest is the JSON body accepted by /api/regenerate. Zero
// values fall back to the pipeline defaults.
type RegenerateRequest struct {
	Size         int     `json:"size"`
	Seed         int64   `json:"seed"`
	DSRoughness  float64 `json:"ds_roughness"`
	FBMOctaves   int     `json:"fbm_octaves"`
	FBMFrequency float64 `json:"fbm_frequency"`
	BlendRatio   float64 `json:"blend_ratio"`

	// Erosion selects the simulator: "none", "droplet" or "grid".
	Erosion    string `json:"erosion"`
	Intensity  string `json:"intensity"`
	Iterations int    `json:"iterations"`
}

// Status reports the control plane's view of the pipeline.
type Status struct {
	State     string    `json:"state"` // idle, running, done, failed
	StartedAt time.Time `json:"started_at,omitempty"`
	Elapsed   float64   `json:"elapsed_seconds,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	GridSize  int       `json:"grid_size,omitempty"`
}

// Server owns the generated field and serializes regeneration runs: only
// one run executes at a time.
type Server struct {
	mu      sync.RWMutex
	field   *heightfield.Field
	status  Status
	hub     *hub
	running bool
}

// New returns a server with no field yet.
func New() *Server {
	return &Server{
		status: Status{State: "idle"},
		hub:    newHub(),
	}
}

// Handler returns the control-plane routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/regenerate", s.handleRegenerate)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/heightmap.png", s.handleHeightmap)
	mux.HandleFunc("/ws/progress", s.hub.handleWS)
	return mux
}

// ListenAndServe runs the control plane on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("server: control plane listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}
	s.running = true
	s.status = Status{State: "running", StartedAt: time.Now()}
	s.mu.Unlock()

	go s.run(req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.status
	if status.State == "running" {
		status.Elapsed = time.Since(status.StartedAt).Seconds()
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleHeightmap(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	field := s.field
	s.mu.RUnlock()
	if field == nil {
		http.Error(w, "no heightmap generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := export.WritePNG16(field, w); err != nil {
		log.Printf("server: encoding heightmap: %v", err)
	}
}

// run executes one full pipeline pass. A panic mid-run is reported through
// the progress sink and the previously completed field is kept as-is.
func (s *Server) run(req RegenerateRequest) {
	sink := s.hub.sink()
	tr := progress.NewTracker(sink)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("run aborted: %v", r)
			tr.Fail(err)
			s.finish(nil, err)
		}
	}()

	field, err := s.generate(req, tr)
	s.finish(field, err)
}

func (s *Server) generate(req RegenerateRequest, tr *progress.Tracker) (*heightfield.Field, error) {
	cfg := generators.DefaultCompositeConfig(req.Size, req.Seed)
	if cfg.Size == 0 {
		cfg.Size = 1024
	}
	if req.DSRoughness > 0 {
		cfg.DSRoughness = req.DSRoughness
	}
	if req.FBMOctaves > 0 {
		cfg.FBMOctaves = req.FBMOctaves
	}
	if req.FBMFrequency > 0 {
		cfg.FBMFrequency = req.FBMFrequency
	}
	if req.BlendRatio > 0 {
		cfg.BlendRatio = req.BlendRatio
	}

	pipeline, err := generators.NewComposite(cfg)
	if err != nil {
		return nil, err
	}
	field, err := pipeline.Generate(tr)
	if err != nil {
		return nil, err
	}

	switch req.Erosion {
	case "", "none":
	case "droplet":
		params := erosion.DefaultDropletParams()
		if req.Intensity != "" {
			params, err = erosion.DropletPreset(req.Intensity)
			if err != nil {
				return nil, err
			}
		}
		if req.Iterations > 0 {
			params.Iterations = req.Iterations
		}
		params.Seed = cfg.Seed
		eroder, err := erosion.NewDropletEroder(params)
		if err != nil {
			return nil, err
		}
		field = eroder.Erode(field, tr)
	case "grid":
		params := erosion.DefaultHydroThermalParams()
		if req.Iterations > 0 {
			params.Iterations = req.Iterations
		}
		params.Seed = cfg.Seed
		eroder, err := erosion.NewHydroThermalEroder(params)
		if err != nil {
			return nil, err
		}
		var metrics erosion.Metrics
		field, metrics, err = eroder.Erode(field, tr)
		if err != nil {
			return nil, err
		}
		log.Printf("server: erosion metrics: %s", metrics)
	default:
		return nil, fmt.Errorf("unknown erosion mode %q", req.Erosion)
	}
	return field, nil
}

func (s *Server) finish(field *heightfield.Field, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.status.Elapsed = time.Since(s.status.StartedAt).Seconds()
	if err != nil {
		s.status.State = "failed"
		s.status.LastError = err.Error()
		log.Printf("server: run failed: %v", err)
		return
	}
	s.field = field
	s.status.State = "done"
	s.status.GridSize = field.Size
}
