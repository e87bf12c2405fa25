// Package api exposes the road network, routing and the running simulation
// over HTTP with JSON and GeoJSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roadnet-sim/pkg/roadgen"
	"roadnet-sim/pkg/simulation"
)

// Server owns the current road network and the world running on it. A new
// network replaces both.
type Server struct {
	mu      sync.RWMutex
	genCfg  roadgen.Config
	simCfg  simulation.Config
	network *roadgen.Network
	world   *simulation.World

	handler http.Handler
	server  *http.Server
}

// NewServer creates a server listening on addr. No network exists until
// Build is called or a client posts to /buildNetwork.
func NewServer(addr string, genCfg roadgen.Config, simCfg simulation.Config) *Server {
	s := &Server{genCfg: genCfg, simCfg: simCfg}

	mux := http.NewServeMux()
	mux.HandleFunc("/buildNetwork", corsMiddleware(s.handleBuildNetwork))
	mux.HandleFunc("/networkLines", corsMiddleware(s.handleNetworkLines))
	mux.HandleFunc("/route", corsMiddleware(s.handleRoute))
	mux.HandleFunc("/spawn", corsMiddleware(s.handleSpawn))
	mux.HandleFunc("/step", corsMiddleware(s.handleStep))
	mux.HandleFunc("/agents", corsMiddleware(s.handleAgents))
	mux.HandleFunc("/health", corsMiddleware(s.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())
	s.handler = mux

	if addr == "" {
		addr = ":8080"
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler { return s.handler }

// Build generates a network with cfg, translates it and starts a fresh world
// with agents spawned on it. It replaces any previous network.
func (s *Server) Build(cfg roadgen.Config, agents int) (*simulation.World, error) {
	network, err := roadgen.Generate(cfg)
	if err != nil {
		return nil, err
	}
	if network.Len() == 0 {
		return nil, roadgen.ErrEmptyNetwork
	}
	g, err := network.Graph()
	if err != nil {
		return nil, err
	}

	world, err := simulation.NewWorld(g, s.simCfg)
	if err != nil {
		return nil, err
	}
	if agents > 0 {
		if _, err := world.Spawn(agents); err != nil && !errors.Is(err, simulation.ErrNoRoads) {
			return nil, err
		}
	}

	s.mu.Lock()
	s.network = network
	s.world = world
	s.mu.Unlock()
	return world, nil
}

// World returns the current world, or nil before the first build
func (s *Server) World() *simulation.World {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

func (s *Server) current() (*roadgen.Network, *simulation.World) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.network, s.world
}

// Run ticks whichever world is current at the configured rate until ctx is
// done
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.simCfg.TickInterval)
	defer ticker.Stop()
	dt := s.simCfg.TickInterval.Seconds()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if w := s.World(); w != nil {
				w.Step(dt)
			}
		}
	}
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	log.Printf("🚀 Listening on %s\n", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	log.Println("🛑 Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
