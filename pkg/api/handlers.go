package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"roadnet-sim/pkg/agent"
	"roadnet-sim/pkg/geom"
	"roadnet-sim/pkg/graph"
	"roadnet-sim/pkg/roadgen"
	"roadnet-sim/pkg/simulation"
)

const notBuilt = "Road network not built. Call /buildNetwork first"

// BuildRequest is the body of POST /buildNetwork. Config fields that are
// omitted keep the server defaults.
type BuildRequest struct {
	Config roadgen.Config `json:"config"`
	Agents *int           `json:"agents,omitempty"` // defaults to the configured agent count
	Force  bool           `json:"force,omitempty"`  // rebuild even if a network exists
}

// RouteRequest is the body of POST /route. Node IDs win over positions;
// positions are snapped to the nearest node.
type RouteRequest struct {
	Start     *geom.Vec3    `json:"start,omitempty"`
	End       *geom.Vec3    `json:"end,omitempty"`
	StartNode *graph.NodeID `json:"startNode,omitempty"`
	EndNode   *graph.NodeID `json:"endNode,omitempty"`
}

// RouteResponse is the result of POST /route
type RouteResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Nodes    []graph.NodeID `json:"nodes"`
	Path     []geom.Vec3    `json:"path"`
	Cost     float64        `json:"cost"`
	Expanded int            `json:"expanded"`
}

// StepRequest is the body of POST /step
type StepRequest struct {
	Ticks int     `json:"ticks"`
	DT    float64 `json:"dt"` // seconds; defaults to the tick interval
}

// decodeBody decodes an optional JSON body into v
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// POST /buildNetwork - Generate a road network and start a new world on it
func (s *Server) handleBuildNetwork(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("🗺️  Build network request received")

	if r.Method != http.MethodPost {
		log.Printf("❌ Method not allowed: %s\n", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := BuildRequest{Config: s.genCfg}
	if err := decodeBody(r, &req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	network, _ := s.current()
	if network != nil && !req.Force {
		log.Println("⚠️  Road network already exists")
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   "network already exists",
			"message": "Network is already built. Set 'force: true' to rebuild.",
		})
		return
	}
	if network != nil {
		log.Println("🔄 Force rebuild requested - recreating road network...")
	}

	agents := s.simCfg.AgentCount
	if req.Agents != nil {
		agents = *req.Agents
	}

	world, err := s.Build(req.Config, agents)
	switch {
	case errors.Is(err, roadgen.ErrInvalidConfig), errors.Is(err, simulation.ErrInvalidConfig):
		log.Printf("❌ %v\n", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("❌ Build failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	network, _ = s.current()
	bound := network.Bounds()
	log.Printf("✅ Road network built and stored in memory (run %s)\n", world.RunID())
	log.Println("========================================")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"runId":        world.RunID(),
		"seed":         network.Stats().Seed,
		"numWaypoints": network.Len(),
		"numRoads":     network.RoadCount(),
		"numAgents":    world.Len(),
		"stats":        network.Stats(),
		"boundingBox": map[string]float64{
			"minX": bound.Min[0],
			"minZ": bound.Min[1],
			"maxX": bound.Max[0],
			"maxZ": bound.Max[1],
		},
	})
}

// GET /networkLines - Roads (and optionally waypoints) as GeoJSON
func (s *Server) handleNetworkLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	network, _ := s.current()
	if network == nil {
		writeError(w, http.StatusBadRequest, notBuilt)
		return
	}

	fc := network.FeatureCollection(r.URL.Query().Get("waypoints") == "true")
	log.Printf("📊 Returning %d network features\n", len(fc.Features))
	writeJSON(w, http.StatusOK, fc)
}

// POST /route - Shortest path between two nodes or two positions
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	log.Println("📍 Route request received")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	world := s.World()
	if world == nil {
		writeError(w, http.StatusBadRequest, notBuilt)
		return
	}
	g := world.Graph()

	start, ok := resolveNode(g, req.StartNode, req.Start)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing or invalid start")
		return
	}
	end, ok := resolveNode(g, req.EndNode, req.End)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing or invalid end")
		return
	}

	path, found := simulation.FindRoute(g, start, end)
	resp := RouteResponse{
		Success:  found,
		Nodes:    path.Nodes,
		Path:     make([]geom.Vec3, 0, len(path.Nodes)),
		Cost:     path.Cost,
		Expanded: path.Expanded,
	}
	if !found {
		log.Printf("❌ No path found from node %d to node %d\n", start, end)
		resp.Message = "No path found"
		resp.Nodes = []graph.NodeID{}
	} else {
		log.Printf("✅ Path found with %d nodes, cost %.2f\n", len(path.Nodes), path.Cost)
		for _, id := range path.Nodes {
			resp.Path = append(resp.Path, g.Position(id))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func resolveNode(g *graph.Graph, id *graph.NodeID, pos *geom.Vec3) (graph.NodeID, bool) {
	if id != nil {
		return *id, g.Valid(*id)
	}
	if pos != nil {
		nearest, _ := g.Nearest(*pos)
		return nearest, nearest != graph.NoNode
	}
	return graph.NoNode, false
}

// POST /spawn - Add agents to the current world
func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	if err := decodeBody(r, &req); err != nil || req.Count < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	world := s.World()
	if world == nil {
		writeError(w, http.StatusBadRequest, notBuilt)
		return
	}

	spawned, err := world.Spawn(req.Count)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, simulation.ErrNoRoads) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"spawned": spawned,
		"total":   world.Len(),
	})
}

// POST /step - Advance the current world manually
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := StepRequest{Ticks: 1, DT: s.simCfg.TickInterval.Seconds()}
	if err := decodeBody(r, &req); err != nil || req.Ticks < 0 || req.DT <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	world := s.World()
	if world == nil {
		writeError(w, http.StatusBadRequest, notBuilt)
		return
	}

	for i := 0; i < req.Ticks; i++ {
		world.Step(req.DT)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"ticks":   world.Ticks(),
		"summary": world.Summary(),
	})
}

// GET /agents - Agent snapshots as JSON, or GeoJSON with ?format=geojson
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	world := s.World()
	if world == nil {
		writeError(w, http.StatusBadRequest, notBuilt)
		return
	}
	snaps := world.Agents()

	if r.URL.Query().Get("format") == "geojson" {
		writeJSON(w, http.StatusOK, agentFeatures(snaps))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"agents":  snaps,
	})
}

func agentFeatures(snaps []agent.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range snaps {
		f := geojson.NewFeature(s.Position.Planar())
		f.Properties["id"] = s.ID
		f.Properties["state"] = s.State.String()
		f.Properties["speed"] = s.Speed
		f.Properties["heading"] = s.Direction.Heading()
		f.Properties["target"] = int(s.Target)
		f.Properties["roaming"] = s.Roaming
		fc.Append(f)
	}
	return fc
}

// GET /health - Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	network, world := s.current()

	resp := map[string]interface{}{
		"status":     "waiting for network",
		"hasNetwork": network != nil,
	}
	if world != nil {
		resp["status"] = "ready"
		resp["runId"] = world.RunID()
		resp["numNodes"] = world.Graph().Len()
		resp["numEdges"] = world.Graph().EdgeCount()
		resp["numAgents"] = world.Len()
		resp["ticks"] = world.Ticks()
	}

	writeJSON(w, http.StatusOK, resp)
}
