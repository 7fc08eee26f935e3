// Package api provides the HTTP API for observing and steering a running
// city. GET endpoints are public (read-only observation). POST endpoints
// require a bearer token (mayoral control plane). A websocket hub at /ws
// pushes tick summaries and events to connected viewers.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/simville/internal/city"
	"github.com/talgya/simville/internal/engine"
	"github.com/talgya/simville/internal/persistence"
)

// Server serves the city state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Hub      *Hub
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Limiters for endpoints that mutate heavily or write to disk.
	disasterLimiter := NewRateLimiter(10, time.Minute)
	snapshotLimiter := NewRateLimiter(4, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the city).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/map", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/map/", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("/api/v1/demand", s.handleDemand)
	mux.HandleFunc("/api/v1/complaints", s.handleComplaints)
	mux.HandleFunc("/api/v1/budget", s.handleBudget)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/scenario", s.handleScenario)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/command", s.adminOnly(s.handleCommand))
	mux.HandleFunc("/api/v1/disaster", s.adminOnly(RateLimitMiddleware(disasterLimiter, s.handleDisaster)))
	mux.HandleFunc("/api/v1/tax", s.adminOnly(s.handleTax))
	mux.HandleFunc("/api/v1/funding", s.adminOnly(s.handleFunding))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(RateLimitMiddleware(snapshotLimiter, s.handleSnapshot)))

	// Websocket feed.
	if s.Hub != nil {
		go s.Hub.Run()
		mux.HandleFunc("/ws", s.handleWS)
	}

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "websocket", s.Hub != nil)

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// PublishTick pushes the post-tick state to websocket viewers: one status
// envelope plus an envelope per event the tick produced. Wire it after
// TickMonth in the engine's OnTick callback.
func (s *Server) PublishTick(tick uint64) {
	if s.Hub == nil {
		return
	}
	s.Hub.Broadcast("status", s.statusResponse())
	for _, e := range s.Sim.RecentEvents(50) {
		if e.Tick == tick {
			s.Hub.Broadcast("event", e)
		}
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins
// (e.g. "https://simville.example.com"). Localhost dev servers are always
// allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that report current settings).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no SIMVILLE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

// statusResponse is the status payload shared by the HTTP handler, the
// websocket status envelope, and the per-tick broadcast.
func (s *Server) statusResponse() any {
	return struct {
		engine.Status
		Speed   int  `json:"speed"`
		Running bool `json:"running"`
	}{s.Sim.Status(), s.Eng.Speed(), s.Eng.Running()}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.statusResponse())
}

// handleMapRoutes dispatches between the bulk dump (GET /api/v1/map) and
// tile detail (GET /api/v1/map/:x/:y).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		writeJSON(w, s.Sim.MapDump())
		return
	}
	s.handleTileDetail(w, r)
}

func (s *Server) handleTileDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	// /api/v1/map/:x/:y → parts[0]="" [1]="api" [2]="v1" [3]="map" [4]=x [5]=y
	if len(parts) < 6 {
		http.Error(w, "usage: /api/v1/map/:x/:y", http.StatusBadRequest)
		return
	}
	x, err1 := strconv.Atoi(parts[4])
	y, err2 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	info, ok := s.Sim.TileInfo(x, y)
	if !ok {
		http.Error(w, "tile out of bounds", http.StatusNotFound)
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.StatsSnapshot())
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 60
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rows, err := s.DB.StatsHistory(limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// Return empty array instead of error — table may not have data yet.
		writeJSON(w, []persistence.StatsPoint{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsPoint{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleDemand(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.DemandIndicators())
}

func (s *Server) handleComplaints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.VoterComplaints())
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.BudgetSnapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.RecentEvents(limit)

	// Optional category filter ("construction", "disaster", "budget", ...).
	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	writeJSON(w, events)
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	prog, ok := s.Sim.ScenarioProgress()
	if !ok {
		writeJSON(w, map[string]any{"active": false})
		return
	}
	writeJSON(w, struct {
		Active bool `json:"active"`
		engine.ScenarioStatus
	}{true, prog})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed int `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > engine.MaxSpeed {
			http.Error(w, fmt.Sprintf("speed must be 0-%d", engine.MaxSpeed), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]int{"speed": s.Eng.Speed()})
}

// commandRequest is the build/bulldoze envelope shared by the POST command
// endpoint and the websocket command channel.
type commandRequest struct {
	Action string `json:"action"`         // "place", "zone", "bulldoze"
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Tile   string `json:"tile,omitempty"` // place: "road", "rail", "wire", "park", "coal_plant", ...
	Zone   string `json:"zone,omitempty"` // zone: "residential", "commercial", "industrial"
}

// applyCommand validates and executes one build command against the live
// simulation.
func (s *Server) applyCommand(req commandRequest) (string, error) {
	switch req.Action {
	case "place":
		t, ok := city.TileByName(req.Tile)
		if !ok {
			return "", fmt.Errorf("unknown tile type %q", req.Tile)
		}
		if !s.Sim.Place(t, req.X, req.Y) {
			return "", fmt.Errorf("cannot place %s at (%d,%d)", req.Tile, req.X, req.Y)
		}
		return fmt.Sprintf("%s placed at (%d,%d)", city.TileName(t), req.X, req.Y), nil

	case "zone":
		z, ok := city.ZoneByName(req.Zone)
		if !ok {
			return "", fmt.Errorf("unknown zone kind %q", req.Zone)
		}
		if !s.Sim.PlaceZone(z, req.X, req.Y) {
			return "", fmt.Errorf("cannot zone %s at (%d,%d)", req.Zone, req.X, req.Y)
		}
		return fmt.Sprintf("%s zone placed at (%d,%d)", req.Zone, req.X, req.Y), nil

	case "bulldoze":
		if !s.Sim.Bulldoze(req.X, req.Y) {
			return "", fmt.Errorf("cannot bulldoze (%d,%d)", req.X, req.Y)
		}
		return fmt.Sprintf("bulldozed (%d,%d)", req.X, req.Y), nil

	default:
		return "", fmt.Errorf("unknown action %q (use: place, zone, bulldoze)", req.Action)
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	details, err := s.applyCommand(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"success": true, "details": details})
}

var disasterKinds = map[engine.DisasterKind]bool{
	engine.DisasterFire:       true,
	engine.DisasterFlood:      true,
	engine.DisasterTornado:    true,
	engine.DisasterEarthquake: true,
	engine.DisasterMonster:    true,
	engine.DisasterMeltdown:   true,
	engine.DisasterPlane:      true,
	engine.DisasterUFO:        true,
}

func (s *Server) handleDisaster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	kind := engine.DisasterKind(strings.ToLower(req.Kind))
	if !disasterKinds[kind] {
		http.Error(w, "unknown disaster kind (use: fire, flood, tornado, earthquake, monster, meltdown, plane, ufo)", http.StatusBadRequest)
		return
	}

	if !s.Sim.TriggerDisaster(kind) {
		// Preconditions unmet: no nuclear plant for a meltdown, nothing
		// flammable for a fire, singleton already active.
		writeJSON(w, map[string]any{"success": false, "details": "conditions not met"})
		return
	}

	slog.Info("disaster triggered via API", "kind", kind)
	writeJSON(w, map[string]any{"success": true, "details": fmt.Sprintf("%s triggered", kind)})
}

func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Rate int `json:"rate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Rate < 0 || req.Rate > 20 {
			http.Error(w, "tax rate must be 0-20", http.StatusBadRequest)
			return
		}
		s.Sim.SetTaxRate(req.Rate)
	}

	writeJSON(w, map[string]int{"tax_rate": s.Sim.BudgetSnapshot().TaxRate})
}

func (s *Server) handleFunding(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Police    int `json:"police"`
			Fire      int `json:"fire"`
			Transport int `json:"transport"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		for _, v := range []int{req.Police, req.Fire, req.Transport} {
			if v < 0 || v > 100 {
				http.Error(w, "funding levels must be 0-100", http.StatusBadRequest)
				return
			}
		}
		s.Sim.SetFunding(req.Police, req.Fire, req.Transport)
	}

	b := s.Sim.BudgetSnapshot()
	writeJSON(w, map[string]int{
		"police":    b.PoliceFunding,
		"fire":      b.FireFunding,
		"transport": b.TransportFunding,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveCity(s.Sim); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.Sim.CurrentTick(),
		"message": "city saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
