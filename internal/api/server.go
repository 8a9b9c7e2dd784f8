// Package api provides the HTTP API for observing the colony.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
// See design doc Section 8.4.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/engine"
	"github.com/talgya/micro-minds/internal/persistence"
)

// Server serves the colony state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Mind-introspection endpoints walk per-agent Q-tables; keep them cheap.
	mindLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the colony).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", RateLimitMiddleware(mindLimiter, s.handleAgentDetail))
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no MINDSIM_ADMIN_KEY set)", http.StatusForbidden)
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

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, tick := s.Sim.View()
	writeJSON(w, map[string]any{
		"name":       "Micro Minds",
		"tick":       tick,
		"speed":      s.Eng.Speed,
		"running":    s.Eng.Running,
		"population": stats.Population,
		"births":     stats.Births,
		"deaths":     stats.Deaths,
		"avg_mood":   stats.AvgMood,
		"avg_energy": stats.AvgEnergy,
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	type agentSummary struct {
		ID     agents.AgentID `json:"id"`
		Name   string         `json:"name"`
		Sex    string         `json:"sex"`
		Energy float64        `json:"energy"`
		Wealth float64        `json:"wealth"`
		Mood   float64        `json:"mood"`
		X      int            `json:"x"`
		Y      int            `json:"y"`
	}

	var result []agentSummary
	s.Sim.WithAgents(func(living []*agents.Agent) {
		for _, a := range living {
			result = append(result, agentSummary{
				ID:     a.ID,
				Name:   a.Name,
				Sex:    sexName(a.Sex),
				Energy: a.Energy,
				Wealth: a.Wealth,
				Mood:   a.Mood,
				X:      a.Position.X,
				Y:      a.Position.Y,
			})
		}
	})
	writeJSON(w, result)
}

// handleAgentDetail serves GET /api/v1/agent/:id — the full view of one
// agent including its mind's learning progress and social ties.
func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 {
		http.Error(w, "missing agent id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	type peerView struct {
		Peer     brain.PeerID `json:"peer"`
		Trust    float64      `json:"trust"`
		Affinity float64      `json:"affinity"`
		Events   int          `json:"events"`
	}
	type detail struct {
		ID         agents.AgentID `json:"id"`
		Name       string         `json:"name"`
		Sex        string         `json:"sex"`
		Energy     float64        `json:"energy"`
		Wealth     float64        `json:"wealth"`
		Mood       float64        `json:"mood"`
		Corruption float64        `json:"corruption"`
		BornTick   uint64         `json:"born_tick"`
		X          int            `json:"x"`
		Y          int            `json:"y"`
		Mind       brain.Stats    `json:"mind"`
		Peers      []peerView     `json:"peers"`
	}

	var result *detail
	s.Sim.WithAgents(func(living []*agents.Agent) {
		for _, a := range living {
			if uint64(a.ID) != id {
				continue
			}
			d := &detail{
				ID:         a.ID,
				Name:       a.Name,
				Sex:        sexName(a.Sex),
				Energy:     a.Energy,
				Wealth:     a.Wealth,
				Mood:       a.Mood,
				Corruption: a.Corruption,
				BornTick:   a.BornTick,
				X:          a.Position.X,
				Y:          a.Position.Y,
				Mind:       a.Mind.Stats(),
			}
			for _, e := range a.Mind.Social().Entries() {
				d.Peers = append(d.Peers, peerView{
					Peer:     e.Peer,
					Trust:    e.Trust,
					Affinity: e.Affinity,
					Events:   len(e.Events),
				})
			}
			sort.Slice(d.Peers, func(i, j int) bool { return d.Peers[i].Trust > d.Peers[j].Trust })
			result = d
			return
		}
	})

	if result == nil {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	writeJSON(w, s.Sim.RecentEvents(limit))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, _ := s.Sim.View()
	writeJSON(w, stats)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.Speed = req.Speed
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed})
}

// handleSnapshot triggers an immediate full save (admin POST).
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	_, tick := s.Sim.View()
	if err := s.DB.SaveColonyState(s.Sim, tick); err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved_at_tick": tick})
}

func sexName(sex agents.Sex) string {
	if sex == agents.SexFemale {
		return "female"
	}
	return "male"
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
