// Package api exposes the session over HTTP: state snapshots and
// stats for polling, a tap endpoint for placement requests, and a
// websocket delta stream for renderers.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataxr/anchord/internal/geom"
	"github.com/strataxr/anchord/internal/session"
	"github.com/strataxr/anchord/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server serves the session API over a bridge.
type Server struct {
	bridge *session.Bridge
	hub    *DeltaHub
}

// NewServer creates an API server over the given bridge and delta hub.
func NewServer(bridge *session.Bridge, hub *DeltaHub) *Server {
	return &Server{bridge: bridge, hub: hub}
}

// Hub returns the delta hub, for the drain pump.
func (s *Server) Hub() *DeltaHub {
	return s.hub
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes, intended to be mounted under /api.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/session/snapshot", s.showSnapshot)
	mux.HandleFunc("/session/stats", s.showStats)
	mux.HandleFunc("/session/tap", s.handleTap)
	mux.Handle("/session/deltas", s.hub)
	return mux
}

func (s *Server) showSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, SnapshotToDTO(s.bridge.Snapshot()))
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats := struct {
		session.SessionStats
		RendererClients int    `json:"renderer_clients"`
		Version         string `json:"version"`
	}{
		SessionStats:    s.bridge.Stats(),
		RendererClients: s.hub.ClientCount(),
		Version:         version.Version,
	}
	writeJSON(w, stats)
}

// handleTap submits a placement request and returns the result
// synchronously so the host UI gets immediate feedback. NoSurface and
// LimitReached are reported with 200: they are outcomes, not errors.
func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid tap request: "+err.Error(), http.StatusBadRequest)
		return
	}
	kind := session.ObjectKind(req.Kind)
	if !session.ValidKind(kind) {
		http.Error(w, "Unknown object kind: "+req.Kind, http.StatusBadRequest)
		return
	}

	ray := geom.Ray{
		Origin: r3.Vec{X: req.Origin[0], Y: req.Origin[1], Z: req.Origin[2]},
		Dir:    r3.Vec{X: req.Dir[0], Y: req.Dir[1], Z: req.Dir[2]},
	}
	result, err := s.bridge.IngestTap(r.Context(), ray, kind, req.Size)
	if err != nil {
		http.Error(w, "Session unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	resp := TapResponse{
		Outcome:  string(result.Outcome),
		ObjectID: string(result.ObjectID),
		PlaneID:  string(result.PlaneID),
	}
	if result.Outcome == session.PlacementPlaced {
		pose := poseDTO(result.Pose)
		resp.Pose = &pose
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
