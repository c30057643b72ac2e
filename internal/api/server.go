// Package api serves the catalog document over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/config"
	"github.com/ChoBioLab/xenium-explorer-files/internal/events"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

// CatalogPath is where the document is served.
const CatalogPath = "/" + config.DefaultCacheLocation

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Files       int    `json:"files"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// Server hosts the published catalog. It never filters: clients fetch the
// whole document and filter it themselves.
type Server struct {
	loader      *catalog.Loader
	broadcaster *events.Broadcaster
	version     string
}

// NewServer creates a new server. broadcaster may be nil, which disables
// the event stream.
func NewServer(loader *catalog.Loader, broadcaster *events.Broadcaster, version string) *Server {
	return &Server{loader: loader, broadcaster: broadcaster, version: version}
}

// Handler returns the HTTP handler with logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET "+CatalogPath, s.handleCatalog)
	if s.broadcaster != nil {
		mux.HandleFunc("GET /events", s.handleEvents)
	}
	return logging.Middleware(metrics.Middleware(mux))
}

// HTTPServer wraps Handler in an http.Server listening on addr. Shutdown
// closes the event streams so open /events requests do not hold it up.
func (s *Server) HTTPServer(addr string) *http.Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.broadcaster != nil {
		hs.RegisterOnShutdown(s.broadcaster.Close)
	}
	return hs
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: s.version}
	code := http.StatusOK
	if cat := s.loader.Current(); cat != nil {
		resp.Files = cat.FileCount
		resp.LastUpdated = cat.LastUpdated.Raw
	} else {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	s.sendJSON(w, code, resp)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.loader.Current()
	if cat == nil {
		s.sendError(w, http.StatusServiceUnavailable, catalog.LoadFailureMessage)
		return
	}

	var buf bytes.Buffer
	if err := catalog.Encode(&buf, cat); err != nil {
		logging.WithContext(r.Context()).Error("encode catalog", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "encode catalog")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, CatalogPath, cat.LastUpdated.Time, bytes.NewReader(buf.Bytes()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			rc.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			rc.Flush()
		}
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	s.sendJSON(w, code, ErrorResponse{Error: message, Code: code})
}
