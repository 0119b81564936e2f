// Package api exposes a running PagingEngine over HTTP: a chi-routed
// control plane for driving accesses and reading back statistics and
// table state, using the same middleware stack and JSON response
// envelope as the rest of this module's HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mnohosten/pagingsim/internal/api/gql"
	"github.com/mnohosten/pagingsim/internal/api/stream"
	"github.com/mnohosten/pagingsim/internal/config"
	"github.com/mnohosten/pagingsim/internal/pager"
)

// Server wraps a PagingEngine with an HTTP control plane. One Server
// owns at most one engine at a time; Init replaces it.
type Server struct {
	mu        sync.Mutex
	engine    *pager.PagingEngine
	startTime time.Time
	router    *chi.Mux
	hub       *stream.Hub
}

// New builds a Server with its routes already mounted. It holds no
// engine until the first /v1/init call.
func New() *Server {
	s := &Server{
		startTime: time.Now(),
		router:    chi.NewRouter(),
		hub:       stream.NewHub(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

var errNotInitialized = errors.New("no run is initialized")

// WithEngine satisfies gql.EngineSource: it runs fn with the server's
// lock held so a resolver's reads serialize against a concurrent
// /v1/init or /v1/access the same way the REST handlers do.
func (s *Server) WithEngine(fn func(*pager.PagingEngine) (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil, errNotInitialized
	}
	return fn(s.engine)
}

// ServeHTTP lets Server satisfy http.Handler directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the active engine and drops all stream connections.
func (s *Server) Close() error {
	s.hub.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/_health", s.handleHealth)
	s.router.Get("/_metrics", s.handleMetrics)

	s.router.Post("/v1/init", s.handleInit)
	s.router.Post("/v1/access", s.handleAccess)
	s.router.Get("/v1/stats", s.handleStats)
	s.router.Get("/v1/pagetable", s.handlePageTable)
	s.router.Get("/v1/frametable", s.handleFrameTable)
	s.router.Get("/v1/stream", s.hub.Handler())

	gqlHandler, err := gql.NewHandler(s)
	if err == nil {
		s.router.Post("/graphql", gqlHandler.ServeHTTP)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}

type initRequest struct {
	MemoryKB          int    `json:"memory_kb"`
	PageKB            int    `json:"page_kb"`
	VirtualPages      int    `json:"virtual_pages"`
	Policy            string `json:"policy"`
	BackingPath       string `json:"backing_path"`
	CompressEnabled   bool   `json:"compress_enabled"`
	CompressLevel     int    `json:"compress_level"`
	EncryptEnabled    bool   `json:"encrypt_enabled"`
	EncryptPassphrase string `json:"encrypt_passphrase"`
	EncryptSalt       string `json:"encrypt_salt"`
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	rc := config.Default()
	rc.Memory.MemoryKB = req.MemoryKB
	rc.Memory.PageKB = req.PageKB
	rc.VirtualPages = req.VirtualPages
	if req.Policy != "" {
		rc.Policy = req.Policy
	}
	if req.BackingPath != "" {
		rc.BackingPath = req.BackingPath
	}
	rc.Compress.Enabled = req.CompressEnabled
	rc.Compress.Level = req.CompressLevel
	rc.Encrypt.Enabled = req.EncryptEnabled
	rc.Encrypt.Passphrase = req.EncryptPassphrase
	rc.Encrypt.Salt = req.EncryptSalt

	pc, err := rc.ToPagerConfig()
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	engine, err := pager.NewEngine(pc)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if err := rc.ApplyCodec(engine, pc.PageSize); err != nil {
		engine.Close()
		writeErrorFor(w, err)
		return
	}

	s.mu.Lock()
	if s.engine != nil {
		s.engine.Close()
	}
	s.engine = engine
	s.mu.Unlock()

	writeSuccess(w, map[string]any{"initialized": true})
}

type accessRequest struct {
	Page int    `json:"page"`
	Kind string `json:"kind"`
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()
	if engine == nil {
		writeError(w, http.StatusConflict, "not_initialized", "call /v1/init before /v1/access")
		return
	}

	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	kind := pager.Read
	if req.Kind == "W" || req.Kind == "w" {
		kind = pager.Write
	}

	// Re-check under the same lock that serviced the access: a
	// concurrent /v1/init can close and replace s.engine between the
	// lookup above and here, and the engine captured at the top of this
	// handler would then be a closed one.
	s.mu.Lock()
	if s.engine != engine {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "not_initialized", "engine was reinitialized mid-request")
		return
	}
	before := residentCopy(engine)
	faultsBefore := engine.Stats().Faults
	err := engine.Access(pager.PageID(req.Page), kind)
	after := residentCopy(engine)
	faultsAfter := engine.Stats().Faults
	s.mu.Unlock()
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	s.hub.Broadcast(stream.Event{
		Type:    "access",
		Page:    uint32(req.Page),
		Kind:    kind.String(),
		Hit:     faultsAfter == faultsBefore,
		Evicted: evictedPage(before, after),
	})
	writeSuccess(w, map[string]any{"accessed": true})
}

func residentCopy(e *pager.PagingEngine) map[pager.PageID]bool {
	out := make(map[pager.PageID]bool)
	for _, p := range e.PageTable().ResidentPages() {
		out[p] = true
	}
	return out
}

// evictedPage returns the page present in before but absent from
// after, if the access caused exactly one eviction.
func evictedPage(before, after map[pager.PageID]bool) *uint32 {
	for p := range before {
		if !after[p] {
			v := uint32(p)
			return &v
		}
	}
	return nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		writeError(w, http.StatusConflict, "not_initialized", "call /v1/init before reading stats")
		return
	}
	writeSuccess(w, s.engine.Stats())
}

func (s *Server) handlePageTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		writeError(w, http.StatusConflict, "not_initialized", "call /v1/init before reading page table")
		return
	}
	writeSuccess(w, map[string]any{"resident": s.engine.PageTable().ResidentPages()})
}

func (s *Server) handleFrameTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		writeError(w, http.StatusConflict, "not_initialized", "call /v1/init before reading frame table")
		return
	}

	ft := s.engine.FrameTable()
	occupants := make([]map[string]any, ft.Len())
	for i := 0; i < ft.Len(); i++ {
		e := ft.Entry(pager.FrameID(i))
		occupants[i] = map[string]any{
			"frame":    i,
			"occupied": e.Occupied,
			"occupant": e.Occupant,
		}
	}
	writeSuccess(w, map[string]any{"frames": occupants})
}

// handleMetrics writes a minimal Prometheus text-format exposition of
// the active engine's counters by hand rather than through a client
// library: there are only a handful of gauges, none of the library's
// registry or HTTP-handler machinery earns its keep here.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return
	}
	st := s.engine.Stats()
	fmt.Fprintf(w, "pagingsim_accesses_total %d\n", st.Accesses)
	fmt.Fprintf(w, "pagingsim_hits_total %d\n", st.Hits)
	fmt.Fprintf(w, "pagingsim_faults_total %d\n", st.Faults)
	fmt.Fprintf(w, "pagingsim_swaps_out_total %d\n", st.SwapsOut)
	fmt.Fprintf(w, "pagingsim_swaps_in_total %d\n", st.SwapsIn)
	fmt.Fprintf(w, "pagingsim_fault_time_seconds_total %f\n", st.FaultTimeTotal.Seconds())
}

func writeErrorFor(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *pager.ConfigError:
		writeError(w, http.StatusBadRequest, "config_error", err.Error())
	case *pager.BoundsError:
		writeError(w, http.StatusBadRequest, "bounds_error", err.Error())
	case *pager.IoError:
		writeError(w, http.StatusInternalServerError, "io_error", err.Error())
	case *pager.LogicError:
		writeError(w, http.StatusInternalServerError, "logic_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": errType, "message": message})
}
