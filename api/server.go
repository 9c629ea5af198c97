// Package api exposes the analysis engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pagecanvas/imagerank"
	"github.com/pagecanvas/imagerank/cache"
	"github.com/pagecanvas/imagerank/db"
	"github.com/pagecanvas/imagerank/metrics"
	"github.com/pagecanvas/imagerank/models"
	"github.com/pagecanvas/imagerank/scan"
	"github.com/pagecanvas/imagerank/slug"
	"github.com/pagecanvas/imagerank/storage"
)

// Server represents the API server
type Server struct {
	engine   *imagerank.Engine
	scanner  *scan.Scanner
	database *db.DB        // nil when running without Postgres
	memory   *cache.Memory // nil when the database is the store
	storage  *storage.Storage
	s3       *storage.S3Storage // nil unless configured

	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
}

// Config contains server configuration
type Config struct {
	Addr          string
	EngineConfig  imagerank.Config
	ScanConfig    scan.Config
	StorageConfig storage.Config
	DBConfig      db.Config          // DSN empty means in-memory cache only
	S3Config      *storage.S3Config  // nil disables S3 export
	CORSEnabled   bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		EngineConfig:  imagerank.DefaultConfig(),
		ScanConfig:    scan.DefaultConfig(),
		StorageConfig: storage.DefaultConfig(),
		CORSEnabled:   true,
	}
}

// NewServer creates a new API server. When a database DSN is configured the
// database doubles as the engine's cache store; otherwise an in-memory store
// is used.
func NewServer(config Config) (*Server, error) {
	storageInstance, err := storage.New(config.StorageConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s := &Server{
		scanner:     scan.New(config.ScanConfig),
		storage:     storageInstance,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	var store cache.Store
	if config.DBConfig.DSN != "" {
		database, err := db.New(config.DBConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.database = database
		store = database
	} else {
		s.memory = cache.NewMemory(0)
		store = s.memory
	}

	s.engine = imagerank.New(config.EngineConfig, store)

	if config.S3Config != nil {
		s3Storage, err := storage.NewS3Storage(context.Background(), *config.S3Config)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		s.s3 = s3Storage
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "imagerank-api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/sections", s.handleSections)
	s.mux.HandleFunc("/api/scan", s.handleScan)
	s.mux.HandleFunc("/api/runs", s.handleListRuns)
	s.mux.HandleFunc("/api/runs/", s.handleGetRun) // Handles /api/runs/{key}
	s.mux.HandleFunc("/api/reports", s.handleExportReport)
}

// Start starts the API server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if s.memory != nil {
		s.memory.Close()
	}
	if s.database != nil {
		return s.database.Close()
	}
	return nil
}

// DB returns the database, or nil when running without one
func (s *Server) DB() *db.DB {
	return s.database
}

// middleware applies common middleware to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Logging (skip health and metrics to reduce noise)
		start := time.Now()
		quiet := r.URL.Path == "/health" || r.URL.Path == "/metrics"
		if !quiet {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}

		next.ServeHTTP(w, r)

		if !quiet {
			log.Printf("%s %s - completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	}
	if s.database != nil {
		count, err := s.database.Count(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to get run count")
			return
		}
		status["runs"] = count
	}

	respondJSON(w, http.StatusOK, status)
}

// handleAnalyze runs a diversity analysis over the posted image records
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int("imagerank.images", len(req.Images)))

	result := s.engine.AnalyzeImageDiversity(r.Context(), req.Images, req.Options)
	span.SetAttributes(attribute.Bool("imagerank.cached", result.Cached))

	respondJSON(w, http.StatusOK, result)
}

// handleSections matches the posted image records to page sections
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.SectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := s.engine.ProcessSectionMatching(req.Images, req.Options)

	if s.database != nil {
		runID := uuid.New().String()
		if err := s.database.SaveSectionRun(r.Context(), runID, result); err != nil {
			log.Printf("Failed to save section run: %v", err)
			// Still return the result even if save fails
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// handleScan scans a shop page for candidate images
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := s.scanner.ScanPage(ctx, req.URL)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("scan failed: %v", err))
		return
	}
	metrics.ScansTotal.WithLabelValues("ok").Inc()

	respondJSON(w, http.StatusOK, result)
}

// handleListRuns lists persisted analysis runs with pagination
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.database == nil {
		respondError(w, http.StatusServiceUnavailable, "run history requires a database")
		return
	}

	limit := 20
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		fmt.Sscanf(offsetStr, "%d", &offset)
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	runs, err := s.database.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	count, _ := s.database.Count(r.Context())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"total":  count,
		"limit":  limit,
		"offset": offset,
	})
}

// handleGetRun retrieves a persisted analysis result by cache key
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.database == nil {
		respondError(w, http.StatusServiceUnavailable, "run history requires a database")
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if key == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}

	result, err := s.database.GetResult(r.Context(), key)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	result.Cached = true
	respondJSON(w, http.StatusOK, result)
}

// ReportRequest asks for an analysis or section result to be exported
type ReportRequest struct {
	Title    string                        `json:"title"`
	URL      string                        `json:"url"`
	Target   string                        `json:"target"` // "fs" (default) or "s3"
	Analysis *models.AnalysisResult        `json:"analysis,omitempty"`
	Sections *models.SectionMatchingResult `json:"sections,omitempty"`
}

// ReportResponse returns where the report landed
type ReportResponse struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}

// handleExportReport writes a result as a JSON report to fs or S3 storage
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Analysis == nil && req.Sections == nil {
		respondError(w, http.StatusBadRequest, "analysis or sections payload is required")
		return
	}

	var payload interface{} = req.Analysis
	if req.Analysis == nil {
		payload = req.Sections
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode report")
		return
	}

	name := slug.FromPage(req.Title, req.URL)

	switch req.Target {
	case "s3":
		if s.s3 == nil {
			respondError(w, http.StatusServiceUnavailable, "S3 storage is not configured")
			return
		}
		key, err := s.s3.SaveReport(r.Context(), data, name)
		if err != nil {
			log.Printf("Failed to export report to S3: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to export report")
			return
		}
		respondJSON(w, http.StatusOK, ReportResponse{Path: key, Target: "s3"})
	case "", "fs":
		path, err := s.storage.SaveReport(data, name)
		if err != nil {
			log.Printf("Failed to export report: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to export report")
			return
		}
		respondJSON(w, http.StatusOK, ReportResponse{Path: path, Target: "fs"})
	default:
		respondError(w, http.StatusBadRequest, "unknown target: "+req.Target)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
