// Package mockbackend is a local stand-in for the welfare assistant API. It
// answers /chat from a small built-in catalog, defers answers as polling
// jobs, paginates by result ids, rate limits per client and stores feedback
// in SQLite.
package mockbackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
)

// Config tunes the mock behavior.
type Config struct {
	// DeferJobs answers searches with a job id to poll instead of inline.
	DeferJobs bool
	JobDelay  time.Duration
	// RateLimit is the number of /chat requests per minute and client; 0
	// disables limiting.
	RateLimit int
	RateBurst int
}

// DefaultConfig mirrors the production backend.
func DefaultConfig() Config {
	return Config{
		DeferJobs: true,
		JobDelay:  3 * time.Second,
		RateLimit: 10,
		RateBurst: 10,
	}
}

// Server serves the mock API.
type Server struct {
	router  chi.Router
	cfg     Config
	catalog *Catalog
	jobs    *JobQueue
	store   *FeedbackStore
	limiter *ipLimiter
	logger  *logging.Logger
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(c *Catalog) ServerOption {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithFeedbackStore enables POST /feedback.
func WithFeedbackStore(st *FeedbackStore) ServerOption {
	return func(s *Server) {
		s.store = st
	}
}

// NewServer creates a mock server.
func NewServer(cfg Config, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		catalog: DefaultCatalog(),
		jobs:    NewJobQueue(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RateLimit > 0 {
		s.limiter = newIPLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Jobs exposes the job queue.
func (s *Server) Jobs() *JobQueue {
	return s.jobs
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.loggingMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Post("/chat", s.handleChat)
	})
	r.Get("/get_result/{jobID}", s.handleResult)
	r.Post("/feedback", s.handleFeedback)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondDetail sends an error body shaped like the production backend's.
func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "env": "mock"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req protocol.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	question := stripDirective(req.Question)
	if question == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "question is required")
		return
	}

	if resp, ok := s.reply(question, req); ok {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	region, _ := s.catalog.RegionIn(question)
	result := s.search(question, region)
	if !s.cfg.DeferJobs {
		respondJSON(w, http.StatusOK, chatResponse(result))
		return
	}
	id := s.jobs.Enqueue(result, s.cfg.JobDelay)
	s.logger.WithJob(id).Info("job queued", "question", s.logger.Sanitize(question))
	respondJSON(w, http.StatusOK, protocol.ChatResponse{Message: "요청 접수 완료.", JobID: id})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.jobs.Result(chi.URLParam(r, "jobID")))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondDetail(w, http.StatusServiceUnavailable, "feedback store unavailable")
		return
	}
	var req protocol.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	req.Question = truncateRunes(req.Question, feedbackFieldLimit)
	req.Answer = truncateRunes(req.Answer, feedbackFieldLimit)
	req.Comment = truncateRunes(req.Comment, feedbackFieldLimit)
	req.ChatHistory = truncateRunes(req.ChatHistory, feedbackFieldLimit)

	if _, err := s.store.Save(r.Context(), req); err != nil {
		var de *core.DomainError
		if errors.As(err, &de) && de.Category == core.ErrCatValidation {
			respondDetail(w, http.StatusUnprocessableEntity, de.Message)
			return
		}
		s.logger.Error("saving feedback failed", "error", err)
		respondDetail(w, http.StatusInternalServerError, "저장 실패")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

const feedbackFieldLimit = 2000

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// stripDirective removes the answer-language instruction clients append to
// questions.
func stripDirective(q string) string {
	if i := strings.Index(q, "(System:"); i >= 0 {
		q = q[:i]
	}
	return strings.TrimSpace(q)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting mock backend", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
