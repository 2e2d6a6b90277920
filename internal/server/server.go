// Package server exposes a loaded corpus over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pable/playcall/internal/analysis"
	"github.com/pable/playcall/internal/cache"
	"github.com/pable/playcall/internal/model"
)

// Options configures a Server.
type Options struct {
	Strategy    string            // default candidate source for requests that omit one
	CorsOrigins []string          // empty allows any origin
	Cache       cache.ResultCache // nil disables caching
	Timeout     time.Duration     // per-request timeout, 0 for 30s
}

// Server answers analysis requests against one frozen corpus.
type Server struct {
	corpus   *analysis.Corpus
	cache    cache.ResultCache
	strategy string
	router   chi.Router
}

// AnalyzeRequest is a situation plus an optional candidate source.
type AnalyzeRequest struct {
	model.Situation
	Strategy string `json:"strategy,omitempty"`
}

// AnalyzeResponse wraps a result with request bookkeeping.
type AnalyzeResponse struct {
	AnalysisID string               `json:"analysisId"`
	Corpus     string               `json:"corpus"`
	Cached     bool                 `json:"cached"`
	Result     model.AnalysisResult `json:"result"`
}

// IndexStatsResponse describes the corpus index.
type IndexStatsResponse struct {
	Corpus       string  `json:"corpus"`
	Plays        int     `json:"plays"`
	Entries      int     `json:"entries"`
	Capacity     int     `json:"capacity"`
	Modulus      int     `json:"modulus"`
	LoadFactor   float64 `json:"loadFactor"`
	UsedBuckets  int     `json:"usedBuckets"`
	LongestChain int     `json:"longestChain"`
	Rehashes     int     `json:"rehashes"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// New builds the router.
func New(corpus *analysis.Corpus, opts Options) *Server {
	s := &Server{
		corpus:   corpus,
		cache:    opts.Cache,
		strategy: opts.Strategy,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.strategy == "" {
		s.strategy = analysis.StrategyFilter
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := opts.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.analyze)
		r.Get("/index/stats", s.indexStats)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "corpus": s.corpus.Name()}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"corpus":    s.corpus.Name(),
		"plays":     s.corpus.Len(),
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req.Situation.Normalize()
	if err := req.Situation.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.strategy
	}
	src, err := s.corpus.Source(strategy)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx := r.Context()
	id := uuid.New().String()
	log := logrus.WithFields(logrus.Fields{"analysisId": id, "strategy": strategy})

	key := cache.Key(s.corpus.Name(), strategy, req.Situation)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.WithError(err).Warn("cache get failed")
	} else if ok {
		respondJSON(w, http.StatusOK, AnalyzeResponse{AnalysisID: id, Corpus: s.corpus.Name(), Cached: true, Result: *cached})
		return
	}

	res, err := analysis.Analyze(ctx, req.Situation, src)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "analysis aborted", err)
		return
	}
	if err := s.cache.Set(ctx, key, res); err != nil {
		log.WithError(err).Warn("cache set failed")
	}

	log.WithFields(logrus.Fields{"candidates": res.TotalSimilarPlays, "tier": res.Tier}).Info("analysis served")
	respondJSON(w, http.StatusOK, AnalyzeResponse{AnalysisID: id, Corpus: s.corpus.Name(), Result: res})
}

func (s *Server) indexStats(w http.ResponseWriter, r *http.Request) {
	st := s.corpus.Index().Stats()
	respondJSON(w, http.StatusOK, IndexStatsResponse{
		Corpus:       s.corpus.Name(),
		Plays:        s.corpus.Len(),
		Entries:      st.Entries,
		Capacity:     st.Capacity,
		Modulus:      st.Modulus,
		LoadFactor:   st.LoadFactor,
		UsedBuckets:  st.UsedBuckets,
		LongestChain: st.LongestChain,
		Rehashes:     st.Rehashes,
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"requestId": chimiddleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start),
		}).Debug("request")
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logrus.WithError(err).Warn(message)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
