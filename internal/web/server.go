// Package web exposes enrichment runs as HTTP jobs with live progress
// pushed over WebSocket.
package web

import (
	"context"
	"net/http"

	"trackdex/internal/enrich"
	"trackdex/internal/logger"
)

// EnrichFunc runs one enrichment batch over an artist's tracks,
// reporting progress through onProgress.
type EnrichFunc func(ctx context.Context, artist string, onProgress enrich.ProgressFunc) (*enrich.BatchStats, error)

type Server struct {
	ctx    context.Context
	jobMgr *JobManager
	enrich EnrichFunc
	logger *logger.Logger
}

func NewServer(ctx context.Context, jobMgr *JobManager, enrichFn EnrichFunc, log *logger.Logger) *Server {
	return &Server{
		ctx:    ctx,
		jobMgr: jobMgr,
		enrich: enrichFn,
		logger: log,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/enrich", s.handleEnrich)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
