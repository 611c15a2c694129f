package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jalade/pdf-insight/internal/core"
	"github.com/jalade/pdf-insight/internal/embeddings"
	"github.com/jalade/pdf-insight/internal/export"
	"github.com/jalade/pdf-insight/internal/repository"
)

// Searcher is the optional semantic-search capability. It is nil when the
// embeddings collaborator is disabled.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]embeddings.SearchResult, error)
}

// Server exposes the catalog, the batch processor, and the exporter over HTTP.
type Server struct {
	logger   *slog.Logger
	catalog  repository.DocumentCatalog
	refs     repository.ReferenceCatalog
	proc     *core.Processor
	exporter *export.Service
	searcher Searcher
	schema   map[string]any
	httpSrv  *http.Server
}

// New builds the server. refs may be nil when the flat backend is active; the
// detail endpoint then omits derived references. searcher may be nil.
func New(
	addr string,
	logger *slog.Logger,
	catalog repository.DocumentCatalog,
	refs repository.ReferenceCatalog,
	proc *core.Processor,
	exporter *export.Service,
	searcher Searcher,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:   logger,
		catalog:  catalog,
		refs:     refs,
		proc:     proc,
		exporter: exporter,
		searcher: searcher,
		schema:   BuildDocumentJSONSchema(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/pdfs", s.handleList)
	mux.HandleFunc("GET /api/pdfs/{filename}", s.handleDetail)
	mux.HandleFunc("POST /api/pdfs/{filename}", s.handleUpsert)
	mux.HandleFunc("DELETE /api/pdfs/{filename}", s.handleDelete)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/export", s.handleExport)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.withLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the configured handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
