// Package server serves a rendered bibliography over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/drgo/bibparse"
	"github.com/drgo/bibparse/internal/loader"
	"github.com/drgo/bibparse/internal/render"
)

// Config holds configuration for the server.
type Config struct {
	Addr    string
	Sources []string
	Loader  loader.Loader
	Parse   bibparse.Options
	Render  render.Options
	Logger  *slog.Logger
}

// Server loads and parses its sources on every request, so edits to the
// sources show up without a restart.
type Server struct {
	addr    string
	sources []string
	loader  loader.Loader
	parse   bibparse.Options
	html    render.Renderer
	logger  *slog.Logger
	router  chi.Router
}

// New creates a server. It fails only on a bad HTML template.
func New(cfg Config) (*Server, error) {
	html, err := render.NewHTML(cfg.Render)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		addr:    cfg.Addr,
		sources: cfg.Sources,
		loader:  cfg.Loader,
		parse:   cfg.Parse,
		html:    html,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(middleware.Logger, middleware.Recoverer)
	r.Get("/", s.handle(s.html, "text/html; charset=utf-8"))
	r.Get("/entries.json", s.handle(render.JSON{}, "application/json"))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	s.router = r
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) entries(ctx context.Context) (bibparse.Entries, int, error) {
	text, err := loader.LoadAll(ctx, s.loader, s.sources)
	if err != nil {
		return nil, http.StatusBadGateway, err
	}
	es, err := bibparse.Parse(text, s.parse)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	return es, http.StatusOK, nil
}

func (s *Server) handle(r render.Renderer, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		es, status, err := s.entries(req.Context())
		if err != nil {
			s.logger.Error("loading bibliography", "error", err)
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", contentType)
		if err := r.Render(w, es); err != nil {
			s.logger.Error("rendering bibliography", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://%s", ln.Addr()))
	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
