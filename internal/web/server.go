package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"linkbrief/internal/domain"
	"linkbrief/internal/pipeline"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	maxFormBytes      = 64 << 10
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Summarizer runs the full URL-to-summary flow.
type Summarizer interface {
	Summarize(ctx context.Context, rawURL string) (*domain.Result, error)
}

type Server struct {
	addr       string
	summarizer Summarizer
	gatherer   prometheus.Gatherer
	page       *template.Template
	log        *slog.Logger
}

// pageData holds at most one of ValidationError, Exception and Result.
type pageData struct {
	URL             string
	ValidationError string
	Exception       string
	Result          *domain.Result
}

func New(addr string, s Summarizer, gatherer prometheus.Gatherer, log *slog.Logger) (*Server, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		addr:       addr,
		summarizer: s,
		gatherer:   gatherer,
		page:       page,
		log:        log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleSummarize)
	mux.HandleFunc("GET /healthz", handleHealthz)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.InfoContext(ctx, "Web server is started",
		"addr", s.addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.log.InfoContext(ctx, "Web server is stopped",
		"addr", s.addr)

	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, pageData{Exception: "Exception: " + err.Error()})
		return
	}

	rawURL := r.PostForm.Get("url")
	data := pageData{URL: rawURL}

	result, err := s.summarizer.Summarize(r.Context(), rawURL)
	if err != nil {
		msg, validation := pipeline.ErrorMessage(err)
		if validation {
			data.ValidationError = msg
		} else {
			data.Exception = msg
		}

		s.render(w, r, http.StatusOK, data)
		return
	}

	data.Result = result
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := s.page.Execute(w, data); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to render page",
			"error", err,
			"path", r.URL.Path)
	}
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
