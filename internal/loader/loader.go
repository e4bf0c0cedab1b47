package loader

import (
	"context"
	"fmt"
	"linkbrief/internal/domain"
	"log/slog"
)

// Loader turns a validated URL into text documents.
type Loader interface {
	Load(ctx context.Context, rawURL string) ([]domain.Document, error)
}

// Router dispatches a Source to the loader registered for its kind.
type Router struct {
	youtube Loader
	webpage Loader
	log     *slog.Logger
}

func NewRouter(youtube Loader, webpage Loader, log *slog.Logger) *Router {
	return &Router{
		youtube: youtube,
		webpage: webpage,
		log:     log,
	}
}

// Load runs the loader selected for src. Errors wrap domain.ErrFetch.
func (r *Router) Load(ctx context.Context, src Source) ([]domain.Document, error) {
	var l Loader

	switch src.Kind {
	case domain.SourceYouTube:
		l = r.youtube
	case domain.SourceWebpage:
		l = r.webpage
	}

	if l == nil {
		return nil, fmt.Errorf("%w: no loader for source %s", domain.ErrFetch, src.Kind)
	}

	docs, err := l.Load(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", domain.ErrFetch, src.Kind, err)
	}

	r.log.DebugContext(ctx, "Content is loaded",
		"source", src.Kind.String(),
		"url", src.URL,
		"documentCount", len(docs))

	return docs, nil
}
