package pipeline

import (
	"context"
	"errors"
	"fmt"
	"linkbrief/internal/domain"
	"linkbrief/internal/loader"
	"linkbrief/internal/metrics"
	"linkbrief/internal/summarizer"
	"linkbrief/internal/validate"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ContentLoader loads the documents behind a selected source.
type ContentLoader interface {
	Load(ctx context.Context, src loader.Source) ([]domain.Document, error)
}

// Pipeline validates a URL, loads its content and summarizes it, in that order.
type Pipeline struct {
	loader     ContentLoader
	summarizer summarizer.Summarizer
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func New(
	l ContentLoader,
	s summarizer.Summarizer,
	m *metrics.Metrics,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		loader:     l,
		summarizer: s,
		metrics:    m,
		log:        log,
	}
}

// Summarize runs the whole flow for one user action. Every error wraps
// exactly one of domain.ErrValidation, domain.ErrFetch or domain.ErrLLM.
func (p *Pipeline) Summarize(ctx context.Context, rawURL string) (*domain.Result, error) {
	start := time.Now()
	log := p.log.With("requestID", uuid.NewString())

	validURL, err := validate.URL(rawURL)
	if err != nil {
		log.InfoContext(ctx, "URL is rejected",
			"error", err,
			"inputLen", len(rawURL))
		p.metrics.Observe(metrics.SourceNone, metrics.OutcomeValidationError, time.Since(start))

		return nil, err
	}

	src := loader.SelectSource(validURL)
	source := src.Kind.String()

	log.InfoContext(ctx, "Summarize request is started",
		"url", validURL,
		"source", source)

	docs, err := p.loader.Load(ctx, src)
	if err != nil {
		err = withKind(domain.ErrFetch, err)
		log.ErrorContext(ctx, "Failed to load content",
			"error", err,
			"url", validURL,
			"source", source)
		p.metrics.Observe(source, metrics.OutcomeFetchError, time.Since(start))

		return nil, err
	}

	summary, err := p.summarizer.Summarize(ctx, docs)
	if err != nil {
		err = withKind(domain.ErrLLM, err)
		log.ErrorContext(ctx, "Failed to summarize content",
			"error", err,
			"url", validURL,
			"source", source,
			"documentCount", len(docs))
		p.metrics.Observe(source, metrics.OutcomeLLMError, time.Since(start))

		return nil, err
	}

	elapsed := time.Since(start)
	p.metrics.Observe(source, metrics.OutcomeSuccess, elapsed)

	log.InfoContext(ctx, "Summary is generated",
		"url", validURL,
		"source", source,
		"documentCount", len(docs),
		"summaryLen", len(summary),
		"elapsedSeconds", elapsed.Seconds())

	return &domain.Result{
		URL:       validURL,
		Source:    src.Kind,
		Title:     firstTitle(docs),
		Documents: len(docs),
		Summary:   summary,
	}, nil
}

// ErrorMessage returns the text shown to the user for err and whether it is
// a validation error. Any other failure is reported as a single exception line.
func ErrorMessage(err error) (string, bool) {
	if errors.Is(err, domain.ErrValidation) {
		return validate.Message(err), true
	}

	return "Exception: " + err.Error(), false
}

func withKind(kind error, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func firstTitle(docs []domain.Document) string {
	for _, doc := range docs {
		if title := doc.Title(); title != "" {
			return title
		}
	}
	return ""
}
