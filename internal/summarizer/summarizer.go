package summarizer

import (
	"context"
	"linkbrief/internal/domain"
)

// Summarizer produces a single summary for a sequence of documents.
type Summarizer interface {
	Summarize(ctx context.Context, docs []domain.Document) (string, error)
}
