package loader_test

import (
	"context"
	"errors"
	"linkbrief/internal/domain"
	"linkbrief/internal/loader"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSource(t *testing.T) {
	tests := []struct {
		url  string
		want domain.SourceKind
	}{
		{url: "https://www.youtube.com/watch?v=abc123", want: domain.SourceYouTube},
		{url: "https://youtube.com/shorts/abc123", want: domain.SourceYouTube},
		{url: "https://m.youtube.com/watch?v=abc123", want: domain.SourceYouTube},
		{url: "https://example.com/article", want: domain.SourceWebpage},
		{url: "https://youtu.be/abc123", want: domain.SourceWebpage},
		{url: "https://blog.example.org/posts/youtube", want: domain.SourceWebpage},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			src := loader.SelectSource(tt.url)
			assert.Equal(t, tt.want, src.Kind)
			assert.Equal(t, tt.url, src.URL)
		})
	}
}

type recordingLoader struct {
	urls []string
	docs []domain.Document
	err  error
}

func (l *recordingLoader) Load(_ context.Context, rawURL string) ([]domain.Document, error) {
	l.urls = append(l.urls, rawURL)
	return l.docs, l.err
}

func TestRouterDispatchesByKind(t *testing.T) {
	yt := &recordingLoader{docs: []domain.Document{{Text: "transcript"}}}
	web := &recordingLoader{docs: []domain.Document{{Text: "page"}}}
	router := loader.NewRouter(yt, web, slog.Default())

	docs, err := router.Load(context.Background(), loader.SelectSource("https://www.youtube.com/watch?v=abc123"))
	require.NoError(t, err)
	assert.Equal(t, "transcript", docs[0].Text)

	docs, err = router.Load(context.Background(), loader.SelectSource("https://example.com/article"))
	require.NoError(t, err)
	assert.Equal(t, "page", docs[0].Text)

	assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc123"}, yt.urls)
	assert.Equal(t, []string{"https://example.com/article"}, web.urls)
}

func TestRouterWrapsFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	web := &recordingLoader{err: cause}
	router := loader.NewRouter(&recordingLoader{}, web, slog.Default())

	_, err := router.Load(context.Background(), loader.SelectSource("https://example.com/article"))
	require.ErrorIs(t, err, domain.ErrFetch)
	require.ErrorIs(t, err, cause)
}

func TestRouterMissingLoader(t *testing.T) {
	router := loader.NewRouter(nil, nil, slog.Default())

	_, err := router.Load(context.Background(), loader.SelectSource("https://example.com/article"))
	require.ErrorIs(t, err, domain.ErrFetch)
}
