package loader_test

import (
	"context"
	"linkbrief/internal/domain"
	"linkbrief/internal/loader"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleParagraph = "Goroutines are lightweight threads managed by the Go runtime. " +
	"Channels let goroutines communicate without sharing memory, and the select statement " +
	"waits on several channel operations at once. "

func articlePage() string {
	return `<!DOCTYPE html><html><head><title>Go Concurrency Patterns</title></head><body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<article><h1>Go Concurrency Patterns</h1>
<p>` + strings.Repeat(articleParagraph, 4) + `</p>
<p>` + strings.Repeat(articleParagraph, 4) + `</p>
</article>
<footer>Copyright notice</footer>
<script>console.log("tracking")</script>
</body></html>`
}

func newWebpageLoader() *loader.WebpageLoader {
	return loader.NewWebpageLoader(loader.NewWebpageClient(5*time.Second), slog.Default())
}

func TestWebpageLoaderSelfSignedTLSAndUserAgent(t *testing.T) {
	var userAgent string

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage()))
	}))
	t.Cleanup(srv.Close)

	docs, err := newWebpageLoader().Load(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Mozilla/5.0", userAgent)
	assert.Contains(t, docs[0].Text, "Goroutines are lightweight threads")
	assert.NotContains(t, docs[0].Text, "tracking")
	assert.Equal(t, srv.URL+"/article", docs[0].Metadata[domain.MetaSource])
	assert.Equal(t, "Go Concurrency Patterns", docs[0].Title())
}

func TestWebpageLoaderUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := newWebpageLoader().Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 403")
}

func TestWebpageLoaderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newWebpageLoader().Load(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestWebpageLoaderPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("first   line\r\n\r\n\r\nsecond line\n"))
	}))
	t.Cleanup(srv.Close)

	docs, err := newWebpageLoader().Load(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "first line\n\nsecond line", docs[0].Text)
}

func TestWebpageLoaderEmptyPageYieldsNoDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title></title></head><body>  <script>x()</script> </body></html>"))
	}))
	t.Cleanup(srv.Close)

	docs, err := newWebpageLoader().Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestWebpageLoaderFeed(t *testing.T) {
	const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Gopher Weekly</title><link>https://example.com</link>
<item><title>Generics land</title><link>https://example.com/generics</link>
<description>&lt;p&gt;Type parameters are here.&lt;/p&gt;</description>
<pubDate>Tue, 15 Feb 2022 10:00:00 GMT</pubDate></item>
<item><title>Fuzzing</title><link>https://example.com/fuzz</link><description>Native fuzzing.</description></item>
</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	t.Cleanup(srv.Close)

	docs, err := newWebpageLoader().Load(context.Background(), srv.URL+"/feed.xml")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Generics land\n\nType parameters are here.", docs[0].Text)
	assert.Equal(t, "Gopher Weekly", docs[0].Metadata[domain.MetaFeedTitle])
	assert.Equal(t, "https://example.com/generics", docs[0].Metadata[domain.MetaLink])
	assert.Equal(t, "2022-02-15T10:00:00Z", docs[0].Metadata[domain.MetaPublished])
	assert.Equal(t, "Fuzzing\n\nNative fuzzing.", docs[1].Text)
	assert.NotContains(t, docs[1].Metadata, domain.MetaPublished)
}

func TestWebpageLoaderDecodesLegacyCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte("caf\xe9 cr\xe8me"))
	}))
	t.Cleanup(srv.Close)

	docs, err := newWebpageLoader().Load(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "café crème", docs[0].Text)
}

func TestWebpageLoaderFeedInLegacyCharset(t *testing.T) {
	const rss = "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<rss version=\"2.0\"><channel><title>Cuisine</title>" +
		"<item><title>Caf\xe9 news</title><description>Cr\xe8me br\xfbl\xe9e</description></item>" +
		"</channel></rss>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	t.Cleanup(srv.Close)

	docs, err := newWebpageLoader().Load(context.Background(), srv.URL+"/feed.xml")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Café news\n\nCrème brûlée", docs[0].Text)
}
