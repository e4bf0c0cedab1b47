package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"linkbrief/internal/domain"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"
)

const (
	webpageUserAgent = "Mozilla/5.0"
	webpageMaxBytes  = 10 << 20
)

//nolint:gochecknoglobals // Immutable selector list.
var noiseSelectors = strings.Join([]string{
	"script", "style", "noscript", "iframe", "svg", "template",
	"header", "footer", "nav", "aside", "form",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
}, ", ")

// WebpageLoader fetches a generic page and strips its markup.
type WebpageLoader struct {
	client     *http.Client
	feedParser *gofeed.Parser
	log        *slog.Logger
}

func NewWebpageLoader(client *http.Client, log *slog.Logger) *WebpageLoader {
	return &WebpageLoader{
		client:     client,
		feedParser: gofeed.NewParser(),
		log:        log,
	}
}

// Load returns no documents when the page has no text.
func (l *WebpageLoader) Load(ctx context.Context, rawURL string) ([]domain.Document, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	resp, err := get(ctx, l.client, rawURL, map[string]string{
		"User-Agent": webpageUserAgent,
		"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}, webpageMaxBytes, l.log)
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}

	mediaType := mediaTypeOf(resp.contentType)

	// Feeds are parsed from the raw bytes: gofeed honours the XML encoding declaration itself.
	if isFeed(mediaType, resp.body) {
		docs, err := l.feedDocuments(rawURL, resp.body)
		if err != nil {
			return nil, err
		}

		l.logLoaded(ctx, rawURL, resp, docs)

		return docs, nil
	}

	body, err := decodeBody(resp.body, resp.contentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	var docs []domain.Document
	if isHTML(mediaType, body) {
		docs = l.htmlDocuments(ctx, pageURL, body)
	} else {
		docs = textDocuments(rawURL, string(body))
	}

	l.logLoaded(ctx, rawURL, resp, docs)

	return docs, nil
}

func (l *WebpageLoader) logLoaded(ctx context.Context, rawURL string, resp *response, docs []domain.Document) {
	l.log.DebugContext(ctx, "Page is loaded",
		"url", rawURL,
		"contentType", resp.contentType,
		"bodyLen", len(resp.body),
		"documentCount", len(docs))
}

func decodeBody(raw []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, fmt.Errorf("create charset reader: %w", err)
	}

	return io.ReadAll(r)
}

func mediaTypeOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mediaType
}

func isHTML(mediaType string, body []byte) bool {
	if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
		return true
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		return strings.HasPrefix(http.DetectContentType(body), "text/html")
	}
	return false
}

func (l *WebpageLoader) htmlDocuments(ctx context.Context, pageURL *url.URL, body []byte) []domain.Document {
	metadata := map[string]string{domain.MetaSource: pageURL.String()}

	text, err := readableText(pageURL, body, metadata)
	if err != nil || text == "" {
		l.log.DebugContext(ctx, "Readability extraction failed so markup stripping will be used",
			"error", err,
			"url", pageURL.String())

		text, err = strippedText(body, metadata)
		if err != nil {
			l.log.WarnContext(ctx, "Failed to strip markup",
				"error", err,
				"url", pageURL.String())

			return nil
		}
	}

	if text == "" {
		return nil
	}

	return []domain.Document{{Text: text, Metadata: metadata}}
}

func readableText(pageURL *url.URL, body []byte, metadata map[string]string) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("parse article: %w", err)
	}

	text, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil || strings.TrimSpace(text) == "" {
		text = article.TextContent
	}

	text = normalizeText(text)
	if text == "" {
		return "", nil
	}

	setIfPresent(metadata, domain.MetaTitle, article.Title)
	setIfPresent(metadata, domain.MetaSiteName, article.SiteName)
	setIfPresent(metadata, domain.MetaByline, article.Byline)

	return text, nil
}

func strippedText(body []byte, metadata map[string]string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create document from reader: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && title == "" {
		title = content
	}
	setIfPresent(metadata, domain.MetaTitle, title)

	doc.Find(noiseSelectors).Remove()
	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})

	root := doc.Find("article, main").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var sb strings.Builder
	root.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		fragment := strings.TrimSpace(s.Text())
		if fragment == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fragment)
	})

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		text = root.Text()
	}

	return normalizeText(text), nil
}

func textDocuments(rawURL string, body string) []domain.Document {
	text := normalizeText(body)
	if text == "" {
		return nil
	}

	return []domain.Document{{
		Text:     text,
		Metadata: map[string]string{domain.MetaSource: rawURL},
	}}
}

// normalizeText collapses blank-line runs and inner whitespace, keeping paragraphs.
func normalizeText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var sb strings.Builder
	blank := false

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = sb.Len() > 0
			continue
		}
		if sb.Len() > 0 {
			if blank {
				sb.WriteString("\n\n")
			} else {
				sb.WriteByte('\n')
			}
		}
		sb.WriteString(line)
		blank = false
	}

	return sb.String()
}
