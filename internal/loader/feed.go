package loader

import (
	"bytes"
	"fmt"
	"linkbrief/internal/domain"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

func isFeed(mediaType string, body []byte) bool {
	switch mediaType {
	case "application/rss+xml", "application/atom+xml", "application/feed+json":
		return true
	case "text/html", "application/xhtml+xml":
		return false
	}

	return gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeUnknown
}

// feedDocuments turns every feed item into a document.
func (l *WebpageLoader) feedDocuments(rawURL string, body []byte) ([]domain.Document, error) {
	parsed, err := l.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	feedTitle := strings.TrimSpace(parsed.Title)
	docs := make([]domain.Document, 0, len(parsed.Items))

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		content := item.Content
		if strings.TrimSpace(content) == "" {
			content = item.Description
		}

		title := strings.TrimSpace(item.Title)
		text := normalizeText(stripMarkup(content))
		if title != "" {
			text = strings.TrimSpace(title + "\n\n" + text)
		}
		if text == "" {
			continue
		}

		metadata := map[string]string{domain.MetaSource: rawURL}
		setIfPresent(metadata, domain.MetaFeedTitle, feedTitle)
		setIfPresent(metadata, domain.MetaTitle, title)
		setIfPresent(metadata, domain.MetaLink, item.Link)
		if published := itemTime(item); !published.IsZero() {
			metadata[domain.MetaPublished] = published.UTC().Format(time.RFC3339)
		}

		docs = append(docs, domain.Document{Text: text, Metadata: metadata})
	}

	return docs, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func stripMarkup(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("script, style").Remove()
	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})
	doc.Find("p, li, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})

	return doc.Text()
}
