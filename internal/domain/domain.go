package domain

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by the pipeline wraps exactly one of them.
var (
	ErrValidation = errors.New("validation error")
	ErrFetch      = errors.New("fetch error")
	ErrLLM        = errors.New("llm error")
)

// Metadata keys shared by loaders.
const (
	MetaSource        = "source"
	MetaTitle         = "title"
	MetaAuthor        = "author"
	MetaDescription   = "description"
	MetaViewCount     = "view_count"
	MetaLengthSeconds = "length_seconds"
	MetaPublishDate   = "publish_date"
	MetaThumbnailURL  = "thumbnail_url"
	MetaLanguage      = "language"
	MetaSiteName      = "site_name"
	MetaByline        = "byline"
	MetaFeedTitle     = "feed_title"
	MetaLink          = "link"
	MetaPublished     = "published"
)

// SourceKind tells which extractor serves a URL.
type SourceKind int

const (
	SourceWebpage SourceKind = iota
	SourceYouTube
)

func (k SourceKind) String() string {
	switch k {
	case SourceYouTube:
		return "youtube"
	case SourceWebpage:
		return "webpage"
	default:
		return "unknown"
	}
}

type Document struct {
	Text     string
	Metadata map[string]string
}

// Title returns the document title or an empty string.
func (d Document) Title() string {
	return strings.TrimSpace(d.Metadata[MetaTitle])
}

type Result struct {
	URL       string
	Source    SourceKind
	Title     string
	Documents int
	Summary   string
}
