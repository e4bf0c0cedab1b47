package loader

import (
	"linkbrief/internal/domain"
	"strings"
)

// youTubeDomain is the substring that routes a URL to the transcript extractor.
const youTubeDomain = "youtube.com"

// Source is a URL paired with the extractor that serves it.
type Source struct {
	Kind domain.SourceKind
	URL  string
}

// SelectSource resolves the extractor for rawURL once, by substring match.
func SelectSource(rawURL string) Source {
	kind := domain.SourceWebpage
	if strings.Contains(rawURL, youTubeDomain) {
		kind = domain.SourceYouTube
	}

	return Source{Kind: kind, URL: rawURL}
}
