package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"linkbrief/internal/domain"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	youTubeBaseURL   = "https://www.youtube.com"
	youTubeShortHost = "youtu.be"
	youTubeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	playerResponseMarker = "ytInitialPlayerResponse = "
	asrTrackKind         = "asr"

	watchPageMaxBytes = 6 << 20
	timedTextMaxBytes = 2 << 20
)

var (
	videoIDRe  = regexp.MustCompile(`^[\w-]+$`)
	markupRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

// YouTubeLoader fetches the transcript of a video as a single document.
type YouTubeLoader struct {
	client    *http.Client
	baseURL   string
	languages []string
	videoInfo bool
	log       *slog.Logger
}

type YouTubeOption func(*YouTubeLoader)

// WithYouTubeBaseURL points watch page requests at another host.
func WithYouTubeBaseURL(baseURL string) YouTubeOption {
	return func(l *YouTubeLoader) {
		l.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func NewYouTubeLoader(
	client *http.Client,
	languages []string,
	videoInfo bool,
	log *slog.Logger,
	opts ...YouTubeOption,
) *YouTubeLoader {
	l := &YouTubeLoader{
		client:    client,
		baseURL:   youTubeBaseURL,
		languages: languages,
		videoInfo: videoInfo,
		log:       log,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *YouTubeLoader) Load(ctx context.Context, rawURL string) ([]domain.Document, error) {
	videoID, err := VideoID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("extract video ID: %w", err)
	}

	player, err := l.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch player response (videoID = %s): %w", videoID, err)
	}

	track, err := l.pickTrack(player)
	if err != nil {
		return nil, fmt.Errorf("pick caption track (videoID = %s): %w", videoID, err)
	}

	text, err := l.fetchTranscript(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript (videoID = %s): %w", videoID, err)
	}
	if text == "" {
		return nil, fmt.Errorf("transcript is empty (videoID = %s)", videoID)
	}

	metadata := map[string]string{
		domain.MetaSource:   videoID,
		domain.MetaLanguage: track.LanguageCode,
	}
	if l.videoInfo {
		addVideoInfo(metadata, player)
	}

	l.log.DebugContext(ctx, "Transcript is fetched",
		"videoID", videoID,
		"language", track.LanguageCode,
		"trackKind", track.Kind,
		"textLen", len(text))

	return []domain.Document{{Text: text, Metadata: metadata}}, nil
}

// VideoID extracts the video identifier from watch, shorts, embed, live and youtu.be URLs.
func VideoID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	var id string

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case strings.EqualFold(u.Hostname(), youTubeShortHost):
		id = parts[0]
	case u.Query().Has("v"):
		id = u.Query().Get("v")
	case len(parts) >= 2:
		switch parts[0] {
		case "shorts", "embed", "live", "v":
			id = parts[1]
		}
	}

	id = strings.TrimSpace(id)
	if !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("no video ID in %q", rawURL)
	}

	return id, nil
}

func (l *YouTubeLoader) fetchPlayerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	watchURL := l.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	resp, err := get(ctx, l.client, watchURL, map[string]string{
		"User-Agent":      youTubeUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}, watchPageMaxBytes, l.log)
	if err != nil {
		return nil, fmt.Errorf("get watch page: %w", err)
	}

	idx := bytes.Index(resp.body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}

	// Decoder stops after the first complete JSON value.
	var player playerResponse
	dec := json.NewDecoder(bytes.NewReader(resp.body[idx+len(playerResponseMarker):]))
	if err = dec.Decode(&player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}

	return &player, nil
}

func (l *YouTubeLoader) pickTrack(player *playerResponse) (captionTrack, error) {
	if player.Captions == nil {
		if ps := player.PlayabilityStatus; ps != nil && ps.Status != "OK" && ps.Reason != "" {
			return captionTrack{}, fmt.Errorf("captions unavailable: %s", ps.Reason)
		}
		return captionTrack{}, errors.New("no transcript available")
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks

	track, ok := pickBestTrack(tracks, l.languages)
	if !ok {
		if len(tracks) > 0 {
			return captionTrack{}, fmt.Errorf("no usable caption tracks (%d need a browser token)", len(tracks))
		}
		return captionTrack{}, errors.New("no caption tracks")
	}

	return track, nil
}

// poTokenMarker marks caption URLs that only work with a browser-issued token.
const poTokenMarker = "&exp=xpe"

func usableTrack(t captionTrack) bool {
	return !strings.Contains(t.BaseURL, poTokenMarker)
}

// pickBestTrack skips tracks that cannot be fetched server-side, then prefers
// a manual track in a preferred language, then an auto-generated one, then
// any English track, then the first usable track.
func pickBestTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if usableTrack(t) {
			usable = append(usable, t)
		}
	}

	if len(usable) == 0 {
		return captionTrack{}, false
	}

	for _, lang := range languages {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != asrTrackKind {
				return t, true
			}
		}
	}

	for _, lang := range languages {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}

	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}

	return usable[0], true
}

func (l *YouTubeLoader) fetchTranscript(ctx context.Context, trackURL string) (string, error) {
	if strings.HasPrefix(trackURL, "/") {
		trackURL = l.baseURL + trackURL
	}

	resp, err := get(ctx, l.client, trackURL, map[string]string{
		"User-Agent": youTubeUserAgent,
	}, timedTextMaxBytes, l.log)
	if err != nil {
		return "", fmt.Errorf("get timedtext: %w", err)
	}

	return parseTimedText(resp.body)
}

func parseTimedText(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	lines := tt.Lines
	if len(lines) == 0 {
		lines = tt.Body.Paragraphs
	}

	var sb strings.Builder
	for _, line := range lines {
		text := cleanCaption(line.Inner)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// cleanCaption drops inline markup and decodes entities, which YouTube escapes twice.
func cleanCaption(raw string) string {
	text := markupRe.ReplaceAllString(raw, "")
	text = html.UnescapeString(html.UnescapeString(text))
	text = spaceRunRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

func addVideoInfo(metadata map[string]string, player *playerResponse) {
	if d := player.VideoDetails; d != nil {
		setIfPresent(metadata, domain.MetaTitle, d.Title)
		setIfPresent(metadata, domain.MetaAuthor, d.Author)
		setIfPresent(metadata, domain.MetaDescription, d.ShortDescription)
		setIfPresent(metadata, domain.MetaLengthSeconds, d.LengthSeconds)
		setIfPresent(metadata, domain.MetaViewCount, d.ViewCount)

		if thumbs := d.Thumbnail.Thumbnails; len(thumbs) > 0 {
			setIfPresent(metadata, domain.MetaThumbnailURL, thumbs[len(thumbs)-1].URL)
		}
	}

	if mf := player.Microformat; mf != nil {
		setIfPresent(metadata, domain.MetaPublishDate, mf.PlayerMicroformatRenderer.PublishDate)
	}
}

func setIfPresent(metadata map[string]string, key string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		metadata[key] = value
	}
}
