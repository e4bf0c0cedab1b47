package loader

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// NewWebpageClient returns the client used for generic pages.
// It does not verify TLS certificates.
func NewWebpageClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // Standard library default.
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // Generic pages are fetched without verification.
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NewYouTubeClient returns the client used for watch pages and captions.
func NewYouTubeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type response struct {
	body        []byte
	contentType string
}

func get(
	ctx context.Context,
	client *http.Client,
	rawURL string,
	headers map[string]string,
	maxBytes int64,
	log *slog.Logger,
) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req) //nolint:gosec // User-supplied URL.
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", rawURL)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &response{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}
