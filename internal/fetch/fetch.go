// Package fetch downloads HLS manifests from the streaming endpoint.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the streaming endpoint manifests are served from.
const DefaultBaseURL = "https://play.redbull.com/main/v1/rbcom/en/en/personal_computer/http/"

const maxManifestSize = 8 << 20

// FetchError reports a manifest that could not be retrieved.
type FetchError struct {
	URL string
	// StatusCode is set when the server answered with a non-2xx status
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch manifest %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch manifest %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches manifests by movie ID.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given endpoint. A zero timeout means 30 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ManifestURL returns the manifest location for a movie ID: the base
// endpoint joined with "{ID}.m3u8".
func (c *Client) ManifestURL(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("movie ID is required")
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	// The "./" prefix keeps IDs such as "rrn:content:..." from parsing as a scheme
	rel, err := url.Parse("./" + url.PathEscape(id+".m3u8"))
	if err != nil {
		return "", fmt.Errorf("invalid movie ID %q: %w", id, err)
	}

	return base.ResolveReference(rel).String(), nil
}

// Fetch retrieves the manifest text for a movie ID. It returns the text and
// the URL it was fetched from, which relative manifest URIs resolve against.
func (c *Client) Fetch(ctx context.Context, id string) (string, string, error) {
	manifestURL, err := c.ManifestURL(id)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return "", "", &FetchError{URL: manifestURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", &FetchError{URL: manifestURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &FetchError{URL: manifestURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return "", "", &FetchError{URL: manifestURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	// Redirects move the base that relative URIs resolve against
	finalURL := manifestURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return string(body), finalURL, nil
}
