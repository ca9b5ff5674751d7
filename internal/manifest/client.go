// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxManifestBytes is the upper bound on the manifest response size (1 MB).
// Prevents unbounded memory consumption from a misbehaving server.
const maxManifestBytes = 1 << 20

type (
	// Client fetches the package manifest from the distribution server.
	Client struct {
		httpClient *http.Client
		url        string
		userAgent  string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy
// configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// NewClient creates a Client for the manifest at url.
// Defaults: httpClient=http.DefaultClient, userAgent="omoritr-installer/dev".
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		url:        url,
		userAgent:  "omoritr-installer/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves and validates the manifest. Decode and validation
// failures wrap ErrInvalid (or ErrUnsupportedVersion); any other failure
// is transport-level.
func (c *Client) Fetch(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating manifest request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching manifest: unexpected status %d", resp.StatusCode)
	}

	var doc manifestDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrInvalid, err)
	}

	if err := doc.validate(); err != nil {
		return nil, err
	}

	return doc.toManifest(), nil
}
