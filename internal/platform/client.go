// Package platform is the thin client for the hosted backend this service
// delegates auth, persistence and nothing else to. It speaks the platform's
// two REST surfaces: the identity API (auth.go) and the row-filtering table
// API (table.go). Every other component reaches the platform through the
// Client handle constructed here.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps the hosted project's URL and API keys. All repositories
// share one Client the way they shared one *sql.DB before persistence was
// delegated; the embedded http.Client pools connections across requests.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
}

// NewClient returns a handle on the hosted project. serviceKey may be empty;
// table operations then run with the anon key only.
func NewClient(baseURL, anonKey, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

// dataKey returns the key used for table operations: the service key when
// configured (bypasses the platform's own row security, since this API layer
// enforces authorization itself), otherwise the anon key.
func (c *Client) dataKey() string {
	if c.serviceKey != "" {
		return c.serviceKey
	}
	return c.anonKey
}

// do issues one request against the platform. bearer is the Authorization
// token (an API key or an end-user access token); body is JSON-encoded when
// non-nil. Non-2xx responses are decoded into *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("platform: encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("platform: build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Mutations should echo the affected rows back.
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Code: "UPSTREAM_UNREACHABLE", Message: err.Error(), Status: http.StatusInternalServerError}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Code: "UPSTREAM_READ", Message: err.Error(), Status: http.StatusInternalServerError}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}
