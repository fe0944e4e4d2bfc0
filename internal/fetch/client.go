// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

// Package fetch is a black-box client for a remote authenticated file
// service. The OAuth flow that produces access tokens is external; the
// client only consumes a TokenSource.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// DefaultTimeout bounds a single fetch round trip.
const DefaultTimeout = 30 * time.Second

// maxFileBytes caps downloads at 64 MB.
const maxFileBytes = 64 << 20

// TokenSource supplies bearer credentials for the remote service.
type TokenSource interface {
	// AccessToken returns a currently valid bearer token.
	AccessToken(ctx context.Context) (string, error)
}

// Fetcher retrieves remote files by name or ID.
type Fetcher interface {
	// Fetch returns the raw bytes of the file identified by nameOrID.
	// Names are resolved to IDs first; IDs are fetched directly.
	Fetch(ctx context.Context, nameOrID string) ([]byte, error)
}

// Client implements Fetcher against an HTTP file service with a
// Drive-style API: GET /files?name=<n> to search, GET /files/<id>/content
// to download.
type Client struct {
	baseURL string
	tokens  TokenSource
	httpc   *http.Client
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, tokens TokenSource) (*Client, error) {
	if baseURL == "" {
		return nil, oops.Code("FETCH_INVALID_CONFIG").Errorf("base URL is required")
	}
	if tokens == nil {
		return nil, oops.Code("FETCH_INVALID_CONFIG").Errorf("token source is required")
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpc:   &http.Client{Timeout: DefaultTimeout},
	}, nil
}

// fileRef is one entry in a search response.
type fileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// searchResponse is the service's search result envelope.
type searchResponse struct {
	Files []fileRef `json:"files"`
}

// Fetch returns the raw bytes of the file identified by nameOrID.
func (c *Client) Fetch(ctx context.Context, nameOrID string) ([]byte, error) {
	if nameOrID == "" {
		return nil, oops.Code("FETCH_INVALID_INPUT").Errorf("file name or ID is required")
	}

	id, err := c.resolveID(ctx, nameOrID)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/files/%s/content", c.baseURL, url.PathEscape(id)))
	if err != nil {
		return nil, oops.Code("FETCH_DOWNLOAD_FAILED").
			With("file_id", id).
			Wrap(err)
	}
	return body, nil
}

// resolveID looks up a file ID by name, returning the first match. Inputs
// that already look like IDs (no match needed) are resolved by the search
// endpoint as well; the service treats exact IDs as their own names.
func (c *Client) resolveID(ctx context.Context, nameOrID string) (string, error) {
	query := url.Values{"name": {nameOrID}}
	body, err := c.get(ctx, fmt.Sprintf("%s/files?%s", c.baseURL, query.Encode()))
	if err != nil {
		return "", oops.Code("FETCH_SEARCH_FAILED").
			With("name", nameOrID).
			Wrap(err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", oops.Code("FETCH_SEARCH_FAILED").
			With("name", nameOrID).
			Wrap(err)
	}
	if len(result.Files) == 0 {
		return "", oops.Code("FETCH_NOT_FOUND").
			With("name", nameOrID).
			Errorf("no file found with name %q", nameOrID)
	}
	return result.Files[0].ID, nil
}

// get performs an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, oops.Code("FETCH_AUTH_FAILED").
			With("operation", "acquire access token").
			Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, oops.Code("FETCH_REQUEST_FAILED").Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, oops.Code("FETCH_REQUEST_FAILED").Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, oops.Code("FETCH_BAD_STATUS").
			With("status", resp.StatusCode).
			Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes))
	if err != nil {
		return nil, oops.Code("FETCH_READ_FAILED").Wrap(err)
	}
	return body, nil
}

// Compile-time interface check.
var _ Fetcher = (*Client)(nil)
