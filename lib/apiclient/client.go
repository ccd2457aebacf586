// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package apiclient is a client for the nbreport publication service
// (api.lsst.codes/nbreport). The service registers report repositories
// as documentation products, reserves instance identifiers, and accepts
// computed notebooks for publication.
//
// Every request authenticates with HTTP basic auth using a GitHub
// username and personal access token (see lib/github for issuing one).
// Any non-2xx response is returned as an *APIError. The client never
// retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bureau-foundation/nbreport/lib/netutil"
)

// DefaultBaseURL is the production nbreport service.
const DefaultBaseURL = "https://api.lsst.codes"

// NotebookContentType is the media type of uploaded notebooks.
const NotebookContentType = "application/x-ipynb+json"

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the service root. Defaults to DefaultBaseURL.
	BaseURL string

	// Username and Token are the GitHub credentials sent as basic
	// auth.
	Username string
	Token    string

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client calls the nbreport service.
type Client struct {
	baseURL    string
	username   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client. Returns an error when credentials are
// missing or the base URL does not parse.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid server URL %q", config.BaseURL)
	}
	if config.Username == "" || config.Token == "" {
		return nil, fmt.Errorf("apiclient: GitHub username and token are required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		username:   config.Username,
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the service root the client sends requests to.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// do sends an authenticated request and returns the response body.
// contentType is set only when body is non-nil.
func (client *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	requestURL := client.baseURL + path
	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: creating request: %w", err)
	}
	request.SetBasicAuth(client.username, client.token)
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", contentType)
	}

	client.logger.Debug("nbreport service request", "method", method, "url", requestURL)
	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, requestURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			URL:        requestURL,
			StatusCode: response.StatusCode,
			Body:       strings.TrimSpace(netutil.ErrorBody(response.Body)),
		}
	}
	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: reading response from %s: %w", requestURL, err)
	}
	return data, nil
}

// postJSON sends a POST with an optional JSON body and decodes the
// JSON response into result.
func (client *Client) postJSON(ctx context.Context, path string, requestBody any, result any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("apiclient: encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	data, err := client.do(ctx, http.MethodPost, path, body, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("apiclient: decoding response from %s: %w", path, err)
	}
	return nil
}
