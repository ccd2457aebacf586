// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bureau-foundation/nbreport/lib/netutil"
)

// githubAPIVersion is the GitHub REST API version header.
const githubAPIVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// otpHeader carries the two-factor challenge on responses and the
// one-time password on requests.
const otpHeader = "X-GitHub-OTP"

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS.
	BaseURL string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client calls the GitHub REST API with per-request basic auth.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a GitHub API client. Returns an error for a
// non-HTTPS base URL, since requests carry the user's password.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
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
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// credentials authenticates a single request.
type credentials struct {
	username        string
	password        string
	oneTimePassword string
}

// post sends a JSON POST with basic auth and decodes the JSON response
// into result. A 401 carrying a two-factor challenge is returned as a
// *TwoFactorRequiredError and any other non-2xx response as an
// *APIError.
func (client *Client) post(ctx context.Context, path string, auth credentials, requestBody, result any) error {
	encoded, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("github: encoding request body: %w", err)
	}

	url := client.baseURL + path
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("github: creating request: %w", err)
	}
	request.SetBasicAuth(auth.username, auth.password)
	if auth.oneTimePassword != "" {
		request.Header.Set(otpHeader, auth.oneTimePassword)
	}
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("github: POST %s: %w", url, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("github: reading response body: %w", err)
	}

	if response.StatusCode == http.StatusUnauthorized {
		if method, required := twoFactorChallenge(response.Header.Get(otpHeader)); required {
			client.logger.Debug("github requires a one-time password", "method", method)
			return &TwoFactorRequiredError{Method: method}
		}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIErrorFromBody(response.StatusCode, body)
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

// twoFactorChallenge parses an X-GitHub-OTP response header of the form
// "required; <method>".
func twoFactorChallenge(header string) (method string, required bool) {
	status, method, _ := strings.Cut(header, ";")
	if strings.TrimSpace(status) != "required" {
		return "", false
	}
	return strings.TrimSpace(method), true
}

// parseAPIErrorFromBody builds an APIError from a non-2xx response
// body. GitHub's JSON error format carries a message and documentation
// URL; anything else is kept verbatim as the message.
func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
	} else {
		apiError.Message = strings.TrimSpace(string(body))
	}

	return apiError
}
