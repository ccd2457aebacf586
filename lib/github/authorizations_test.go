// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newTestClient creates a Client backed by the given httptest.Server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_HTTPSEnforcement(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://api.github.com"})
	if err == nil {
		t.Fatal("expected error for HTTP URL")
	}
	if got := err.Error(); got != `github: API client requires HTTPS (got "http://api.github.com")` {
		t.Errorf("unexpected error: %s", got)
	}
}

func TestCreateAuthorization(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)
		if request.Method != http.MethodPost || request.URL.Path != "/authorizations" {
			t.Errorf("request = %s %s", request.Method, request.URL.Path)
		}
		username, password, ok := request.BasicAuth()
		if !ok || username != "user" || password != "password" {
			t.Errorf("basic auth = %q/%q", username, password)
		}
		if request.Header.Get(otpHeader) != "" {
			t.Errorf("unexpected %s header", otpHeader)
		}

		var body map[string]any
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		want := map[string]any{
			"scopes":   []any{"read:org"},
			"note":     "note for token",
			"note_url": "https://github.com/lsst-sqre/nbreport",
		}
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("request body mismatch (-want +got):\n%s", diff)
		}

		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(map[string]string{"token": "mytoken", "note": "note for token"})
	}))
	defer server.Close()

	authorization, err := newTestClient(t, server).CreateAuthorization(context.Background(), AuthorizationRequest{
		Username: "user",
		Password: "password",
		Note:     "note for token",
		NoteURL:  "https://github.com/lsst-sqre/nbreport",
	})
	if err != nil {
		t.Fatalf("CreateAuthorization: %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	if diff := cmp.Diff(&Authorization{Token: "mytoken", Note: "note for token"}, authorization); diff != "" {
		t.Errorf("authorization mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateAuthorization_TwoFactorRequired(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set(otpHeader, "required; app")
		writer.WriteHeader(http.StatusUnauthorized)
		writer.Write([]byte(`{"message": "Must specify two-factor authentication OTP code."}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).CreateAuthorization(context.Background(), AuthorizationRequest{
		Username: "user",
		Password: "password",
		Note:     "note",
	})
	var twoFactor *TwoFactorRequiredError
	if !errors.As(err, &twoFactor) {
		t.Fatalf("expected TwoFactorRequiredError, got %v", err)
	}
	if twoFactor.Method != "app" {
		t.Errorf("Method = %q, want app", twoFactor.Method)
	}
	if IsUnauthorized(err) {
		t.Error("a two-factor challenge is not a plain 401")
	}
}

func TestCreateAuthorization_WithOneTimePassword(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get(otpHeader); got != "123456" {
			t.Errorf("%s = %q, want 123456", otpHeader, got)
		}
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(map[string]string{"token": "mytoken", "note": "note for token"})
	}))
	defer server.Close()

	authorization, err := newTestClient(t, server).CreateAuthorization(context.Background(), AuthorizationRequest{
		Username:        "user",
		Password:        "password",
		OneTimePassword: "123456",
		Note:            "note for token",
	})
	if err != nil {
		t.Fatalf("CreateAuthorization: %v", err)
	}
	if authorization.Token != "mytoken" {
		t.Errorf("Token = %q", authorization.Token)
	}
}

func TestCreateAuthorization_BadCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		writer.Write([]byte(`{"message": "Bad credentials", "documentation_url": "https://docs.github.com/rest"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).CreateAuthorization(context.Background(), AuthorizationRequest{
		Username: "user",
		Password: "wrong",
	})
	if !IsUnauthorized(err) {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if err.Error() != "github: HTTP 401: Bad credentials" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestTwoFactorChallenge(t *testing.T) {
	tests := []struct {
		header   string
		method   string
		required bool
	}{
		{"required; app", "app", true},
		{"required; sms", "sms", true},
		{"required", "", true},
		{"", "", false},
		{"optional; app", "", false},
	}
	for _, test := range tests {
		method, required := twoFactorChallenge(test.header)
		if method != test.method || required != test.required {
			t.Errorf("twoFactorChallenge(%q) = %q, %v; want %q, %v",
				test.header, method, required, test.method, test.required)
		}
	}
}

func TestParseAPIErrorFromBody(t *testing.T) {
	structured := parseAPIErrorFromBody(404, []byte(`{"message": "Not Found", "documentation_url": "https://docs.github.com"}`))
	if structured.Message != "Not Found" || structured.DocumentationURL != "https://docs.github.com" {
		t.Errorf("structured = %+v", structured)
	}
	plain := parseAPIErrorFromBody(502, []byte("bad gateway\n"))
	if plain.Message != "bad gateway" {
		t.Errorf("plain message = %q", plain.Message)
	}
}
