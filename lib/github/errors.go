// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"errors"
	"fmt"
)

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// TwoFactorRequiredError means GitHub accepted the password but needs a
// one-time password before issuing a token. Retry the request with the
// code the user reads from their authenticator app or SMS.
type TwoFactorRequiredError struct {
	// Method is GitHub's delivery method for the code, for example
	// "app" or "sms". May be empty.
	Method string
}

func (err *TwoFactorRequiredError) Error() string {
	if err.Method == "" {
		return "github: two-factor authentication code required"
	}
	return fmt.Sprintf("github: two-factor authentication code required (%s)", err.Method)
}

// IsTwoFactorRequired reports whether err is a two-factor challenge.
func IsTwoFactorRequired(err error) bool {
	var twoFactor *TwoFactorRequiredError
	return errors.As(err, &twoFactor)
}

// IsUnauthorized reports whether err is a 401 response that is not a
// two-factor challenge, which means the username or password is wrong.
func IsUnauthorized(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 401
}
