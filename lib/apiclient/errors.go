// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the nbreport service.
type APIError struct {
	Method     string
	URL        string
	StatusCode int

	// Body is the response body, trimmed. May be empty.
	Body string
}

func (err *APIError) Error() string {
	message := fmt.Sprintf("apiclient: %s %s: HTTP %d", err.Method, err.URL, err.StatusCode)
	if err.Body != "" {
		message += ": " + err.Body
	}
	return message
}

// IsUnauthorized reports whether err is a 401 or 403 response, which
// means the stored GitHub credentials were rejected.
func IsUnauthorized(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) &&
		(apiError.StatusCode == http.StatusUnauthorized || apiError.StatusCode == http.StatusForbidden)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}
