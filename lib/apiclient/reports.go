// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Registration identifies a report repository to register.
type Registration struct {
	Handle  string `json:"handle"`
	Title   string `json:"title"`
	GitRepo string `json:"git_repo"`
}

// RegisteredReport is the service's record of a registered report.
type RegisteredReport struct {
	// Product is the LSST the Docs product slug, stored in the
	// repository metadata as ltd_product.
	Product string `json:"product"`

	// PublishedURL is where the report's instances are published.
	PublishedURL string `json:"published_url"`

	// ProductURL is the LSST the Docs API resource for the product,
	// stored as ltd_url.
	ProductURL string `json:"product_url"`
}

// Reservation is a newly reserved report instance.
type Reservation struct {
	InstanceID    string
	PublishedURL  string
	LTDEditionURL string
}

// UploadResult acknowledges an uploaded notebook.
type UploadResult struct {
	// QueueURL tracks the asynchronous publication task.
	QueueURL string `json:"queue_url"`
}

// RegisterReport registers a report repository as a product.
func (client *Client) RegisterReport(ctx context.Context, registration Registration) (*RegisteredReport, error) {
	var report RegisteredReport
	if err := client.postJSON(ctx, "/nbreport/reports/", registration, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ReserveInstance reserves the next instance identifier of a product.
func (client *Client) ReserveInstance(ctx context.Context, product string) (*Reservation, error) {
	var wire struct {
		InstanceID    json.RawMessage `json:"instance_id"`
		PublishedURL  string          `json:"published_url"`
		LTDEditionURL string          `json:"ltd_edition_url"`
	}
	path := "/nbreport/reports/" + url.PathEscape(product) + "/instances/"
	if err := client.postJSON(ctx, path, nil, &wire); err != nil {
		return nil, err
	}
	instanceID, err := identifierString(wire.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("apiclient: reservation for %s: %w", product, err)
	}
	return &Reservation{
		InstanceID:    instanceID,
		PublishedURL:  wire.PublishedURL,
		LTDEditionURL: wire.LTDEditionURL,
	}, nil
}

// UploadNotebook posts a computed notebook's raw bytes for publication.
func (client *Client) UploadNotebook(ctx context.Context, product, instanceID string, notebook []byte) (*UploadResult, error) {
	path := "/nbreport/reports/" + url.PathEscape(product) +
		"/instances/" + url.PathEscape(instanceID) + "/notebook"
	data, err := client.do(ctx, http.MethodPost, path, bytes.NewReader(notebook), NotebookContentType)
	if err != nil {
		return nil, err
	}
	var result UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("apiclient: decoding upload response: %w", err)
	}
	return &result, nil
}

// identifierString accepts an instance identifier encoded as either a
// JSON string or a JSON number.
func identifierString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("response has no instance_id")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return "", fmt.Errorf("instance_id %s is neither a string nor a number", raw)
	}
	return number.String(), nil
}
