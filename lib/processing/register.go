// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package processing

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/nbreport/lib/apiclient"
	"github.com/bureau-foundation/nbreport/lib/repo"
)

// Metadata fields written by RegisterReport.
const (
	PublishedURLField = "published_url"
	ProductURLField   = "ltd_url"
)

// ReadRegistration reads the metadata a report is registered with.
// handle, title, and git_repo are all required.
func ReadRegistration(repository *repo.Repository) (apiclient.Registration, error) {
	store := repository.Config()
	var registration apiclient.Registration
	var err error
	if registration.Handle, err = repo.MetadataString(store, "handle", ""); err != nil {
		return registration, err
	}
	if registration.Title, err = repo.MetadataString(store, "title", ""); err != nil {
		return registration, err
	}
	if registration.GitRepo, err = repo.MetadataString(store, "git_repo", ""); err != nil {
		return registration, err
	}
	return registration, nil
}

// RegisterReport registers repository's report with the publication
// service and records the assigned product and URLs in the repository
// metadata. This is the one operation that modifies a report
// repository; the changes should be committed to it.
func RegisterReport(ctx context.Context, repository *repo.Repository, client *apiclient.Client, logger *slog.Logger) (*apiclient.RegisteredReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registration, err := ReadRegistration(repository)
	if err != nil {
		return nil, err
	}
	registered, err := client.RegisterReport(ctx, registration)
	if err != nil {
		return nil, err
	}
	err = repository.Config().Update(map[string]any{
		repo.ProductField: registered.Product,
		PublishedURLField: registered.PublishedURL,
		ProductURLField:   registered.ProductURL,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("registered report", "handle", registration.Handle, "product", registered.Product,
		"published_url", registered.PublishedURL)
	return registered, nil
}
