// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/apiclient"
	"github.com/bureau-foundation/nbreport/lib/compute"
	"github.com/bureau-foundation/nbreport/lib/config"
	"github.com/bureau-foundation/nbreport/lib/instance"
	"github.com/bureau-foundation/nbreport/lib/repo"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

const loginHint = `Run "nbreport login" to obtain a new GitHub token.`

// classify wraps a library error in the cli.ToolError category that
// tells the user whether to fix the input, log in again, or retry.
// Errors that already carry a category pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var toolError *cli.ToolError
	if errors.As(err, &toolError) {
		return err
	}

	var (
		notFound   *repo.NotFoundError
		exists     *instance.DirectoryExistsError
		missing    *repo.MissingMetadataError
		keyMissing *config.KeyNotFoundError
		undefined  *templating.UndefinedVariableError
		apiError   *apiclient.APIError
		cellError  *compute.CellExecutionError
	)
	switch {
	case errors.As(err, &notFound):
		return cli.Wrap(cli.CategoryNotFound, err)
	case errors.As(err, &exists):
		return cli.Wrap(cli.CategoryConflict, err).WithHint("Pass --overwrite to replace it.")
	case errors.As(err, &missing), errors.As(err, &keyMissing), errors.As(err, &undefined):
		return cli.Wrap(cli.CategoryValidation, err)
	case apiclient.IsUnauthorized(err):
		return cli.Wrap(cli.CategoryForbidden, err).WithHint(loginHint)
	case apiclient.IsNotFound(err):
		return cli.Wrap(cli.CategoryNotFound, err)
	case errors.As(err, &apiError):
		if apiError.StatusCode >= http.StatusInternalServerError {
			return cli.Wrap(cli.CategoryTransient, err)
		}
		return cli.Wrap(cli.CategoryValidation, err)
	case errors.As(err, &cellError):
		return cli.Wrap(cli.CategoryInternal, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return cli.Wrap(cli.CategoryTransient, err)
	default:
		return cli.Wrap(cli.CategoryInternal, err)
	}
}
