// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

type issueParams struct {
	Context   cli.Pairs `flag:"config,c" desc:"template variable as 'key value' or 'key=value' (repeatable)"`
	Dir       string    `flag:"dir,d" desc:"instance directory (default: <repository>-<id> in the current directory)"`
	Overwrite bool      `flag:"overwrite" desc:"replace an existing instance directory"`
	Compute   computeOptions
	Git       gitOptions
}

func issueCommand(env *environment) *cli.Command {
	var params issueParams

	return &cli.Command{
		Name:    "issue",
		Summary: "Create, render, compute, and publish a report instance",
		Description: `Issue a new report instance in one step:

  1. Reserve an instance from the publication service.
  2. Create the instance from a local report directory or a Git URL.
  3. Render its template variables from the defaults and -c options.
  4. Compute the notebook.
  5. Upload the computed notebook for publication.

The report must be registered ("nbreport register") and you must be
logged in ("nbreport login").`,
		Usage: "nbreport issue <repository-or-url> [-c key value]... [flags]",
		Examples: []cli.Example{
			{
				Description: "Issue an instance of a report on GitHub",
				Command:     "nbreport issue https://github.com/lsst-sqre/nbreport --git-subdir tests/TESTR-000 -c title 'Weekly Report'",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			source, err := singleArgument(args, "repository")
			if err != nil {
				return err
			}
			options := params.Compute.options(logger)

			created, err := createInstance(ctx, env, source, instanceRequest{
				overrides: templating.Overrides(params.Context.Map()),
				dir:       params.Dir,
				overwrite: params.Overwrite,
				git:       params.Git,
			}, logger)
			if err != nil {
				return err
			}
			if err := created.Compute(ctx, env.engine, options); err != nil {
				return classify(err)
			}
			client, err := env.apiClient(logger)
			if err != nil {
				return err
			}
			result, err := created.Upload(ctx, client)
			if err != nil {
				return classify(err)
			}
			handle, err := created.Handle()
			if err != nil {
				return classify(err)
			}

			fmt.Fprintf(env.stdout, "Issued report instance %s.\n", handle)
			printPublication(env, created, result)
			return nil
		},
	}
}
