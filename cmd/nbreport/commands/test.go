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

type testParams struct {
	Context   cli.Pairs `flag:"config,c" desc:"template variable as 'key value' or 'key=value' (repeatable)"`
	ID        string    `flag:"id" desc:"instance identifier" default:"test"`
	Dir       string    `flag:"dir,d" desc:"instance directory (default: <repository>-<id> in the current directory)"`
	Overwrite bool      `flag:"overwrite" desc:"replace an existing instance directory (use --overwrite=false to keep it)" default:"true"`
	Compute   computeOptions
	Git       gitOptions
}

func testCommand(env *environment) *cli.Command {
	var params testParams

	return &cli.Command{
		Name:    "test",
		Summary: "Create, render, and compute a report instance without publishing it",
		Description: `Try a report repository while developing it: create an instance from
a local report directory or a Git URL, render its template variables
from the defaults and -c options, and compute the notebook. Nothing is
sent to the publication service, so no login or registration is needed.

The instance is named with --id (default "test") and replaces any
earlier test instance.`,
		Usage: "nbreport test <repository-or-url> [-c key value]... [flags]",
		Examples: []cli.Example{
			{
				Description: "Test a report on GitHub with a custom title",
				Command:     "nbreport test https://github.com/lsst-sqre/nbreport --git-subdir tests/TESTR-000 -c title 'My first report'",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			source, err := singleArgument(args, "repository")
			if err != nil {
				return err
			}
			if params.ID == "" {
				return cli.Validation("--id must not be empty")
			}
			options := params.Compute.options(logger)

			created, err := createInstance(ctx, env, source, instanceRequest{
				id:        params.ID,
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
			notebookPath, err := created.NotebookPath()
			if err != nil {
				return classify(err)
			}
			fmt.Fprintf(env.stdout, "Computed %s\n", notebookPath)
			return nil
		},
	}
}
