// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/instance"
)

type computeParams struct {
	Compute computeOptions
}

func computeCommand(env *environment) *cli.Command {
	var params computeParams

	return &cli.Command{
		Name:    "compute",
		Summary: "Compute the notebook of a report instance",
		Description: `Execute every cell of a report instance's notebook and save the
outputs in place. Cells run in a temporary working directory that is
removed afterwards, so files the notebook writes are not kept.

When a cell raises, the partially computed notebook is saved as
errored-<uuid>.ipynb in the current directory for inspection.`,
		Usage: "nbreport compute <instance> [--timeout <seconds>] [-k <kernel>]",
		Examples: []cli.Example{
			{
				Description: "Compute with a ten minute limit per cell",
				Command:     "nbreport compute TESTR-000-1 --timeout 600",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			dir, err := singleArgument(args, "instance")
			if err != nil {
				return err
			}
			options := params.Compute.options(logger)
			opened, err := instance.Open(dir)
			if err != nil {
				return classify(err)
			}
			if err := opened.Compute(ctx, env.engine, options); err != nil {
				return classify(err)
			}
			fmt.Fprintln(env.stdout, "Complete.")
			return nil
		},
	}
}
