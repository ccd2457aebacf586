// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/instance"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

type renderParams struct {
	Context cli.Pairs `flag:"config,c" desc:"template variable as 'key value' or 'key=value' (repeatable)"`
}

func renderCommand(env *environment) *cli.Command {
	var params renderParams

	return &cli.Command{
		Name:    "render",
		Summary: "Render the template variables of a report instance",
		Description: `Render the templated cells of a report instance's notebook.

Variables given with -c override the report's defaults from
cookiecutter.json. Without -c options the defaults are used as is.
The resolved variables are saved in the instance's nbreport.yaml and in
the notebook metadata.`,
		Usage: "nbreport render <instance> [-c key value]...",
		Examples: []cli.Example{
			{
				Description: "Render with a custom title",
				Command:     "nbreport render TESTR-000-1 -c title 'Weekly Report'",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			dir, err := singleArgument(args, "instance")
			if err != nil {
				return err
			}
			opened, err := instance.Open(dir)
			if err != nil {
				return classify(err)
			}
			if err := opened.Render(templating.Overrides(params.Context.Map()), logger); err != nil {
				return classify(err)
			}
			notebookPath, err := opened.NotebookPath()
			if err != nil {
				return classify(err)
			}
			fmt.Fprintf(env.stdout, "Rendered %s\n", notebookPath)
			return nil
		},
	}
}
