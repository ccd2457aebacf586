// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/instance"
	"github.com/bureau-foundation/nbreport/lib/processing"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

type initParams struct {
	Context   cli.Pairs `flag:"config,c" desc:"template variable as 'key value' or 'key=value' (repeatable); without any, the instance is left unrendered"`
	Dir       string    `flag:"dir,d" desc:"instance directory (default: <repository>-<id> in the current directory)"`
	Overwrite bool      `flag:"overwrite" desc:"replace an existing instance directory"`
	Git       gitOptions
}

func initCommand(env *environment) *cli.Command {
	var params initParams

	return &cli.Command{
		Name:    "init",
		Summary: "Create a new report instance",
		Description: `Create a new report instance from a report repository.

The repository is a local directory or a Git URL, which is cloned to a
temporary directory for the duration of the command. The publication
service reserves the instance's identifier, so the report must be
registered and you must be logged in.

Template variables are rendered only when -c options are given.
Otherwise run "nbreport render" on the new instance later.`,
		Usage: "nbreport init <repository-or-url> [-c key value]... [flags]",
		Examples: []cli.Example{
			{
				Description: "Create and render an instance of a local report",
				Command:     "nbreport init ./TESTR-000 -c title 'Weekly Report'",
			},
			{
				Description: "Create an instance from a report on GitHub",
				Command:     "nbreport init https://github.com/lsst-sqre/nbreport --git-subdir tests/TESTR-000",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			source, err := singleArgument(args, "repository")
			if err != nil {
				return err
			}
			created, err := createInstance(ctx, env, source, instanceRequest{
				overrides: overridesOrNil(&params.Context),
				dir:       params.Dir,
				overwrite: params.Overwrite,
				git:       params.Git,
			}, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout, "Created new report instance at %s\n", created.Dir())
			if params.Context.Len() == 0 {
				fmt.Fprintf(env.stdout, "Run\n  nbreport render %s\n(with -c options) to render the instance's templated cells.\n", created.Dir())
			}
			return nil
		},
	}
}

// instanceRequest is what init, issue, and test share about creating
// an instance.
type instanceRequest struct {
	// id, when empty, is reserved from the publication service.
	id        string
	overrides templating.Overrides
	dir       string
	overwrite bool
	git       gitOptions
}

// createInstance opens or clones source and creates an instance of it.
// A clone is removed before returning; the instance is a copy.
func createInstance(ctx context.Context, env *environment, source string, request instanceRequest, logger *slog.Logger) (*instance.Instance, error) {
	options := processing.CreateOptions{
		InstanceID:   request.id,
		Overrides:    request.overrides,
		InstancePath: request.dir,
		Overwrite:    request.overwrite,
		Logger:       logger,
	}
	if request.id == "" {
		client, err := env.apiClient(logger)
		if err != nil {
			return nil, err
		}
		options.Client = client
	}

	repository, cleanup, err := processing.OpenRepository(ctx, source, request.git.source(logger))
	if err != nil {
		return nil, classify(err)
	}
	defer cleanup()

	created, err := processing.CreateInstance(ctx, repository, options)
	if err != nil {
		return nil, classify(err)
	}
	return created, nil
}
