// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/processing"
	"github.com/bureau-foundation/nbreport/lib/repo"
)

type registerParams struct {
	Yes bool `flag:"yes,y" desc:"register without asking for confirmation"`
}

func registerCommand(env *environment) *cli.Command {
	var params registerParams

	return &cli.Command{
		Name:    "register",
		Summary: "Register a report repository with the publication service",
		Description: `Register a report repository with the publication service.

Registration creates the report's product on LSST the Docs from the
handle, title, and git_repo fields of nbreport.yaml, and records the
assigned ltd_product, published_url, and ltd_url in that file. Commit
the updated nbreport.yaml afterwards.

A report is registered once; every later instance is reserved against
the registered product.`,
		Usage: "nbreport register <repository> [--yes]",
		Examples: []cli.Example{
			{
				Description: "Register the report in the current directory",
				Command:     "nbreport register .",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			path, err := singleArgument(args, "repository")
			if err != nil {
				return err
			}
			return runRegister(ctx, env, params, path, logger)
		},
	}
}

func runRegister(ctx context.Context, env *environment, params registerParams, path string, logger *slog.Logger) error {
	repository, err := repo.Open(path)
	if err != nil {
		return classify(err)
	}
	registration, err := processing.ReadRegistration(repository)
	if err != nil {
		return classify(err)
	}
	client, err := env.apiClient(logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.stdout, "Registering report with this metadata from nbreport.yaml:")
	fmt.Fprintf(env.stdout, "  Handle: %s\n", registration.Handle)
	fmt.Fprintf(env.stdout, "  Title: %s\n", registration.Title)
	fmt.Fprintf(env.stdout, "  Git repository: %s\n", registration.GitRepo)
	if !params.Yes {
		confirmed, err := cli.NewPrompter(env.stdin, env.stdout).Confirm("Register this report?")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(env.stdout, "Aborted.")
			return &cli.ExitError{Code: 1}
		}
	}

	registered, err := processing.RegisterReport(ctx, repository, client, logger)
	if err != nil {
		return classify(err)
	}
	fmt.Fprintf(env.stdout, "Registered report at %s\n", registered.PublishedURL)
	fmt.Fprintf(env.stdout, "Commit the updated %s to the report repository.\n", repository.ConfigPath())
	return nil
}
