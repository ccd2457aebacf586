// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the nbreport command tree.
//
// Every command reads its collaborators (standard streams, compute
// engine, HTTP client) from an [environment] so tests can drive the
// full tree against httptest servers and a fake kernel. Root wires the
// production environment.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/version"
)

// globalParams are the flags accepted before the subcommand name.
type globalParams struct {
	LogLevel   string `flag:"log-level" desc:"logging level: debug, info, warn, or error" default:"info"`
	ConfigFile string `flag:"config-file" desc:"user configuration file (default $NBREPORT_CONFIG or ~/.nbreport.yaml)"`
	Server     string `flag:"server" desc:"nbreport publication service URL (default $NBREPORT_SERVER or https://api.lsst.codes)"`
}

// Root builds the complete nbreport command tree.
func Root() *cli.Command {
	return rootWith(defaultEnvironment())
}

func rootWith(env *environment) *cli.Command {
	return &cli.Command{
		Name: "nbreport",
		Description: `nbreport is a command-line client for LSST's notebook-based report
system. Use nbreport to initialize, compute, and upload report instances.

Global flags go before the command name:

  nbreport --log-level debug issue ./TESTR-000`,
		Params: func() any { return &env.globals },
		Logger: func() (*slog.Logger, error) {
			level, err := cli.ParseLevel(env.globals.LogLevel)
			if err != nil {
				return nil, err
			}
			return env.newLogger(level), nil
		},
		Subcommands: []*cli.Command{
			loginCommand(env),
			registerCommand(env),
			initCommand(env),
			renderCommand(env),
			computeCommand(env),
			uploadCommand(env),
			issueCommand(env),
			testCommand(env),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					if len(args) > 0 {
						return cli.Validation("unexpected argument: %s", args[0])
					}
					fmt.Fprintf(env.stdout, "nbreport %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Obtain a GitHub token for the publication service",
				Command:     "nbreport login",
			},
			{
				Description: "Register a report repository (run once per report)",
				Command:     "nbreport register ./TESTR-000",
			},
			{
				Description: "Create, compute, and publish a new report instance",
				Command:     "nbreport issue https://github.com/lsst-sqre/nbreport --git-subdir tests/TESTR-000 -c title 'Weekly Report'",
			},
			{
				Description: "Try a report locally without publishing it",
				Command:     "nbreport test ./TESTR-000 -c a 1",
			},
		},
	}
}
