// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/apiclient"
	"github.com/bureau-foundation/nbreport/lib/compute"
	"github.com/bureau-foundation/nbreport/lib/github"
	"github.com/bureau-foundation/nbreport/lib/userconfig"
)

// ServerEnvironmentVariable overrides the default publication service
// URL when --server is not given.
const ServerEnvironmentVariable = "NBREPORT_SERVER"

// environment holds what commands need from the process.
type environment struct {
	stdin  io.Reader
	stdout io.Writer

	// engine computes notebooks for compute, issue, and test.
	engine compute.Engine

	// httpClient is shared by the publication service and GitHub
	// clients. Nil means http.DefaultClient.
	httpClient *http.Client

	// githubURL is the GitHub API root. Empty means api.github.com.
	githubURL string

	newLogger func(level slog.Level) *slog.Logger

	globals globalParams
}

func defaultEnvironment() *environment {
	return &environment{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		engine:    &compute.NbclientEngine{},
		newLogger: cli.NewCommandLogger,
	}
}

// configPath is the user configuration file holding GitHub credentials.
func (env *environment) configPath() string {
	if env.globals.ConfigFile != "" {
		return env.globals.ConfigFile
	}
	return userconfig.Path()
}

func (env *environment) serverURL() string {
	if env.globals.Server != "" {
		return env.globals.Server
	}
	if server := os.Getenv(ServerEnvironmentVariable); server != "" {
		return server
	}
	return apiclient.DefaultBaseURL
}

// apiClient creates a publication service client authenticated with
// the credentials saved by "nbreport login".
func (env *environment) apiClient(logger *slog.Logger) (*apiclient.Client, error) {
	credentials, err := userconfig.ReadGitHub(env.configPath())
	if err != nil {
		return nil, cli.Wrap(cli.CategoryValidation, err)
	}
	client, err := apiclient.NewClient(apiclient.Config{
		BaseURL:    env.serverURL(),
		Username:   credentials.Username,
		Token:      credentials.Token,
		HTTPClient: env.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, cli.Wrap(cli.CategoryValidation, err)
	}
	return client, nil
}

func (env *environment) githubClient(logger *slog.Logger) (*github.Client, error) {
	client, err := github.NewClient(github.Config{
		BaseURL:    env.githubURL,
		HTTPClient: env.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, cli.Wrap(cli.CategoryValidation, err)
	}
	return client, nil
}
