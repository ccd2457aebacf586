// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/github"
	"github.com/bureau-foundation/nbreport/lib/secret"
	"github.com/bureau-foundation/nbreport/lib/userconfig"
)

// tokenNoteURL is shown next to the token on github.com/settings/tokens.
const tokenNoteURL = "https://github.com/lsst-sqre/nbreport"

type loginParams struct {
	Name         string `flag:"name" desc:"GitHub username (prompted for if not given)"`
	PasswordFile string `flag:"password-file" desc:"read the GitHub password from this file instead of prompting"`
}

func loginCommand(env *environment) *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Obtain a personal access token from GitHub",
		Description: `Obtain a personal access token from GitHub.

Commands that publish report instances authenticate with the publication
service using your GitHub identity and organization memberships. Run this
command first to create a token; it is saved in the user configuration
file (~/.nbreport.yaml unless --config-file says otherwise).

Your GitHub password is sent only to GitHub, never to the publication
service. Revoke the token at any time at https://github.com/settings/tokens.

Accounts with two-factor authentication are prompted for a one-time code.`,
		Usage: "nbreport login [--name <username>] [--password-file <path>]",
		Examples: []cli.Example{
			{
				Description: "Log in interactively",
				Command:     "nbreport login",
			},
			{
				Description: "Log in from a script",
				Command:     "nbreport login --name octocat --password-file ./github-password",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runLogin(ctx, env, params, logger)
		},
	}
}

func runLogin(ctx context.Context, env *environment, params loginParams, logger *slog.Logger) error {
	prompter := cli.NewPrompter(env.stdin, env.stdout)

	var err error
	username := params.Name
	if username == "" {
		if username, err = prompter.Line("GitHub username"); err != nil {
			return err
		}
	}
	var password *secret.Buffer
	if params.PasswordFile != "" {
		if password, err = secret.ReadFile(params.PasswordFile); err != nil {
			return cli.Validation("reading --password-file: %w", err)
		}
	} else if password, err = prompter.Password("GitHub password"); err != nil {
		return err
	}
	defer password.Close()

	client, err := env.githubClient(logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, "Getting a personal access token from GitHub.")
	request := github.AuthorizationRequest{
		Username: username,
		Password: password.String(),
		Note:     tokenNote(),
		NoteURL:  tokenNoteURL,
	}
	authorization, err := client.CreateAuthorization(ctx, request)
	if github.IsTwoFactorRequired(err) {
		code, promptErr := prompter.Line("Two-factor authentication code")
		if promptErr != nil {
			return promptErr
		}
		request.OneTimePassword = code
		authorization, err = client.CreateAuthorization(ctx, request)
	}
	if err != nil {
		if github.IsUnauthorized(err) || github.IsTwoFactorRequired(err) {
			return cli.Forbidden("GitHub rejected the credentials for %s: %w", username, err)
		}
		return cli.Transient("creating GitHub token: %w", err)
	}

	path := env.configPath()
	if err := userconfig.WriteGitHub(path, userconfig.GitHub{
		Username: username,
		Token:    authorization.Token,
	}, authorization.Note); err != nil {
		return cli.Internal("saving token: %w", err)
	}
	logger.Info("saved github token", "path", path, "note", authorization.Note)
	fmt.Fprintf(env.stdout, "Saved a personal access token for %s to %s\n", username, path)
	return nil
}

// tokenNote labels the token. GitHub requires notes to be unique per
// user, so it names the host and the time of creation.
func tokenNote() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown host"
	}
	return fmt.Sprintf("nbreport on %s (%s)", host, time.Now().UTC().Format(time.RFC3339))
}
