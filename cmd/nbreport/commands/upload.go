// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/apiclient"
	"github.com/bureau-foundation/nbreport/lib/instance"
)

func uploadCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "upload",
		Summary: "Upload a computed report instance for publication",
		Description: `Send a report instance's computed notebook to the publication service.

Publication is asynchronous; the command prints the URL of the
processing task and the URL the instance will be published at.`,
		Usage: "nbreport upload <instance>",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			dir, err := singleArgument(args, "instance")
			if err != nil {
				return err
			}
			opened, err := instance.Open(dir)
			if err != nil {
				return classify(err)
			}
			client, err := env.apiClient(logger)
			if err != nil {
				return err
			}
			result, err := opened.Upload(ctx, client)
			if err != nil {
				return classify(err)
			}
			fmt.Fprintln(env.stdout, "Upload complete.")
			printPublication(env, opened, result)
			return nil
		},
	}
}

// printPublication reports where an uploaded instance is processed and
// published.
func printPublication(env *environment, uploaded *instance.Instance, result *apiclient.UploadResult) {
	fmt.Fprintf(env.stdout, "Processing status:\n  %s\n", result.QueueURL)
	// Instances created with an explicit --id have no reserved URL.
	if publishedURL, err := uploaded.Config().GetString(instance.PublishedInstanceURLField); err == nil && publishedURL != "" {
		fmt.Fprintf(env.stdout, "Publication URL:\n  %s\n", publishedURL)
	}
}
