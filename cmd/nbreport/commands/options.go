// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/compute"
	"github.com/bureau-foundation/nbreport/lib/processing"
	"github.com/bureau-foundation/nbreport/lib/templating"
)

// gitOptions select what to check out when the repository argument is
// a URL.
type gitOptions struct {
	Ref    string `flag:"git-ref" desc:"if cloning, the branch or tag to check out (default: the remote's default branch)"`
	Subdir string `flag:"git-subdir" desc:"if cloning, the report's directory inside the Git repository"`
}

func (o *gitOptions) source(logger *slog.Logger) processing.SourceOptions {
	return processing.SourceOptions{
		GitRef:    o.Ref,
		GitSubdir: o.Subdir,
		Logger:    logger,
	}
}

// computeOptions control notebook execution.
type computeOptions struct {
	Timeout cli.Seconds `flag:"timeout" desc:"per-cell execution timeout in seconds (0 means no limit)"`
	Kernel  string      `flag:"kernel,k" desc:"Jupyter kernel name (default: the notebook's kernel)"`
}

func (o *computeOptions) options(logger *slog.Logger) compute.Options {
	return compute.Options{
		KernelName: o.Kernel,
		Timeout:    o.Timeout.Duration(),
		Logger:     logger,
	}
}

// overridesOrNil returns nil when no -c pairs were given, which leaves
// a new instance unrendered.
func overridesOrNil(pairs *cli.Pairs) templating.Overrides {
	if pairs.Len() == 0 {
		return nil
	}
	return templating.Overrides(pairs.Map())
}

// singleArgument returns the one positional argument a command takes.
func singleArgument(args []string, what string) (string, error) {
	switch len(args) {
	case 0:
		return "", cli.Validation("missing %s argument", what)
	case 1:
		return args[0], nil
	default:
		return "", cli.Validation("unexpected argument: %s", args[1])
	}
}
