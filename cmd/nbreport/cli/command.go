// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command represents a CLI command or subcommand.
type Command struct {
	// Name is the command name as typed by the user (e.g., "init", "render").
	Name string

	// Summary is a one-line description shown in the parent's help listing.
	Summary string

	// Description is a detailed multi-line description shown in the command's
	// own help output.
	Description string

	// Usage is the usage string (e.g., "nbreport compute <instance> [flags]").
	// If empty, it is synthesized from the command path and subcommands.
	Usage string

	// Examples are shown in the help output after the description.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet for this command. Called
	// lazily on first use. Takes precedence over Params.
	Flags func() *pflag.FlagSet

	// Params returns a pointer to a tagged params struct whose fields
	// are bound as flags via [BindFlags]. If both Flags and Params are
	// nil, the command accepts no flags.
	//
	// A command with Subcommands may also have flags. They are parsed
	// from the arguments preceding the subcommand name, so global
	// options go first: "nbreport --log-level debug init ...".
	Params func() any

	// Subcommands are nested commands dispatched by the first positional arg.
	Subcommands []*Command

	// Logger builds the logger passed to Run. It is called after flag
	// parsing, so it can depend on flag values. The nearest ancestor
	// that sets it is used; without one, commands log at info level.
	Logger func() (*slog.Logger, error)

	// Run executes the command with the remaining args (after flag parsing).
	// Exactly one of Run or Subcommands should be set. If both are set,
	// Run is used when no subcommand matches.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	// parent is set during dispatch to build the full command path for help.
	parent *Command

	// flags caches the flag set so parsing and help share it.
	flags *pflag.FlagSet
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute parses args and dispatches to the appropriate subcommand or Run
// function. This is the main entry point for the command tree.
func (c *Command) Execute(ctx context.Context, args []string) error {
	// Check for help flags before anything else.
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if len(c.Subcommands) > 0 {
		// Leading flags belong to this command, not the subcommand.
		if flagSet := c.flagSet(); flagSet != nil && len(args) > 0 && strings.HasPrefix(args[0], "-") {
			flagSet.SetInterspersed(false)
			remaining, err := c.parseFlags(flagSet, args)
			if err != nil {
				if errors.Is(err, pflag.ErrHelp) {
					c.PrintHelp(os.Stderr)
					return nil
				}
				return err
			}
			args = remaining
		}

		if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
			name := args[0]
			for _, sub := range c.Subcommands {
				if sub.Name == name {
					sub.parent = c
					return sub.Execute(ctx, args[1:])
				}
			}
			if c.Run == nil {
				// Unknown subcommand: suggest the closest match.
				suggestion := suggestCommand(name, c.Subcommands)
				if suggestion != "" {
					return Validation("unknown command %q (did you mean %q?)", name, suggestion).WithHint(c.usageHint())
				}
				return Validation("unknown command %q", name).WithHint(c.usageHint())
			}
		}

		if c.Run == nil {
			c.PrintHelp(os.Stderr)
			if len(args) == 0 {
				return fmt.Errorf("subcommand required")
			}
			return fmt.Errorf("subcommand required (got flag %q)", args[0])
		}
	} else if flagSet := c.flagSet(); flagSet != nil {
		remaining, err := c.parseFlags(flagSet, args)
		if err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.PrintHelp(os.Stderr)
				return nil
			}
			return err
		}
		args = remaining
	}

	if c.Run == nil {
		// No Run, no subcommands matched: show help.
		c.PrintHelp(os.Stderr)
		return fmt.Errorf("no action defined for %q", c.fullName())
	}

	logger, err := c.logger()
	if err != nil {
		return err
	}
	return c.Run(ctx, args, logger)
}

// parseFlags parses args into flagSet and returns the positional
// arguments. Errors carry a suggestion for unknown flags and a pointer
// to --help.
func (c *Command) parseFlags(flagSet *pflag.FlagSet, args []string) ([]string, error) {
	// Suppress pflag's own error output and usage dump. We format our
	// own error messages with suggestions.
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(joinPairArguments(args, flagSet)); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		errMsg := err.Error()
		if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
			if suggestion := suggestFlag(args, flagSet); suggestion != "" {
				return nil, Validation("%s (did you mean %s?)", errMsg, suggestion).WithHint(c.usageHint())
			}
		}
		return nil, Validation("%s", errMsg).WithHint(c.usageHint())
	}
	return flagSet.Args(), nil
}

func (c *Command) usageHint() string {
	return fmt.Sprintf("Run '%s --help' for usage.", c.fullName())
}

// flagSet returns the command's flag set, building it on first use.
func (c *Command) flagSet() *pflag.FlagSet {
	if c.flags != nil {
		return c.flags
	}
	switch {
	case c.Flags != nil:
		c.flags = c.Flags()
	case c.Params != nil:
		c.flags = FlagsFromParams(c.Name, c.Params())
	}
	return c.flags
}

// logger resolves the logger from the nearest ancestor with a Logger
// function.
func (c *Command) logger() (*slog.Logger, error) {
	for command := c; command != nil; command = command.parent {
		if command.Logger != nil {
			return command.Logger()
		}
	}
	return NewCommandLogger(slog.LevelInfo), nil
}

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	// Description or summary.
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	// Usage line.
	if c.Usage != "" {
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	} else if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	} else {
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	// Subcommands.
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	// Flags.
	if flagSet := c.flagSet(); flagSet != nil {
		var flagHelp strings.Builder
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	// Examples.
	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	// Footer: help hint for subcommands.
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// fullName returns the complete command path (e.g., "nbreport init").
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

// isHelpFlag returns true for common help flag variants.
func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
