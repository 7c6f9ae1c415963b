package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/trivet/internal/version"
)

// NewApp builds the root trivet command with all subcommands attached.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "trivet",
		Usage:   "A style checker for C# source files",
		Version: version.Version(),
		Description: `trivet is a fast, configurable style checker for C# source files.

It checks spacing, whitespace, and commenting conventions in your C#
sources and can fix many of the issues it finds automatically.

Examples:
  trivet lint Program.cs
  trivet lint --fix src/
  trivet lint .`,
		Commands: []*cli.Command{
			lintCommand(),
			rulesCommand(),
			checkCommand(),
			lspCommand(),
			versionCommand(),
		},
	}
}

// Execute parses os.Args and runs the selected subcommand.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
