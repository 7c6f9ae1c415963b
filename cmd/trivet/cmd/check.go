package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/linter"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate trivet configuration",
		ArgsUsage: "[PATH...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
		},
		Action: runCheck,
	}
}

// runCheck loads the configuration for each target and reports what was
// found. Loading runs full validation: output settings, per-rule severity
// and fix modes, and rule options against each rule's schema.
func runCheck(_ context.Context, cmd *cli.Command) error {
	if configPath := cmd.String("config"); configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli.Exit("", ExitConfigError)
		}
		reportConfigOK(cfg)
		return nil
	}

	targets := cmd.Args().Slice()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	failed := false
	for _, target := range targets {
		// Discovery walks up from the target's directory; for directory
		// targets the config that applies to files inside it is wanted,
		// so probe from within.
		probe := target
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			probe = filepath.Join(target, "_.cs")
		}

		cfg, err := config.Load(probe)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", target, err)
			failed = true
			continue
		}
		reportConfigOK(cfg)
	}

	if failed {
		return cli.Exit("", ExitConfigError)
	}
	return nil
}

func reportConfigOK(cfg *config.Config) {
	source := cfg.ConfigFile
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Printf("%s: OK (%d rules enabled)\n", source, len(linter.EnabledRuleCodes(cfg)))
}
