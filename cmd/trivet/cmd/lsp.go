package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/trivet/internal/lspserver"
)

func lspCommand() *cli.Command {
	return &cli.Command{
		Name:  "lsp",
		Usage: "Run the language server over stdio",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Use stdin/stdout for communication (required)",
				Value: true,
			},
		},
		Action: runLSP,
	}
}

func runLSP(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("stdio") {
		fmt.Fprintln(os.Stderr, "Error: the lsp command only supports the --stdio transport")
		return cli.Exit("", ExitConfigError)
	}
	return lspserver.New().RunStdio(ctx)
}
