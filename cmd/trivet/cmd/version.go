package cmd

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/trivet/internal/version"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit version information as JSON",
			},
		},
		Action: printVersion,
	}
}

func printVersion(_ context.Context, cmd *cli.Command) error {
	if !cmd.Bool("json") {
		fmt.Printf("trivet version %s\n", version.Version())
		return nil
	}
	return json.MarshalWrite(
		os.Stdout,
		version.GetInfo(),
		jsontext.EscapeForHTML(true),
		jsontext.WithIndentPrefix(""),
		jsontext.WithIndent("  "),
	)
}
