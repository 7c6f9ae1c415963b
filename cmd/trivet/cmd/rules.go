package cmd

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/trivet/internal/rules"
	_ "github.com/wharflab/trivet/internal/rules/all" // Register all rules
)

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "List available rules",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output rule information as JSON",
			},
		},
		Action: runRules,
	}
}

// ruleInfo is the JSON shape for a single rule listing.
type ruleInfo struct {
	Code             string         `json:"code"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Category         string         `json:"category"`
	DefaultSeverity  rules.Severity `json:"defaultSeverity"`
	EnabledByDefault bool           `json:"enabledByDefault"`
	Experimental     bool           `json:"experimental,omitempty"`
	DocURL           string         `json:"docUrl"`
}

func runRules(_ context.Context, cmd *cli.Command) error {
	all := rules.All()

	if cmd.Bool("json") {
		infos := make([]ruleInfo, 0, len(all))
		for _, rule := range all {
			d := rule.Descriptor()
			infos = append(infos, ruleInfo{
				Code:             d.Code,
				Name:             d.Name,
				Description:      d.Description,
				Category:         d.Category,
				DefaultSeverity:  d.DefaultSeverity,
				EnabledByDefault: d.EnabledByDefault,
				Experimental:     d.IsExperimental,
				DocURL:           d.DocURL,
			})
		}
		return json.MarshalWrite(
			os.Stdout,
			infos,
			jsontext.EscapeForHTML(true),
			jsontext.WithIndentPrefix(""),
			jsontext.WithIndent("  "),
		)
	}

	width := 0
	for _, rule := range all {
		if n := len(rule.Descriptor().Code); n > width {
			width = n
		}
	}

	for _, rule := range all {
		d := rule.Descriptor()
		suffix := ""
		if !d.EnabledByDefault {
			suffix = " (off by default)"
		}
		if d.IsExperimental {
			suffix += " (experimental)"
		}
		fmt.Printf("%-*s  %-7s  %s%s\n", width, d.Code, d.DefaultSeverity, d.Description, suffix)
	}

	return nil
}
