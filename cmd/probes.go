package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/trellisfw/trellis-monitor/pkg/cli"
	"github.com/trellisfw/trellis-monitor/pkg/conn"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

var probesJSON bool

func init() {
	rootCmd.AddCommand(probesCmd)
	probesCmd.Flags().BoolVarP(&probesJSON, "json", "j", false, "output as JSON")
}

type probeListing struct {
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	Description string       `json:"description,omitempty"`
	Domain      string       `json:"domain"`
	Token       string       `json:"token"`
	Params      probe.Params `json:"params,omitempty"`
}

// listProbes returns the enabled probes with their effective endpoint. Tokens
// are masked.
func listProbes(descs map[string]probe.Descriptor, defaults probe.Endpoint) []probeListing {
	out := make([]probeListing, 0, len(descs))
	for _, name := range probe.SortedNames(descs) {
		d := descs[name]
		domain, token := d.Domain, d.Token
		if domain == "" {
			domain = defaults.Domain
		}
		if token == "" {
			token = defaults.Token
		}
		out = append(out, probeListing{
			Name:        name,
			Kind:        d.Kind,
			Description: d.Description,
			Domain:      conn.NormalizeDomain(domain),
			Token:       conn.MaskToken(token),
			Params:      d.Params,
		})
	}
	return out
}

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "List enabled probes",
	Long:  "This sub-command lists the probes of the probes directory that are enabled by --probes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		descs, err := loadProbes(settings)
		if err != nil {
			return err
		}
		listing := listProbes(descs, probe.Endpoint{Domain: settings.Domain, Token: settings.Token})

		if probesJSON {
			out, err := json.Marshal(listing)
			if err != nil {
				return err
			}
			return cli.PrintJSON(cmd.OutOrStdout(), out)
		}

		for _, p := range listing {
			line := lipgloss.JoinHorizontal(lipgloss.Left,
				styleStatusLeftColumn.Render(StyleHighlight.Render(p.Name)),
				styleStatusLeftColumn.Render(p.Kind),
				p.Domain,
			)
			fmt.Fprintln(cmd.OutOrStdout(), styleListItem.Render(line))
			if p.Description != "" {
				fmt.Fprintln(cmd.OutOrStdout(), styleStatusAddendum.Render(StyleNotSet.Render(p.Description)))
			}
		}
		return nil
	},
}
