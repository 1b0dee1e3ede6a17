package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trellisfw/trellis-monitor/cmd"
	"github.com/trellisfw/trellis-monitor/pkg/cli"
)

func init() {
	ctlCommand.AddCommand(buildStatusCommand(
		cli.APIActionStatus,
		"Show the current status",
		"This command shows the status of the latest run without running any probe.",
	))
	ctlCommand.AddCommand(buildStatusCommand(
		cli.APIActionTrigger,
		"Run all probes now",
		"This command asks the monitor to run all probes now and shows the resulting status.\n\nWhen a run is already in progress or too many runs were requested, the current status is shown.",
	))
}

func buildStatusCommand(action, shortDesc, longDesc string) *cobra.Command {
	command := cobra.Command{
		Use:   action,
		Args:  cobra.NoArgs,
		Short: shortDesc,
		Long:  longDesc,
		RunE: func(c *cobra.Command, args []string) error {
			resp := newClient().CallAction(context.Background(), action)
			if err := resp.Err(); err != nil {
				return fmt.Errorf("failed to %s: %w", action, err)
			}

			if printJSON, _ := c.Flags().GetBool("json"); printJSON {
				if err := resp.Print(c.OutOrStdout()); err != nil {
					return fmt.Errorf("failed to print output: %w", err)
				}
			} else {
				fmt.Fprintln(c.OutOrStdout(), cmd.RenderStatus(resp.Body))
			}

			if exitWithStatus, _ := c.Flags().GetBool("exit-with-status"); exitWithStatus && !resp.Body.OK() {
				os.Exit(1)
			}
			return nil
		},
	}

	command.Flags().BoolP("json", "j", false, "print the status as JSON")
	command.Flags().Bool("exit-with-status", false, "exit with status code 1 if a probe is failing")

	return &command
}
