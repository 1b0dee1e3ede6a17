package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trellisfw/trellis-monitor/cmd"
	"github.com/trellisfw/trellis-monitor/pkg/cli"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
)

var watchJSON bool

func init() {
	watchCommand.Flags().BoolVarP(&watchJSON, "json", "j", false, "print every status as JSON")
	ctlCommand.AddCommand(watchCommand)
}

var watchCommand = &cobra.Command{
	Use:   "watch",
	Args:  cobra.NoArgs,
	Short: "Follow status updates",
	Long:  "This command prints the current status and then every status produced by a run, until interrupted.",
	RunE: func(c *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return newClient().Watch(ctx, func(status monitor.GlobalStatus) error {
			if watchJSON {
				out, err := json.Marshal(status)
				if err != nil {
					return err
				}
				return cli.PrintJSON(c.OutOrStdout(), out)
			}
			_, err := fmt.Fprintln(c.OutOrStdout(), cmd.RenderStatus(status))
			return err
		})
	},
}
