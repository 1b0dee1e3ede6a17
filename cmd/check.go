package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trellisfw/trellis-monitor/internal/config"
	"github.com/trellisfw/trellis-monitor/pkg/cli"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
)

var (
	checkJSON   bool
	checkNotify bool
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVarP(&checkJSON, "json", "j", false, "print the status as JSON")
	checkCmd.Flags().BoolVar(&checkNotify, "notify", false, "notify about failures like a scheduled run would")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run all probes once and print the result",
	Long:  "This sub-command runs every enabled probe once, prints the status and exits with 1 when a probe fails.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings
		if !checkNotify {
			s.NotifyURL = ""
		}

		status, err := runCheck(cmd.Context(), s)
		if err != nil {
			return err
		}

		if err := printStatus(cmd.OutOrStdout(), status, checkJSON); err != nil {
			return err
		}
		if !status.OK() {
			os.Exit(1)
		}
		return nil
	},
}

// runCheck runs the enabled probes once with an empty quiet list.
func runCheck(ctx context.Context, s config.Settings) (monitor.GlobalStatus, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	engine, pool, err := buildMonitor(ctx, s, notifyTitle)
	if err != nil {
		return monitor.GlobalStatus{}, err
	}
	defer pool.Close()

	return engine.InitialRun(ctx), nil
}

func printStatus(w io.Writer, status monitor.GlobalStatus, asJSON bool) error {
	if asJSON {
		out, err := json.Marshal(status)
		if err != nil {
			return errors.Wrap(err, "failed to marshal status")
		}
		return cli.PrintJSON(w, out)
	}
	_, err := fmt.Fprintln(w, RenderStatus(status))
	return err
}
