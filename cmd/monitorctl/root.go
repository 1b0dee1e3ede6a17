package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/trellisfw/trellis-monitor/cmd"
	"github.com/trellisfw/trellis-monitor/internal/helper"
	"github.com/trellisfw/trellis-monitor/pkg/cli"
)

const DefaultAPIAddress = "localhost:8080"

var (
	apiAddress string
	apiToken   string
	apiTimeout time.Duration
)

func init() {
	ctlCommand.PersistentFlags().StringVarP(&apiAddress, "api-address", "", helper.Getenv("MONITOR_ADDRESS", DefaultAPIAddress), "address of the status api; host:port, http(s):// url or unix:///path.sock")
	ctlCommand.PersistentFlags().StringVarP(&apiToken, "token", "t", helper.Getenv("incomingToken", "god"), "bearer token of the status api (env incomingToken)")
	ctlCommand.PersistentFlags().DurationVar(&apiTimeout, "timeout", time.Minute, "timeout of api requests; a trigger waits for the whole run")
	ctlCommand.AddCommand(cmd.VersionCmd)
}

var ctlCommand = &cobra.Command{
	Use:           "monitorctl",
	Short:         "query and trigger a running trellis-monitor from cli",
	Long:          "This command can be used to read the status of a running trellis-monitor, trigger runs and watch status updates.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func newClient() *cli.APIClient {
	return cli.NewAPIClient(apiAddress, apiToken, apiTimeout)
}

func Execute() {
	if err := ctlCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}
