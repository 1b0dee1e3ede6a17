package main

import "github.com/trellisfw/trellis-monitor/cmd"

func main() {
	cmd.Execute()
}
