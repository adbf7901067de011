package main

import (
	"fmt"
	"os"

	"tone-monitor-service/internal/cli"
	"tone-monitor-service/internal/config"
)

func main() {
	deps := &cli.Dependencies{Config: config.Load()}

	if err := cli.NewRootCmd(deps).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
