package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgerouter/edgerouter/app"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the edge router server",
	Long: `Start the edgerouter server.

The server will:
  - Load configuration from edgerouter.yaml (or --config)
  - Compile it into a service tree
  - Serve /healthz and /metrics alongside the router core

Examples:
  edgerouter serve
  edgerouter serve --config /etc/edgerouter/config.yaml
  edgerouter serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "watch the config file and SIGHUP for changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Create %s or specify one with --config\n", cfgFile)
		return nil
	}

	var a *app.App
	var err error
	if hotReload {
		a, err = app.NewWithHotReload(cfgFile)
	} else {
		a, err = app.New(cfgFile)
	}
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	return a.Run()
}
