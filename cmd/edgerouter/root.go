package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "edgerouter",
	Short: "A config-driven HTTP edge router",
	Long: `edgerouter matches incoming requests against host, path, scheme,
header, query, and cookie rules and rewrites, redirects, responds to,
or forwards them to a static directory or an upstream service.

Quick start:
  edgerouter serve     # Start the router
  edgerouter validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "edgerouter.yaml", "config file path")
}
