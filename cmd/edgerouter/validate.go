package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/config"
)

var validateCheckForward bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the edgerouter configuration file.

Checks:
  - YAML syntax is valid
  - Every service in the tree compiles (patterns, templates, rules)
  - Forward targets are reachable (optional; only the service and
    its router "next" chain are checked, forward services nested in
    "use" ops are not)

Examples:
  edgerouter validate
  edgerouter validate --config /etc/edgerouter/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckForward, "check-forward", false, "check that forward targets are reachable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	if _, err := config.Build(cfg, metrics.NewWithRegistry(prometheus.NewRegistry())); err != nil {
		fmt.Printf("  %s Service tree compiles\n", crossMark)
		return fmt.Errorf("build error: %w", err)
	}
	fmt.Printf("  %s Service tree compiles\n", checkMark)

	fmt.Printf("  %s Bind address: %s\n", checkMark, cfg.HTTPServer.Bind)
	fmt.Printf("  %s Rules configured: %d\n", checkMark, config.CountRules(&cfg.HTTPServer.Service))

	if validateCheckForward {
		targets := collectForwardTargets(&cfg.HTTPServer.Service)
		if len(targets) == 0 {
			fmt.Printf("  %s No forward targets configured\n", checkMark)
		}
		for _, t := range targets {
			url := fmt.Sprintf("%s://%s:%d/", t.Scheme, t.Host, t.Port)
			if err := checkForwardReachable(url); err != nil {
				fmt.Printf("  %s Forward target reachable: %s\n", crossMark, url)
				fmt.Printf("      Error: %v\n", err)
			} else {
				fmt.Printf("  %s Forward target reachable: %s\n", checkMark, url)
			}
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func collectForwardTargets(svc *config.ServiceConfig) []config.TargetConfig {
	if svc == nil {
		return nil
	}
	switch svc.Handler {
	case "forward":
		if svc.Target != nil {
			return []config.TargetConfig{*svc.Target}
		}
		return nil
	case "router":
		return collectForwardTargets(svc.Next)
	default:
		return nil
	}
}

func checkForwardReachable(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
