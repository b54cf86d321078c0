package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes the YAML document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks structural invariants the YAML decoder can't
// express on its own: non-empty source_dir/rules/target.host, mirrored
// recursively into a router service's `next`.
func Validate(cfg *Config) error {
	return validateService(&cfg.HTTPServer.Service)
}

func validateService(svc *ServiceConfig) error {
	switch svc.Handler {
	case "static":
		if strings.TrimSpace(svc.SourceDir) == "" {
			return invalid("`static.source_dir` cannot be empty")
		}
	case "forward":
		if svc.Target == nil || strings.TrimSpace(svc.Target.Host) == "" {
			return invalid("`forward.target.host` cannot be empty")
		}
	case "router":
		if len(svc.Rules) == 0 {
			return invalid("`router.rules` cannot be empty")
		}
		if svc.Next == nil {
			return invalid("`router.next` is mandatory")
		}
		if err := validateService(svc.Next); err != nil {
			return err
		}
	default:
		return invalid(fmt.Sprintf("unknown service handler %q", svc.Handler))
	}
	return nil
}
