package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/tablemix"
	"github.com/arloliu/tablemix/sink"
)

// cliConfig is the configuration document of the tablemix command.
//
// The optimizer settings live at the top level; the blocks below select where
// items come from and where results go.
type cliConfig struct {
	tablemix.Config `yaml:",inline"`

	// Input is the attendee CSV file.
	Input string `yaml:"input"`

	Output outputConfig `yaml:"output"`

	// LogFile receives a copy of the console log. Empty disables file logging.
	LogFile string `yaml:"logFile"`

	// StatusFile receives RUNNING at start and FINISHED once results are written.
	StatusFile string `yaml:"statusFile"`

	Metrics metricsConfig `yaml:"metrics"`
	NATS    natsConfig    `yaml:"nats"`
}

type outputConfig struct {
	Dir             string `yaml:"dir"`
	AssignmentsFile string `yaml:"assignmentsFile"`
	SummaryFile     string `yaml:"summaryFile"`
}

type metricsConfig struct {
	// Listen is the address of the Prometheus /metrics endpoint, e.g. ":9090".
	Listen    string `yaml:"listen"`
	Namespace string `yaml:"namespace"`
}

type natsConfig struct {
	URL    string `yaml:"url"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Config: tablemix.DefaultConfig(),
		Input:  "attendees.csv",
		Output: outputConfig{
			Dir:             ".",
			AssignmentsFile: sink.DefaultAssignmentsFile,
			SummaryFile:     sink.DefaultSummaryFile,
		},
		Metrics: metricsConfig{Namespace: "tablemix"},
		NATS: natsConfig{
			Bucket: "tablemix",
			Prefix: sink.DefaultKVPrefix,
		},
	}
}

// parseCLIConfig decodes data on top of the command defaults.
func parseCLIConfig(data []byte) (*cliConfig, error) {
	cfg := defaultCLIConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	tablemix.SetDefaults(&cfg.Config)

	if cfg.Input == "" {
		return nil, fmt.Errorf("%w: input is required", tablemix.ErrInvalidConfig)
	}
	if cfg.NATS.URL != "" && cfg.NATS.Bucket == "" {
		return nil, fmt.Errorf("%w: nats.bucket is required when nats.url is set", tablemix.ErrInvalidConfig)
	}

	return &cfg, nil
}

func loadCLIConfig(path string) (*cliConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	return parseCLIConfig(data)
}
