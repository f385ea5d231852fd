package app

import (
	"errors"
	"fmt"
)

// Config holds everything an App needs besides the configuration files.
// Pointer and slice fields are command line overrides; nil means "not given",
// so values from the configuration files or the defaults apply.
type Config struct {
	ConfigPaths []string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     *int
	NotifyURL       *string

	DataDir    *string
	Dataset    *string
	Nets       []string
	HardLabels *bool
	Device     *string
	Exp        *int
	Steps      []string
	Seed       *uint64
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port must be in [0,65535], got %d", cfg.HealthcheckPort)
	}
	if cfg.WorkerCount != nil && *cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count must be >= 0, got %d", *cfg.WorkerCount)
	}
	if cfg.DataDir != nil && *cfg.DataDir == "" {
		return nil, errors.New("data directory cannot be empty")
	}
	if cfg.Dataset != nil && *cfg.Dataset == "" {
		return nil, errors.New("dataset name cannot be empty")
	}
	return &cfg, nil
}
