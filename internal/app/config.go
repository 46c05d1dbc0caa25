package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
// Zero values for WorkerCount, NodeTimeout and OutDir defer to the loaded
// configuration file.
type Config struct {
	ConfigPath string // .hcl, .yaml or a directory of .hcl files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	NodeTimeout     time.Duration
	OutDir          string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, errors.New("WorkerCount must not be negative")
	}
	if cfg.NodeTimeout < 0 {
		return nil, errors.New("NodeTimeout must not be negative")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, errors.New("HealthcheckPort must be between 0 and 65535")
	}
	return &cfg, nil
}
