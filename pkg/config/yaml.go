package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML-tagged on-disk shape of Config. It is decoded
// separately from Config so field defaults can be applied with struct
// tags before the two are merged.
type FileConfig struct {
	LeaseName         string `yaml:"leaseName" default:"nestjs-leader-election"`
	Namespace         string `yaml:"namespace" default:"default"`
	RenewalIntervalMs int    `yaml:"renewalIntervalMs" default:"10000"`
	LogAtLevel        string `yaml:"logAtLevel" default:"log"`
	AwaitLeadership   bool   `yaml:"awaitLeadership"`
	KubeConfig        string `yaml:"kubeConfig"`
	MetricsAddr       string `yaml:"metricsAddr" default:":9090"`
}

// LoadFile reads a YAML configuration file, applies struct-tag defaults to
// unset fields, and returns the equivalent Config. Environment variables
// are not consulted; callers that want env overrides should call
// MergeEnv on the result.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc FileConfig
	if err := defaults.Set(&fc); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := &Config{
		LeaseName:       fc.LeaseName,
		Namespace:       fc.Namespace,
		RenewalInterval: time.Duration(fc.RenewalIntervalMs) * time.Millisecond,
		LogAtLevel:      fc.LogAtLevel,
		AwaitLeadership: fc.AwaitLeadership,
		KubeConfig:      fc.KubeConfig,
		MetricsAddr:     fc.MetricsAddr,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// MergeEnv overlays any recognized environment variables onto cfg,
// allowing a YAML file to be used as a base with env-var overrides, the
// way Load() builds a config from the environment alone. An unparsable
// LEADER_ELECTION_RENEWAL_INTERVAL_MS leaves RenewalInterval unchanged.
func (c *Config) MergeEnv() {
	if renewalMs, err := getEnvInt("LEADER_ELECTION_RENEWAL_INTERVAL_MS", int(c.RenewalInterval/time.Millisecond)); err == nil {
		c.RenewalInterval = time.Duration(renewalMs) * time.Millisecond
	}
	c.LeaseName = getEnv("LEADER_ELECTION_LEASE_NAME", c.LeaseName)
	c.Namespace = getEnv("LEADER_ELECTION_NAMESPACE", c.Namespace)
	c.LogAtLevel = getEnv("LEADER_ELECTION_LOG_LEVEL", c.LogAtLevel)
	c.KubeConfig = getEnv("KUBECONFIG", c.KubeConfig)
	c.MetricsAddr = getEnv("LEADER_ELECTION_METRICS_ADDR", c.MetricsAddr)
	c.AwaitLeadership = getEnvBool("LEADER_ELECTION_AWAIT_LEADERSHIP", c.AwaitLeadership)
}
