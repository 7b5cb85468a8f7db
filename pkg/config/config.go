// Package config loads the orchestrator's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML strings like "250ms" or "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the orchestrator process configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Driver       DriverConfig       `yaml:"driver"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Monitor      MonitorConfig      `yaml:"monitor"`
	Quota        QuotaConfig        `yaml:"quota"`
	Artifacts    ArtifactConfig     `yaml:"artifacts"`
	Bootstrap    BootstrapConfig    `yaml:"bootstrap"`
}

// ServerConfig covers the gRPC and health listeners. AdvertiseHost is the
// hostname provisioned worker instances use to reach the orchestrator.
type ServerConfig struct {
	ListenAddr        string   `yaml:"listen_addr"`
	HealthAddr        string   `yaml:"health_addr"`
	AdvertiseHost     string   `yaml:"advertise_host"`
	AuthToken         string   `yaml:"auth_token"`
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
}

// StorageConfig locates the embedded database.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// DriverConfig configures the containerd compute driver.
type DriverConfig struct {
	Socket string `yaml:"socket"`
}

// OrchestratorConfig tunes queue processing.
type OrchestratorConfig struct {
	ProcessInterval Duration `yaml:"process_interval"`
}

// MonitorConfig tunes resource sampling.
type MonitorConfig struct {
	Interval Duration `yaml:"interval"`
}

// QuotaConfig tunes usage reconciliation.
type QuotaConfig struct {
	MonitorInterval Duration `yaml:"monitor_interval"`
}

// ArtifactConfig locates the artifact library.
type ArtifactConfig struct {
	Dir string `yaml:"dir"`
}

// BootstrapConfig locates the manifest seeded into the store at startup.
type BootstrapConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:    ":9090",
			HealthAddr:    ":9091",
			AdvertiseHost: "host.docker.internal",
		},
		Storage: StorageConfig{
			DataDir: "/var/lib/hodei",
		},
		Driver: DriverConfig{
			Socket: "/run/containerd/containerd.sock",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path yields the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	return nil
}
