package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "/var/lib/hodei", cfg.Storage.DataDir)
	assert.Equal(t, "/run/containerd/containerd.sock", cfg.Driver.Socket)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hodei.yaml")
	content := `
server:
  listen_addr: ":7000"
  auth_token: secret
  heartbeat_interval: 30s
storage:
  data_dir: /tmp/hodei-test
orchestrator:
  process_interval: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
	assert.Equal(t, "secret", cfg.Server.AuthToken)
	assert.Equal(t, 30*time.Second, cfg.Server.HeartbeatInterval.Std())
	assert.Equal(t, "/tmp/hodei-test", cfg.Storage.DataDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Orchestrator.ProcessInterval.Std())

	// Untouched keys keep their defaults.
	assert.Equal(t, ":9091", cfg.Server.HealthAddr)
	assert.Equal(t, "/run/containerd/containerd.sock", cfg.Driver.Socket)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hodei.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  data_dir: \"\"\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "data_dir")
}
