package driver

import (
	"testing"

	"github.com/containerd/containerd"
	"github.com/stretchr/testify/assert"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   containerd.ProcessStatus
		exitCode uint32
		want     InstanceStatus
	}{
		{name: "running", status: containerd.Running, want: InstanceRunning},
		{name: "paused", status: containerd.Paused, want: InstanceStopped},
		{name: "pausing", status: containerd.Pausing, want: InstanceStopped},
		{name: "stopped clean", status: containerd.Stopped, exitCode: 0, want: InstanceTerminated},
		{name: "stopped with error", status: containerd.Stopped, exitCode: 1, want: InstanceFailed},
		{name: "created", status: containerd.Created, want: InstanceProvisioning},
		{name: "unknown", status: containerd.Unknown, want: InstanceFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapStatus(tt.status, tt.exitCode))
		})
	}
}

func TestEnvList(t *testing.T) {
	env := map[string]string{
		"WORKER_ID":               "w1",
		"HODEI_ORCHESTRATOR_HOST": "host.internal",
	}
	assert.Equal(t, []string{"HODEI_ORCHESTRATOR_HOST=host.internal", "WORKER_ID=w1"}, envList(env))
	assert.Empty(t, envList(nil))
}

func TestAvailableInstanceTypes(t *testing.T) {
	d := &ContainerdDriver{}
	tiers := d.AvailableInstanceTypes("pool-1")
	assert.Len(t, tiers, 5)
	assert.Equal(t, int64(1000), tiers[0].CPUMillis)
	assert.Equal(t, int64(2<<30), tiers[0].MemoryBytes)
	assert.Equal(t, int64(8000), tiers[3].CPUMillis)
	assert.Equal(t, "custom", tiers[4].Name)
}
