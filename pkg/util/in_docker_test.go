package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRunningInDocker(t *testing.T) {
	dir := t.TempDir()

	oldEnv, oldCgroup := dockerEnvPath, cgroupPath
	t.Cleanup(func() { dockerEnvPath, cgroupPath = oldEnv, oldCgroup })

	dockerEnvPath = filepath.Join(dir, "dockerenv")
	cgroupPath = filepath.Join(dir, "cgroup")

	assert.False(t, IsRunningInDocker())

	require.NoError(t, os.WriteFile(cgroupPath, []byte("0::/init.scope\n"), 0o600))
	assert.False(t, IsRunningInDocker())

	require.NoError(t, os.WriteFile(cgroupPath, []byte("0::/system.slice/docker-abc.scope\n"), 0o600))
	assert.True(t, IsRunningInDocker())

	require.NoError(t, os.Remove(cgroupPath))
	require.NoError(t, os.WriteFile(dockerEnvPath, nil, 0o600))
	assert.True(t, IsRunningInDocker())
}
