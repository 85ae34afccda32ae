package util

import (
	"os"
	"strings"
)

// Paths are variables so tests can point them at fixtures
var (
	dockerEnvPath = "/.dockerenv"
	cgroupPath    = "/proc/1/cgroup"
)

// IsRunningInDocker reports whether the process looks containerized. Newer
// runtimes don't always create /.dockerenv, so the init cgroup is checked too
func IsRunningInDocker() bool {
	if _, err := os.Stat(dockerEnvPath); err == nil {
		return true
	}

	data, err := os.ReadFile(cgroupPath)
	if err != nil {
		return false
	}

	s := string(data)
	return strings.Contains(s, "docker") || strings.Contains(s, "containerd") || strings.Contains(s, "kubepods")
}
