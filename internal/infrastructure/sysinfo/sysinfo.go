// Package sysinfo describes the host for troubleshooting prompts.
package sysinfo

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Describe returns a short human-readable platform string, e.g.
// "linux (Ubuntu 24.04 LTS)" or "darwin". Used verbatim in prompts.
func Describe() string {
	if pretty := osRelease(); pretty != "" {
		return runtime.GOOS + " (" + pretty + ")"
	}
	return runtime.GOOS
}

// AvailableTools reports which of the given commands resolve on PATH. The
// list gives the model a sense of what the generated command may rely on.
func AvailableTools(candidates ...string) []string {
	var found []string
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			found = append(found, name)
		}
	}
	return found
}

// osRelease extracts PRETTY_NAME from /etc/os-release on Linux.
func osRelease() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if value, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}
