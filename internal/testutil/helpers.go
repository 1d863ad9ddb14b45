package testutil

import (
	"os"
	"os/exec"
	"testing"
)

// RequireFirewallCmd skips the test unless a real firewall-cmd binary is
// reachable and the FIREWALLD_LIVE_TEST environment variable is set. This
// keeps tests that actually shell out to the host firewall daemon from
// running in ordinary CI.
func RequireFirewallCmd(t *testing.T) {
	t.Helper()
	if os.Getenv("FIREWALLD_LIVE_TEST") == "" {
		t.Skip("skipping test: requires FIREWALLD_LIVE_TEST environment")
	}
	if _, err := exec.LookPath("firewall-cmd"); err != nil {
		t.Skip("skipping test: firewall-cmd not found in PATH")
	}
}
