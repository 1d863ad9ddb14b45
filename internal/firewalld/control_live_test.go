package firewalld

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aoindustries/firewalldctl/internal/testutil"
)

// TestCmdFirewallListZonesAgainstLiveDaemon exercises CmdFirewall against a
// real firewall-cmd, skipped unless FIREWALLD_LIVE_TEST is set. Run this on a
// host actually running firewalld, as root, with a throwaway configuration.
func TestCmdFirewallListZonesAgainstLiveDaemon(t *testing.T) {
	testutil.RequireFirewallCmd(t)

	fw := NewCmdFirewall("")
	zones, err := fw.ListZones(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, zones, "a running firewalld should report at least one zone")
}
