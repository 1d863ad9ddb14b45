package firewalld

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseZoneListingParsesZonesAndServices(t *testing.T) {
	out := `public (active)
  target: default
  services: ssh dhcpv6-client
  ports:

work
  target: default
  services:
`
	zones := ParseZoneListing(out)
	require.Len(t, zones, 2)

	assert.Equal(t, "public", zones[0].Zone)
	assert.True(t, zones[0].Active)
	assert.Equal(t, []string{"ssh", "dhcpv6-client"}, zones[0].Services)

	assert.Equal(t, "work", zones[1].Zone)
	assert.False(t, zones[1].Active)
	assert.Empty(t, zones[1].Services)
}

func TestParseZoneListingIgnoresUnrelatedIndentedLines(t *testing.T) {
	out := `public
  target: default
  icmp-block-inversion: no
  services: ssh
  ports: 8080/tcp
  masquerade: no
`
	zones := ParseZoneListing(out)
	require.Len(t, zones, 1)
	assert.Equal(t, []string{"ssh"}, zones[0].Services)
}

func TestFakeFirewallAddAndRemoveService(t *testing.T) {
	fw := NewFakeFirewall("public")
	ctx := context.Background()

	require.NoError(t, fw.AddService(ctx, "public", "ssh"))
	zones, err := fw.ListZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, []string{"ssh"}, zones[0].Services)

	require.NoError(t, fw.RemoveService(ctx, "public", "ssh"))
	zones, err = fw.ListZones(ctx)
	require.NoError(t, err)
	assert.Empty(t, zones[0].Services)
}

func TestFakeFirewallReloadCountsCalls(t *testing.T) {
	fw := NewFakeFirewall("public")
	ctx := context.Background()
	require.NoError(t, fw.Reload(ctx))
	require.NoError(t, fw.Reload(ctx))
	assert.Equal(t, 2, fw.ReloadCount)
}

func TestFakeFirewallFailNextInjectsOneError(t *testing.T) {
	fw := NewFakeFirewall("public")
	ctx := context.Background()
	boom := newError(KindExternalFailure, "boom")
	fw.FailNext = boom

	err := fw.AddService(ctx, "public", "ssh")
	assert.ErrorIs(t, err, boom)

	// The injected failure is one-shot: the next call succeeds.
	require.NoError(t, fw.AddService(ctx, "public", "ssh"))
}

func TestCmdFirewallAddServiceRejectsBadIdentifierBeforeExec(t *testing.T) {
	f := NewCmdFirewall("/nonexistent/firewall-cmd")
	err := f.AddService(context.Background(), "public; rm -rf /", "ssh")
	assert.ErrorIs(t, err, ErrInvalidArgument, "validation must reject the zone before exec is attempted")
}

func TestNewCmdFirewallDefaultsPath(t *testing.T) {
	f := NewCmdFirewall("")
	assert.Equal(t, "/usr/bin/firewall-cmd", f.Path)

	f2 := NewCmdFirewall("/opt/bin/firewall-cmd")
	assert.Equal(t, "/opt/bin/firewall-cmd", f2.Path)
}
