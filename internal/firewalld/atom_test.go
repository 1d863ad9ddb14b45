package firewalld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomOfProtocolIsBare(t *testing.T) {
	a := OfProtocol(ProtocolESP)
	assert.True(t, a.IsBare())
	_, ok := a.PortRange()
	assert.False(t, ok)
	assert.Equal(t, ProtocolESP, a.Protocol())
}

func TestAtomOfPortRangeIsNotBare(t *testing.T) {
	r := mustPortRange(t, 22, 23, ProtocolTCP)
	a := OfPortRange(r)
	assert.False(t, a.IsBare())
	got, ok := a.PortRange()
	require.True(t, ok)
	assert.Equal(t, r, got)
}

func TestAtomCoalesceDifferentProtocolsNone(t *testing.T) {
	a := OfProtocol(ProtocolTCP)
	b := OfProtocol(ProtocolUDP)
	_, ok := a.Coalesce(b)
	assert.False(t, ok)
}

func TestAtomCoalesceBareAbsorbsPortRanged(t *testing.T) {
	bare := OfProtocol(ProtocolTCP)
	ranged := OfPortRange(mustPortRange(t, 22, 23, ProtocolTCP))

	merged, ok := bare.Coalesce(ranged)
	require.True(t, ok)
	assert.True(t, merged.IsBare())

	merged, ok = ranged.Coalesce(bare)
	require.True(t, ok)
	assert.True(t, merged.IsBare())
}

func TestAtomCoalesceBothPortRanged(t *testing.T) {
	a := OfPortRange(mustPortRange(t, 1, 5, ProtocolTCP))
	b := OfPortRange(mustPortRange(t, 6, 10, ProtocolTCP))
	merged, ok := a.Coalesce(b)
	require.True(t, ok)
	want := OfPortRange(mustPortRange(t, 1, 10, ProtocolTCP))
	assert.True(t, merged.Equal(want))
}

func TestAtomCompareOrdersPortRangedBeforeBare(t *testing.T) {
	ranged := OfPortRange(mustPortRange(t, 22, 23, ProtocolTCP))
	bare := OfProtocol(ProtocolTCP)
	assert.Negative(t, ranged.Compare(bare))
	assert.Positive(t, bare.Compare(ranged))
}

func TestAtomCoalesceReflexive(t *testing.T) {
	a := OfPortRange(mustPortRange(t, 22, 23, ProtocolTCP))
	merged, ok := a.Coalesce(a)
	require.True(t, ok)
	assert.True(t, merged.Equal(a))

	bare := OfProtocol(ProtocolESP)
	merged, ok = bare.Coalesce(bare)
	require.True(t, ok)
	assert.True(t, merged.Equal(bare))
}
