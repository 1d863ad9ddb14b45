package firewalld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefixAcceptsAddressCIDRAndWildcards(t *testing.T) {
	cases := []string{"1.2.3.4", "1.2.3.4/24", "0.0.0.0/0", "::/0", "1:2:3:4:5:6:7:8/128"}
	for _, s := range cases {
		p, err := ParsePrefix(s)
		require.NoError(t, err, s)
		assert.True(t, p.IsValid())
	}
}

func TestParsePrefixRejectsGarbage(t *testing.T) {
	_, err := ParsePrefix("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidPrefix)

	_, err = ParsePrefix("")
	assert.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestPrefixNormalizeIdempotent(t *testing.T) {
	p := MustParsePrefix("1.2.3.4/24")
	once := p.Normalize()
	twice := once.Normalize()
	assert.Equal(t, once, twice)
	assert.Equal(t, "1.2.3.0/24", once.String())
}

func TestPrefixContains(t *testing.T) {
	parent := MustParsePrefix("1.2.3.0/24")
	child := MustParsePrefix("1.2.3.4/32")
	assert.True(t, parent.Contains(child))
	assert.False(t, child.Contains(parent))
	assert.True(t, UnspecifiedIPv4.Contains(child))
}

func TestPrefixContainsDifferentFamilyNever(t *testing.T) {
	v4 := MustParsePrefix("1.2.3.0/24")
	v6 := MustParsePrefix("::/0")
	assert.False(t, v4.Contains(v6))
	assert.False(t, v6.Contains(v4))
}

func TestPrefixCoalesceSiblingHalves(t *testing.T) {
	a := MustParsePrefix("1.2.3.4/31")
	b := MustParsePrefix("1.2.3.5/31") // normalizes to 1.2.3.4/31, same prefix
	// Use genuinely distinct siblings: /32 halves of a /31.
	left := MustParsePrefix("1.2.3.4/32")
	right := MustParsePrefix("1.2.3.5/32")
	merged, ok := left.Coalesce(right)
	require.True(t, ok)
	assert.Equal(t, a, merged)
	assert.Equal(t, b, a)
}

func TestPrefixCoalesceContainment(t *testing.T) {
	parent := MustParsePrefix("1.2.3.0/24")
	child := MustParsePrefix("1.2.3.4/32")
	merged, ok := parent.Coalesce(child)
	require.True(t, ok)
	assert.Equal(t, parent, merged)

	merged, ok = child.Coalesce(parent)
	require.True(t, ok)
	assert.Equal(t, parent, merged)
}

func TestPrefixCoalesceDisjointNone(t *testing.T) {
	a := MustParsePrefix("1.2.3.4/32")
	b := MustParsePrefix("9.9.9.9/32")
	_, ok := a.Coalesce(b)
	assert.False(t, ok)
}

func TestPrefixCoalesceDifferentFamilyNever(t *testing.T) {
	a := MustParsePrefix("1.2.3.4/32")
	b := MustParsePrefix("::1/128")
	_, ok := a.Coalesce(b)
	assert.False(t, ok)
}

func TestPrefixCoalesceReflexive(t *testing.T) {
	a := MustParsePrefix("1.2.3.0/24")
	merged, ok := a.Coalesce(a)
	require.True(t, ok)
	assert.Equal(t, a, merged)
}

func TestPrefixOrderingUnspecifiedSortsFirstWithinFamily(t *testing.T) {
	specific := MustParsePrefix("1.2.3.0/24")
	assert.Negative(t, UnspecifiedIPv4.Compare(specific))
	assert.Negative(t, UnspecifiedIPv4.Compare(UnspecifiedIPv6))
}
