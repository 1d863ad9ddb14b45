package firewalld

import (
	"fmt"
	"net/netip"
	"strings"
)

// Prefix is a network prefix: an address plus a prefix length, always kept
// in normalized form (host bits zeroed).
type Prefix struct {
	np netip.Prefix
}

// UnspecifiedIPv4 and UnspecifiedIPv6 are the per-family wildcards, the top
// of each family's containment lattice.
var (
	UnspecifiedIPv4 = Prefix{np: netip.MustParsePrefix("0.0.0.0/0")}
	UnspecifiedIPv6 = Prefix{np: netip.MustParsePrefix("::/0")}
)

// ParsePrefix accepts a bare address (treated as a full-length host prefix),
// an "address/prefix" CIDR, or the bare-family wildcards "0.0.0.0/0" and
// "::/0". It fails with InvalidPrefix otherwise.
func ParsePrefix(s string) (Prefix, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Prefix{}, wrapError(KindInvalidPrefix, "empty prefix", nil)
	}
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return Prefix{}, wrapError(KindInvalidPrefix, fmt.Sprintf("invalid prefix %q", s), err)
		}
		return Prefix{np: p}.Normalize(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return Prefix{}, wrapError(KindInvalidPrefix, fmt.Sprintf("invalid address %q", s), err)
	}
	bits := 32
	if addr.Is6() {
		bits = 128
	}
	return Prefix{np: netip.PrefixFrom(addr, bits)}, nil
}

// MustParsePrefix is ParsePrefix, panicking on error. Intended for
// package-level constants and tests.
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PrefixFromAddr builds a normalized prefix from a netip.Addr and length.
func PrefixFromAddr(addr netip.Addr, bits int) (Prefix, error) {
	if bits < 0 || bits > addr.BitLen() {
		return Prefix{}, wrapError(KindInvalidPrefix,
			fmt.Sprintf("invalid prefix length %d for %s", bits, addr), nil)
	}
	return Prefix{np: netip.PrefixFrom(addr, bits)}.Normalize(), nil
}

// IsValid reports whether this Prefix was constructed successfully.
func (p Prefix) IsValid() bool {
	return p.np.IsValid()
}

// Addr returns the prefix's (normalized) network address.
func (p Prefix) Addr() netip.Addr {
	return p.np.Addr()
}

// Bits returns the prefix length.
func (p Prefix) Bits() int {
	return p.np.Bits()
}

// IsIPv4 reports whether this prefix belongs to the IPv4 family.
func (p Prefix) IsIPv4() bool {
	return p.np.Addr().Is4()
}

// IsIPv6 reports whether this prefix belongs to the IPv6 family.
func (p Prefix) IsIPv6() bool {
	return p.np.Addr().Is6()
}

// IsUnspecified reports whether this prefix is the per-family wildcard.
func (p Prefix) IsUnspecified() bool {
	return p == UnspecifiedIPv4 || p == UnspecifiedIPv6
}

// Normalize zeros host bits. Idempotent.
func (p Prefix) Normalize() Prefix {
	return Prefix{np: p.np.Masked()}
}

// Contains reports whether other belongs to the same family, is at least as
// specific (other.Bits() >= p.Bits()), and falls within p's network.
func (p Prefix) Contains(other Prefix) bool {
	if p.np.Addr().Is4() != other.np.Addr().Is4() {
		return false
	}
	if p.Bits() > other.Bits() {
		return false
	}
	return p.np.Contains(other.np.Addr())
}

// Coalesce returns the smallest common enclosing prefix iff one contains
// the other, or iff the two are sibling halves of a common
// (prefix_length-1) parent; otherwise it returns (zero, false). Prefixes of
// different families never coalesce.
func (p Prefix) Coalesce(other Prefix) (Prefix, bool) {
	if p.IsIPv4() != other.IsIPv4() {
		return Prefix{}, false
	}
	if p.Contains(other) {
		return p, true
	}
	if other.Contains(p) {
		return other, true
	}
	if p.Bits() != other.Bits() || p.Bits() == 0 {
		return Prefix{}, false
	}
	parent, err := PrefixFromAddr(p.Addr(), p.Bits()-1)
	if err != nil {
		return Prefix{}, false
	}
	if parent.Contains(p) && parent.Contains(other) {
		return parent, true
	}
	return Prefix{}, false
}

// Compare orders prefixes first by family (IPv4 before IPv6), then by
// numeric address, then by prefix length ascending.
func (p Prefix) Compare(other Prefix) int {
	if c := p.np.Addr().Compare(other.np.Addr()); c != 0 {
		return c
	}
	switch {
	case p.Bits() < other.Bits():
		return -1
	case p.Bits() > other.Bits():
		return 1
	default:
		return 0
	}
}

// String renders the canonical "address/length" form.
func (p Prefix) String() string {
	return p.np.String()
}
