package firewalld

// Atom is a tagged union of "bare protocol" (all ports of that protocol) and
// "port-range" (a specific range within a protocol). It is the ports-axis of
// a Target.
type Atom struct {
	proto Protocol
	rng   *PortRange // nil for a bare protocol
}

// OfProtocol constructs an atom meaning "all ports of p".
func OfProtocol(p Protocol) Atom {
	return Atom{proto: p}
}

// OfPortRange constructs an atom meaning "this range, within its own protocol".
func OfPortRange(r PortRange) Atom {
	return Atom{proto: r.Proto, rng: &r}
}

// Protocol returns the atom's protocol.
func (a Atom) Protocol() Protocol {
	return a.proto
}

// PortRange returns the atom's port range and true, or (zero, false) if the
// atom is a bare protocol.
func (a Atom) PortRange() (PortRange, bool) {
	if a.rng == nil {
		return PortRange{}, false
	}
	return *a.rng, true
}

// IsBare reports whether the atom names a bare protocol (no port range).
func (a Atom) IsBare() bool {
	return a.rng == nil
}

// Coalesce implements the §3 atom coalesce rules:
//   - different protocols: none
//   - same protocol, one side bare: the bare atom absorbs the other
//   - both port-ranged: coalesce of the ranges
func (a Atom) Coalesce(other Atom) (Atom, bool) {
	if a.proto != other.proto {
		return Atom{}, false
	}
	if a.IsBare() || other.IsBare() {
		return OfProtocol(a.proto), true
	}
	merged, ok := a.rng.Coalesce(*other.rng)
	if !ok {
		return Atom{}, false
	}
	return OfPortRange(merged), true
}

// Compare orders atoms: port-ranged atoms strictly precede bare-protocol
// atoms; within each variant, by port-range then by protocol.
func (a Atom) Compare(other Atom) int {
	aBare, bBare := a.IsBare(), other.IsBare()
	if aBare != bBare {
		if aBare {
			return 1
		}
		return -1
	}
	if !aBare {
		if c := a.rng.Compare(*other.rng); c != 0 {
			return c
		}
	}
	return a.proto.Compare(other.proto)
}

// String renders a stable textual form, used as the atom-set map key in the
// optimizer's phase 2 and not otherwise observable by callers.
func (a Atom) String() string {
	if a.IsBare() {
		return a.proto.String() + ":*"
	}
	return a.proto.String() + ":" + a.rng.String()
}

// Equal reports structural equality.
func (a Atom) Equal(other Atom) bool {
	if a.proto != other.proto {
		return false
	}
	if a.IsBare() != other.IsBare() {
		return false
	}
	if a.IsBare() {
		return true
	}
	return *a.rng == *other.rng
}
