package firewalld

import (
	"fmt"
	"sort"
)

// Service is one firewalld-level service record: metadata plus the ports,
// bare protocols, kernel modules, and up to two (one per family)
// destinations it applies to.
type Service struct {
	Name        string
	Version     string
	ShortName   string
	Description string

	Ports        []PortRange // destination ports admitted by this service
	Protocols    []Protocol  // bare protocols admitted by this service
	SourcePorts  []PortRange // client-side ports, carried through untouched
	Modules      []string    // helper kernel modules

	DestinationIPv4 *Prefix
	DestinationIPv6 *Prefix
}

// NewService validates and constructs a Service. Port range and source
// port slices are copied; duplicate ports/protocols/modules are rejected
// with InvalidArgument.
func NewService(s Service) (Service, error) {
	if s.Name == "" {
		return Service{}, wrapError(KindInvalidArgument, "service name must not be empty", nil)
	}
	if len(s.Ports) == 0 && len(s.Protocols) == 0 && len(s.Modules) == 0 {
		return Service{}, wrapError(KindInvalidArgument,
			"service must have at least one of ports, protocols, or modules", nil)
	}
	if s.DestinationIPv4 == nil && s.DestinationIPv6 == nil {
		return Service{}, wrapError(KindInvalidArgument,
			"service must have at least one destination", nil)
	}
	if s.DestinationIPv4 != nil && !s.DestinationIPv4.IsIPv4() {
		return Service{}, wrapError(KindInvalidPrefix, "destination_ipv4 is not an IPv4 prefix", nil)
	}
	if s.DestinationIPv6 != nil && !s.DestinationIPv6.IsIPv6() {
		return Service{}, wrapError(KindInvalidPrefix, "destination_ipv6 is not an IPv6 prefix", nil)
	}

	out := s
	out.Ports = append([]PortRange(nil), s.Ports...)
	out.Protocols = append([]Protocol(nil), s.Protocols...)
	out.SourcePorts = append([]PortRange(nil), s.SourcePorts...)
	out.Modules = append([]string(nil), s.Modules...)

	if err := checkNoDuplicatePorts(out.Ports); err != nil {
		return Service{}, err
	}
	if err := checkNoDuplicatePorts(out.SourcePorts); err != nil {
		return Service{}, err
	}
	seenProto := map[Protocol]bool{}
	for _, p := range out.Protocols {
		if seenProto[p] {
			return Service{}, wrapError(KindInvalidArgument, fmt.Sprintf("duplicate protocol %s", p), nil)
		}
		seenProto[p] = true
	}
	seenMod := map[string]bool{}
	for _, m := range out.Modules {
		if seenMod[m] {
			return Service{}, wrapError(KindInvalidArgument, fmt.Sprintf("duplicate module %s", m), nil)
		}
		seenMod[m] = true
	}

	if _, err := out.Targets(); err != nil {
		return Service{}, err
	}

	if out.DestinationIPv4 != nil {
		n := out.DestinationIPv4.Normalize()
		out.DestinationIPv4 = &n
	}
	if out.DestinationIPv6 != nil {
		n := out.DestinationIPv6.Normalize()
		out.DestinationIPv6 = &n
	}

	return out, nil
}

func checkNoDuplicatePorts(ranges []PortRange) error {
	seen := map[PortRange]bool{}
	for _, r := range ranges {
		if seen[r] {
			return wrapError(KindInvalidArgument, fmt.Sprintf("duplicate port entry %s/%s", r.Proto, r), nil)
		}
		seen[r] = true
	}
	return nil
}

// atoms returns the service's ports and protocols as a sorted atom list.
// Duplicates are kept, so Targets can report them.
func (s Service) atoms() []Atom {
	atoms := make([]Atom, 0, len(s.Ports)+len(s.Protocols))
	for _, r := range s.Ports {
		atoms = append(atoms, OfPortRange(r))
	}
	for _, p := range s.Protocols {
		atoms = append(atoms, OfProtocol(p))
	}
	sort.Slice(atoms, func(i, j int) bool { return atoms[i].Compare(atoms[j]) < 0 })
	return atoms
}

func (s Service) destinations() []Prefix {
	var out []Prefix
	if s.DestinationIPv4 != nil {
		out = append(out, *s.DestinationIPv4)
	}
	if s.DestinationIPv6 != nil {
		out = append(out, *s.DestinationIPv6)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// Targets returns the derived target set: the Cartesian product of each
// port-range/bare-protocol atom with each non-null destination, in total
// order. A modules-only service produces an empty target set. Duplicate
// targets are an Assertion failure, never expected in practice.
func (s Service) Targets() ([]Target, error) {
	atoms := s.atoms()
	dests := s.destinations()

	targets := make([]Target, 0, len(atoms)*len(dests))
	for _, d := range dests {
		for _, a := range atoms {
			targets = append(targets, NewTarget(d, a))
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Compare(targets[j]) < 0 })

	for i := 1; i < len(targets); i++ {
		if targets[i].Equal(targets[i-1]) {
			return nil, wrapError(KindAssertion, "duplicate target produced by service", nil)
		}
	}
	return targets, nil
}

// Family reports whether a service is IPv4-only, IPv6-only, or dual-stack.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
	FamilyDualStack
)

// Family reports the address family coverage of this service's destinations.
func (s Service) Family() Family {
	switch {
	case s.DestinationIPv4 != nil && s.DestinationIPv6 != nil:
		return FamilyDualStack
	case s.DestinationIPv6 != nil:
		return FamilyIPv6
	default:
		return FamilyIPv4
	}
}

// Equal reports structural equality. Ordered sets (ports, protocols,
// source ports, modules) compare by membership, not by order.
func (s Service) Equal(other Service) bool {
	if s.Name != other.Name || s.Version != other.Version ||
		s.ShortName != other.ShortName || s.Description != other.Description {
		return false
	}
	if !portSetEqual(s.Ports, other.Ports) || !portSetEqual(s.SourcePorts, other.SourcePorts) {
		return false
	}
	if !protocolSetEqual(s.Protocols, other.Protocols) {
		return false
	}
	if !stringSetEqual(s.Modules, other.Modules) {
		return false
	}
	if !prefixPtrEqual(s.DestinationIPv4, other.DestinationIPv4) {
		return false
	}
	if !prefixPtrEqual(s.DestinationIPv6, other.DestinationIPv6) {
		return false
	}
	return true
}

func portSetEqual(a, b []PortRange) bool {
	if len(a) != len(b) {
		return false
	}
	am := map[PortRange]bool{}
	for _, r := range a {
		am[r] = true
	}
	for _, r := range b {
		if !am[r] {
			return false
		}
	}
	return true
}

func protocolSetEqual(a, b []Protocol) bool {
	if len(a) != len(b) {
		return false
	}
	am := map[Protocol]bool{}
	for _, p := range a {
		am[p] = true
	}
	for _, p := range b {
		if !am[p] {
			return false
		}
	}
	return true
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	am := map[string]bool{}
	for _, s := range a {
		am[s] = true
	}
	for _, s := range b {
		if !am[s] {
			return false
		}
	}
	return true
}

func prefixPtrEqual(a, b *Prefix) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
