package firewalld

import (
	"fmt"
	"sort"
	"strings"
)

// Optimize reduces an arbitrary multiset of targets into the smallest
// family of single-destination services that together admit exactly the
// same traffic, sharing the template's metadata. It runs the four-phase
// reduction described in the design: coalesce atoms by destination,
// coalesce destinations by atom-set, split by address family, then emit.
//
// The result is deterministic given the total orders on Prefix, Atom, and
// Target: the same (template, targets) always produces the same
// ServiceSet.
func Optimize(template Service, targets []Target) (*ServiceSet, error) {
	byDest := phase1CoalesceAtomsByDestination(targets)
	groups := phase2CoalesceDestinationsByAtomSet(byDest)
	sort.Slice(groups, func(i, j int) bool {
		return compareAtomSlices(groups[i].atoms, groups[j].atoms) < 0
	})

	var emitted []Service
	for _, g := range groups {
		d4, d6 := phase3SplitByFamily(g.dests)
		services, err := phase4EmitServices(template, g.atoms, d4, d6)
		if err != nil {
			return nil, err
		}
		emitted = append(emitted, services...)
	}

	named, err := applyNames(template, emitted)
	if err != nil {
		return nil, err
	}

	return &ServiceSet{Template: template, Services: named}, nil
}

// Reoptimize re-runs the optimizer over ss's own current targets and
// returns ss unchanged (the same instance) if the result is equal,
// otherwise a freshly optimized ServiceSet. This is the idempotence
// contract: Reoptimize(Reoptimize(ss)) == Reoptimize(ss), and the second
// call returns the identical instance.
func Reoptimize(ss *ServiceSet) (*ServiceSet, error) {
	targets, err := ss.Targets()
	if err != nil {
		return nil, err
	}
	next, err := Optimize(ss.Template, targets)
	if err != nil {
		return nil, err
	}
	if next.Equal(ss) {
		return ss, nil
	}
	return next, nil
}

// --- Phase 1: coalesce atoms by destination ---

func phase1CoalesceAtomsByDestination(targets []Target) map[Prefix][]Atom {
	queue := append([]Target(nil), targets...)
	byDest := map[Prefix][]Atom{}

	for len(queue) > 0 {
		idx := indexOfMinTarget(queue)
		t := queue[idx]
		queue = append(queue[:idx], queue[idx+1:]...)

		atoms := byDest[t.Dest]
		merged := t.Atom
		remaining := make([]Atom, 0, len(atoms))
		coalesced := false
		for _, a := range atoms {
			if c, ok := merged.Coalesce(a); ok {
				merged = c
				coalesced = true
				continue
			}
			remaining = append(remaining, a)
		}
		if coalesced {
			byDest[t.Dest] = remaining
			queue = append(queue, Target{Dest: t.Dest, Atom: merged})
			continue
		}
		byDest[t.Dest] = insertAtomSorted(atoms, merged)
	}

	return byDest
}

func indexOfMinTarget(targets []Target) int {
	min := 0
	for i := 1; i < len(targets); i++ {
		if targets[i].Compare(targets[min]) < 0 {
			min = i
		}
	}
	return min
}

func insertAtomSorted(atoms []Atom, a Atom) []Atom {
	idx := len(atoms)
	for i, existing := range atoms {
		if a.Compare(existing) < 0 {
			idx = i
			break
		}
	}
	out := make([]Atom, 0, len(atoms)+1)
	out = append(out, atoms[:idx]...)
	out = append(out, a)
	out = append(out, atoms[idx:]...)
	return out
}

// --- Phase 2: coalesce destinations by atom-set ---

type atomSetGroup struct {
	atoms []Atom
	dests []Prefix
}

func phase2CoalesceDestinationsByAtomSet(byDest map[Prefix][]Atom) []atomSetGroup {
	type queueEntry struct {
		atoms []Atom
		dest  Prefix
	}

	dests := make([]Prefix, 0, len(byDest))
	for d := range byDest {
		dests = append(dests, d)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i].Compare(dests[j]) < 0 })

	var queue []queueEntry
	for _, d := range dests {
		queue = append(queue, queueEntry{atoms: byDest[d], dest: d})
	}

	groupsByKey := map[string]*atomSetGroup{}
	var order []string

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		key := atomSetKey(e.atoms)
		g, ok := groupsByKey[key]
		if !ok {
			g = &atomSetGroup{atoms: e.atoms}
			groupsByKey[key] = g
			order = append(order, key)
		}

		merged := false
		for i, d2 := range g.dests {
			if c, ok := d2.Coalesce(e.dest); ok {
				g.dests = append(g.dests[:i], g.dests[i+1:]...)
				queue = append(queue, queueEntry{atoms: e.atoms, dest: c})
				merged = true
				break
			}
		}
		if !merged {
			g.dests = append(g.dests, e.dest)
		}
	}

	out := make([]atomSetGroup, 0, len(order))
	for _, key := range order {
		g := groupsByKey[key]
		if len(g.dests) == 0 {
			continue
		}
		out = append(out, *g)
	}
	return out
}

// atomSetKey renders an atom set as a stable map key. It is used only to
// group equal atom sets and is never observable by callers.
func atomSetKey(atoms []Atom) string {
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		parts[i] = a.String()
	}
	return strings.Join(parts, "|")
}

// compareAtomSlices implements the total order Optimize uses to sort the
// phase-2 groups, which fixes the emission order of phase 4:
// pairwise compare atoms in sorted order; the first unequal pair decides;
// if one sequence is a prefix of the other, the shorter comes first.
func compareAtomSlices(a, b []Atom) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// --- Phase 3: split destinations by address family ---

func phase3SplitByFamily(dests []Prefix) (ipv4, ipv6 []Prefix) {
	for _, d := range dests {
		if d.IsIPv4() {
			ipv4 = append(ipv4, d)
		} else {
			ipv6 = append(ipv6, d)
		}
	}
	sort.Slice(ipv4, func(i, j int) bool { return ipv4[i].Compare(ipv4[j]) < 0 })
	sort.Slice(ipv6, func(i, j int) bool { return ipv6[i].Compare(ipv6[j]) < 0 })
	return ipv4, ipv6
}

// --- Phase 4: emit services ---

func phase4EmitServices(template Service, atoms []Atom, d4, d6 []Prefix) ([]Service, error) {
	var ports []PortRange
	var protocols []Protocol
	for _, a := range atoms {
		if r, ok := a.PortRange(); ok {
			ports = append(ports, r)
		} else {
			protocols = append(protocols, a.Protocol())
		}
	}

	n := len(d4)
	if len(d6) > n {
		n = len(d6)
	}
	if n == 0 {
		return nil, nil
	}

	services := make([]Service, 0, n)
	for i := 0; i < n; i++ {
		svc := Service{
			Version:     template.Version,
			ShortName:   template.ShortName,
			Description: template.Description,
			Ports:       ports,
			Protocols:   protocols,
			SourcePorts: template.SourcePorts,
			Modules:     template.Modules,
		}
		if i < len(d4) {
			d := d4[i]
			svc.DestinationIPv4 = &d
		}
		if i < len(d6) {
			d := d6[i]
			svc.DestinationIPv6 = &d
		}
		services = append(services, svc)
	}
	return services, nil
}

// applyNames assigns the ServiceSet naming convention across the entire
// emitted sequence: the first service overall takes the template's own
// name and short name; subsequent services are numbered.
func applyNames(template Service, services []Service) ([]Service, error) {
	named := make([]Service, len(services))
	for i := range services {
		svc := services[i]
		k := i + 1
		if k == 1 {
			svc.Name = template.Name
			svc.ShortName = template.ShortName
		} else {
			svc.Name = fmt.Sprintf("%s-%d", template.Name, k)
			if template.ShortName != "" {
				svc.ShortName = fmt.Sprintf("%s #%d", template.ShortName, k)
			}
		}
		built, err := NewService(svc)
		if err != nil {
			return nil, err
		}
		named[i] = built
	}
	return named, nil
}
