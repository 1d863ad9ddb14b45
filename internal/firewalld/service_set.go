package firewalld

import (
	"fmt"
	"sort"
)

// ServiceSet is a template Service plus the family of Services that
// together implement a desired multi-destination policy under the naming
// convention `template`, `template-2`, `template-3`, ...
//
// Template metadata (Name, Version, ShortName, Description, SourcePorts,
// Modules) is carried into every emitted Service; the template's own ports,
// protocols, and destinations are not reused. Two service sets are equal
// iff their Services are equal; the template is excluded from equality.
type ServiceSet struct {
	Template Service
	Services []Service
}

// Targets returns the union of every member service's target set. A member
// service that fails its own target expansion is an Assertion, not a value
// to silently drop: it means this ServiceSet is no longer internally valid.
func (ss *ServiceSet) Targets() ([]Target, error) {
	var all []Target
	for _, svc := range ss.Services {
		targets, err := svc.Targets()
		if err != nil {
			return nil, wrapError(KindAssertion, fmt.Sprintf("service %q failed target expansion", svc.Name), err)
		}
		all = append(all, targets...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Compare(all[j]) < 0 })
	var out []Target
	for i, t := range all {
		if i == 0 || !t.Equal(all[i-1]) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Equal reports whether two service sets have equal member Services,
// regardless of order and ignoring the template.
func (ss *ServiceSet) Equal(other *ServiceSet) bool {
	if ss == other {
		return true
	}
	if ss == nil || other == nil {
		return false
	}
	if len(ss.Services) != len(other.Services) {
		return false
	}
	used := make([]bool, len(other.Services))
	for _, a := range ss.Services {
		matched := false
		for j, b := range other.Services {
			if used[j] {
				continue
			}
			if a.Equal(b) {
				used[j] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// ServiceNames returns the names of every member service, in order.
func (ss *ServiceSet) ServiceNames() []string {
	names := make([]string, len(ss.Services))
	for i, s := range ss.Services {
		names[i] = s.Name
	}
	return names
}
