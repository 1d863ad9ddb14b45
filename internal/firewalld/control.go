package firewalld

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aoindustries/firewalldctl/internal/validation"
)

// ZoneState is the set of service names firewalld reports active in one zone.
type ZoneState struct {
	Zone     string
	Active   bool
	Services []string
}

// ExternalFirewall is the control surface the synchronizer drives. The
// production implementation is CmdFirewall; tests use FakeFirewall.
type ExternalFirewall interface {
	ListZones(ctx context.Context) ([]ZoneState, error)
	AddService(ctx context.Context, zone, service string) error
	RemoveService(ctx context.Context, zone, service string) error
	Reload(ctx context.Context) error
}

// CmdFirewall drives firewall-cmd via os/exec. Every invocation is
// permanent-configuration-only; Reload is what activates the result.
type CmdFirewall struct {
	// Path to the firewall-cmd executable, defaulting to /usr/bin/firewall-cmd.
	Path string
}

// NewCmdFirewall returns a CmdFirewall using path, or the default if empty.
func NewCmdFirewall(path string) *CmdFirewall {
	if path == "" {
		path = "/usr/bin/firewall-cmd"
	}
	return &CmdFirewall{Path: path}
}

func (f *CmdFirewall) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, wrapError(KindExternalFailure,
			fmt.Sprintf("%s %s: %s", f.Path, strings.Join(args, " "), strings.TrimSpace(stderr.String())), err)
	}
	return stdout.Bytes(), nil
}

// ListZones runs `--permanent --list-all-zones` and parses the result.
func (f *CmdFirewall) ListZones(ctx context.Context) ([]ZoneState, error) {
	out, err := f.run(ctx, "--permanent", "--list-all-zones")
	if err != nil {
		return nil, err
	}
	return ParseZoneListing(string(out)), nil
}

// AddService runs `--permanent --zone=<z> --add-service=<s>`. zone and
// service are validated as firewalld identifiers first: they ultimately
// come from parsed service names and zone listings, and this keeps a
// malformed one from landing in an argument to the external command.
func (f *CmdFirewall) AddService(ctx context.Context, zone, service string) error {
	if err := validateZoneAndService(zone, service); err != nil {
		return err
	}
	_, err := f.run(ctx, "--permanent", "--zone="+zone, "--add-service="+service)
	return err
}

// RemoveService runs `--permanent --zone=<z> --remove-service=<s>`.
func (f *CmdFirewall) RemoveService(ctx context.Context, zone, service string) error {
	if err := validateZoneAndService(zone, service); err != nil {
		return err
	}
	_, err := f.run(ctx, "--permanent", "--zone="+zone, "--remove-service="+service)
	return err
}

func validateZoneAndService(zone, service string) error {
	if err := validation.ValidateIdentifier(zone); err != nil {
		return wrapError(KindInvalidArgument, fmt.Sprintf("zone %q", zone), err)
	}
	if err := validation.ValidateIdentifier(service); err != nil {
		return wrapError(KindInvalidArgument, fmt.Sprintf("service %q", service), err)
	}
	return nil
}

// Reload runs `--reload`.
func (f *CmdFirewall) Reload(ctx context.Context) error {
	_, err := f.run(ctx, "--reload")
	return err
}

// ParseZoneListing parses the line-oriented output of
// `--permanent --list-all-zones`: zones begin at column 0, optionally
// suffixed " (active)"; an indented "  services:" line enumerates
// space-separated service names for the zone above it.
func ParseZoneListing(out string) []ZoneState {
	var zones []ZoneState
	var cur *ZoneState

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			name := strings.TrimSpace(line)
			active := false
			if strings.HasSuffix(name, " (active)") {
				active = true
				name = strings.TrimSuffix(name, " (active)")
			}
			zones = append(zones, ZoneState{Zone: name, Active: active})
			cur = &zones[len(zones)-1]
			continue
		}
		trimmed := strings.TrimSpace(line)
		if cur == nil || !strings.HasPrefix(trimmed, "services:") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "services:"))
		if rest != "" {
			cur.Services = strings.Fields(rest)
		}
	}
	return zones
}

// FakeFirewall is an in-memory ExternalFirewall double for tests. It is not
// safe for concurrent use.
type FakeFirewall struct {
	Zones       map[string]map[string]bool
	ReloadCount int
	FailNext    error
}

// NewFakeFirewall returns an empty FakeFirewall seeded with zone names.
func NewFakeFirewall(zones ...string) *FakeFirewall {
	f := &FakeFirewall{Zones: map[string]map[string]bool{}}
	for _, z := range zones {
		f.Zones[z] = map[string]bool{}
	}
	return f
}

func (f *FakeFirewall) takeFailure() error {
	if f.FailNext != nil {
		err := f.FailNext
		f.FailNext = nil
		return err
	}
	return nil
}

func (f *FakeFirewall) ListZones(ctx context.Context) ([]ZoneState, error) {
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(f.Zones))
	for z := range f.Zones {
		names = append(names, z)
	}
	sort.Strings(names)
	out := make([]ZoneState, 0, len(names))
	for _, z := range names {
		svcs := make([]string, 0, len(f.Zones[z]))
		for s := range f.Zones[z] {
			svcs = append(svcs, s)
		}
		sort.Strings(svcs)
		out = append(out, ZoneState{Zone: z, Active: true, Services: svcs})
	}
	return out, nil
}

func (f *FakeFirewall) AddService(ctx context.Context, zone, service string) error {
	if err := f.takeFailure(); err != nil {
		return err
	}
	if f.Zones[zone] == nil {
		f.Zones[zone] = map[string]bool{}
	}
	f.Zones[zone][service] = true
	return nil
}

func (f *FakeFirewall) RemoveService(ctx context.Context, zone, service string) error {
	if err := f.takeFailure(); err != nil {
		return err
	}
	delete(f.Zones[zone], service)
	return nil
}

func (f *FakeFirewall) Reload(ctx context.Context) error {
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.ReloadCount++
	return nil
}
