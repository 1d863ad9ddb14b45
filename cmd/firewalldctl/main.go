// Command firewalldctl reduces a desired set of network targets into an
// optimal firewalld service family and reconciles it against the live
// firewall-cmd configuration, in every zone named in the targets file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aoindustries/firewalldctl/internal/firewalld"
	"github.com/aoindustries/firewalldctl/internal/firewalld/firewalldcfg"
	"github.com/aoindustries/firewalldctl/internal/firewalld/firewalldlog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "commit":
		err = runCommit(os.Args[2:])
	case "list-zones":
		err = runListZones(os.Args[2:])
	case "check-conflicts":
		err = runCheckConflicts(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "firewalldctl: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: firewalldctl <command> [flags]

commands:
  commit --targets <file.json>   optimize and commit a desired target set
  list-zones                     print firewall-cmd's current zone/service state
  check-conflicts <template...>  fail if any template has a system-dir override`)
}

func loadConfig(path string) (firewalldcfg.Config, error) {
	if path == "" {
		return firewalldcfg.Default(), nil
	}
	return firewalldcfg.Load(path)
}

// targetFile is the on-disk shape of the --targets argument to "commit": a
// set of active zone names plus one or more service sets, each built from a
// template and a desired target list. Every set's union of services is
// installed into every named zone.
type targetFile struct {
	Zones []string          `json:"zones"`
	Sets  []templateTargets `json:"sets"`
}

type templateTargets struct {
	Template string       `json:"template"`
	Targets  []targetSpec `json:"targets"`
}

type targetSpec struct {
	Dest     string `json:"dest"`
	Protocol string `json:"protocol"`
	From     uint16 `json:"from"`
	To       uint16 `json:"to"`
}

func (t targetSpec) toTarget() (firewalld.Target, error) {
	dest, err := firewalld.ParsePrefix(t.Dest)
	if err != nil {
		return firewalld.Target{}, err
	}
	proto, err := firewalld.ParseProtocol(t.Protocol)
	if err != nil {
		return firewalld.Target{}, err
	}
	if t.From == 0 && t.To == 0 {
		return firewalld.NewTarget(dest, firewalld.OfProtocol(proto)), nil
	}
	r, err := firewalld.NewPortRange(t.From, t.To, proto)
	if err != nil {
		return firewalld.Target{}, err
	}
	return firewalld.NewTarget(dest, firewalld.OfPortRange(r)), nil
}

func runCommit(args []string) error {
	fs := flag.NewFlagSet("commit", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the firewalldctl HCL config")
	targetsPath := fs.String("targets", "", "path to a JSON file describing desired zones/targets")
	fs.Parse(args)

	if *targetsPath == "" {
		return errors.New("commit requires --targets")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(*targetsPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *targetsPath, err)
	}
	var doc targetFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", *targetsPath, err)
	}

	if len(doc.Zones) == 0 {
		return errors.New("commit requires at least one zone")
	}

	osfs := firewalld.OSFileSystem{}
	loader := firewalld.NewServiceLoader(osfs)

	sets := make([]*firewalld.ServiceSet, 0, len(doc.Sets))
	templateNames := make([]string, 0, len(doc.Sets))
	for _, set := range doc.Sets {
		template, err := loadTemplate(loader, cfg, set.Template)
		if err != nil {
			return fmt.Errorf("loading template %q: %w", set.Template, err)
		}
		templateNames = append(templateNames, set.Template)

		targets := make([]firewalld.Target, 0, len(set.Targets))
		for _, spec := range set.Targets {
			target, err := spec.toTarget()
			if err != nil {
				return fmt.Errorf("template %q: %w", set.Template, err)
			}
			targets = append(targets, target)
		}

		ss, err := firewalld.Optimize(template, targets)
		if err != nil {
			return fmt.Errorf("template %q: optimizing: %w", set.Template, err)
		}
		sets = append(sets, ss)
	}

	if err := firewalld.CheckSystemConflicts(osfs, cfg.SystemDir, templateNames); err != nil {
		return err
	}

	lock, err := firewalld.LockDir(cfg.LocalDir)
	if err != nil {
		return fmt.Errorf("acquiring local directory lock: %w", err)
	}
	defer lock.Unlock()

	sync := firewalld.NewSynchronizer(firewalld.NewCmdFirewall(cfg.FirewallCmdPath), osfs, cfg.SystemDir, cfg.LocalDir)
	sync.Log = firewalldlog.Default().WithComponent("sync")
	sync.Metrics = firewalld.NewMetrics(prometheus.DefaultRegisterer)

	return sync.Commit(context.Background(), sets, doc.Zones)
}

// loadTemplate reads a named service document, preferring a local override
// over the system-provided default, matching the external interface
// contract's resolution order.
func loadTemplate(loader *firewalld.ServiceLoader, cfg firewalldcfg.Config, name string) (firewalld.Service, error) {
	localPath := filepath.Join(cfg.LocalDir, name+".xml")
	svc, err := loader.Load(localPath, name)
	if err == nil {
		return svc, nil
	}
	if !errors.Is(err, firewalld.ErrNotFound) {
		return firewalld.Service{}, err
	}
	systemPath := filepath.Join(cfg.SystemDir, name+".xml")
	return loader.Load(systemPath, name)
}

func runListZones(args []string) error {
	fs := flag.NewFlagSet("list-zones", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the firewalldctl HCL config")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	fw := firewalld.NewCmdFirewall(cfg.FirewallCmdPath)
	zones, err := fw.ListZones(context.Background())
	if err != nil {
		return err
	}
	for _, z := range zones {
		active := ""
		if z.Active {
			active = " (active)"
		}
		fmt.Printf("%s%s: %v\n", z.Zone, active, z.Services)
	}
	return nil
}

func runCheckConflicts(args []string) error {
	fs := flag.NewFlagSet("check-conflicts", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the firewalldctl HCL config")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("check-conflicts requires at least one template name")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	return firewalld.CheckSystemConflicts(firewalld.OSFileSystem{}, cfg.SystemDir, fs.Args())
}
