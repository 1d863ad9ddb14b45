package firewalld

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aoindustries/firewalldctl/internal/clock"
	"github.com/aoindustries/firewalldctl/internal/firewalld/firewalldlog"
	"github.com/aoindustries/firewalldctl/internal/validation"
)

// Synchronizer reconciles one or more desired ServiceSets against the
// on-disk local services directory and the live firewall-cmd state. Every
// Commit runs under a single process-wide lock, serializing firewall-cmd
// invocations in commit order.
type Synchronizer struct {
	FW        ExternalFirewall
	FS        ServiceFileSystem
	SystemDir string
	LocalDir  string

	Log     *firewalldlog.Logger
	Metrics *Metrics
}

// commitMu is the process-wide lock every Commit holds, shared by all
// Synchronizer values.
var commitMu sync.Mutex

// NewSynchronizer returns a Synchronizer writing local overrides under
// localDir, reading system-provided defaults from systemDir, and driving
// fw. A nil Log or Metrics disables that concern.
func NewSynchronizer(fw ExternalFirewall, fs ServiceFileSystem, systemDir, localDir string) *Synchronizer {
	return &Synchronizer{FW: fw, FS: fs, SystemDir: systemDir, LocalDir: localDir}
}

// Commit reconciles sets into every zone named in zones: the intersection
// of services present in each of those zones with services managed by any
// input set ends up equal to the union of names declared across all of
// sets, applied identically to every zone. This is the normal way one
// service set activates into several zones at once; the duplicate-template
// check below only rejects two input sets sharing a template, not the same
// set spanning multiple zones. Services not managed by this system are
// never touched, and zones not named in zones are left alone entirely.
//
// The nine steps below run strictly in order; see the ordering guarantees
// this preserves (removals before writes, writes before the first reload,
// the first reload before additions, additions before the second reload).
func (s *Synchronizer) Commit(ctx context.Context, sets []*ServiceSet, zones []string) error {
	commitMu.Lock()
	defer commitMu.Unlock()

	commitID := uuid.New().String()
	start := clock.Now()
	log := s.logger().With("commit_id", commitID)

	err := s.commitLocked(ctx, sets, zones, log)
	s.recordMetrics(err, clock.Since(start))
	return err
}

func (s *Synchronizer) commitLocked(ctx context.Context, sets []*ServiceSet, zones []string, log *firewalldlog.Logger) error {
	// Step 1: refuse duplicate template names across input sets.
	// Step 2: collect the union of service names to install, applied
	// identically to every target zone.
	allTemplates := map[string]bool{}
	desired := map[string]bool{}
	for _, ss := range sets {
		if allTemplates[ss.Template.Name] {
			return wrapError(KindInvalidArgument,
				fmt.Sprintf("template %q used by more than one input service set", ss.Template.Name), nil)
		}
		allTemplates[ss.Template.Name] = true
		for _, name := range ss.ServiceNames() {
			desired[name] = true
		}
	}

	// Step 3: query the external firewall for current per-zone services.
	current, err := s.FW.ListZones(ctx)
	if err != nil {
		log.Error("list zones failed", "error", err)
		return err
	}
	currentByZone := map[string]map[string]bool{}
	for _, z := range current {
		m := map[string]bool{}
		for _, svc := range z.Services {
			m[svc] = true
		}
		currentByZone[z.Zone] = m
	}

	// Step 4: for each target zone, remove services managed by this system
	// that are no longer desired; leave unrelated services alone.
	var toRemove []struct{ zone, service string }
	for _, zone := range zones {
		for svc := range currentByZone[zone] {
			if desired[svc] {
				continue
			}
			if isManagedName(svc, allTemplates) {
				toRemove = append(toRemove, struct{ zone, service string }{zone, svc})
			}
		}
	}
	sort.Slice(toRemove, func(i, j int) bool {
		if toRemove[i].zone != toRemove[j].zone {
			return toRemove[i].zone < toRemove[j].zone
		}
		return toRemove[i].service < toRemove[j].service
	})
	for _, r := range toRemove {
		log.Info("removing service from zone", "zone", r.zone, "service", r.service)
		if err := s.FW.RemoveService(ctx, r.zone, r.service); err != nil {
			return err
		}
	}

	// Step 5: scan the local services directory and delete any no-longer-
	// needed <template>-<k>.xml override file for any input template.
	wantedFiles := map[string]bool{}
	for name := range desired {
		wantedFiles[name+".xml"] = true
	}
	names, err := s.FS.ReadDir(s.LocalDir)
	if err != nil {
		return err
	}
	filesChanged := len(toRemove) > 0
	for _, fname := range names {
		template, k, ok := parseOverrideFileName(fname)
		if !ok || !allTemplates[template] || k < 2 {
			continue
		}
		if wantedFiles[fname] {
			continue
		}
		path := filepath.Join(s.LocalDir, fname)
		log.Info("deleting stale override", "path", path)
		if err := s.FS.Remove(path); err != nil {
			return err
		}
		filesChanged = true
	}

	// Step 6: write or elide each desired service's local file.
	for _, ss := range sets {
		for _, svc := range ss.Services {
			changed, err := s.writeService(svc)
			if err != nil {
				return err
			}
			if changed {
				filesChanged = true
			}
		}
	}

	// Step 7: reload before additions if anything changed on disk or a
	// removal happened, so added services resolve against current defs.
	if filesChanged {
		log.Info("reloading before additions")
		if err := s.FW.Reload(ctx); err != nil {
			return err
		}
	}

	// Step 8: add any missing desired services, to every target zone.
	var toAdd []struct{ zone, service string }
	for _, zone := range zones {
		for svc := range desired {
			if !currentByZone[zone][svc] {
				toAdd = append(toAdd, struct{ zone, service string }{zone, svc})
			}
		}
	}
	sort.Slice(toAdd, func(i, j int) bool {
		if toAdd[i].zone != toAdd[j].zone {
			return toAdd[i].zone < toAdd[j].zone
		}
		return toAdd[i].service < toAdd[j].service
	})
	for _, a := range toAdd {
		log.Info("adding service to zone", "zone", a.zone, "service", a.service)
		if err := s.FW.AddService(ctx, a.zone, a.service); err != nil {
			return err
		}
	}

	// Step 9: reload after additions.
	if len(toAdd) > 0 {
		log.Info("reloading after additions")
		if err := s.FW.Reload(ctx); err != nil {
			return err
		}
	}

	return nil
}

// writeService implements step 6's elide-or-write rule for one service:
// when svc's name equals its template (no "-k" override file) and the
// would-be content exactly equals the system-provided service of that
// name, any local override is deleted so the system file governs;
// otherwise the service is written atomically.
func (s *Synchronizer) writeService(svc Service) (changed bool, err error) {
	path := filepath.Join(s.LocalDir, svc.Name+".xml")
	if err := s.validatePath(path); err != nil {
		return false, err
	}

	var buf strings.Builder
	if err := WriteService(&buf, svc); err != nil {
		return false, err
	}
	data := []byte(buf.String())

	if _, _, isOverride := parseOverrideFileName(svc.Name + ".xml"); !isOverride {
		sysPath := filepath.Join(s.SystemDir, svc.Name+".xml")
		sysData, sysErr := s.FS.ReadFile(sysPath)
		if sysErr == nil && string(sysData) == string(data) {
			_, statErr := s.FS.Stat(path)
			hadOverride := statErr == nil
			if err := s.FS.Remove(path); err != nil {
				return false, err
			}
			return hadOverride, nil
		}
	}

	existing, err := s.FS.ReadFile(path)
	if err == nil && string(existing) == string(data) {
		return false, nil
	}

	if err := s.FS.WriteFileAtomic(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// parseOverrideFileName recognizes "<template>-<k>.xml" and reports
// template and k. It does not match a bare "<template>.xml".
func parseOverrideFileName(fname string) (template string, k int, ok bool) {
	if !strings.HasSuffix(fname, ".xml") {
		return "", 0, false
	}
	stem := strings.TrimSuffix(fname, ".xml")
	idx := strings.LastIndexByte(stem, '-')
	if idx <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(stem[idx+1:])
	if err != nil || n < 2 {
		return "", 0, false
	}
	return stem[:idx], n, true
}

// isManagedName reports whether svc matches "<template>" or
// "<template>-<k>" for any name in templates.
func isManagedName(svc string, templates map[string]bool) bool {
	if templates[svc] {
		return true
	}
	template, _, ok := parseOverrideFileName(svc + ".xml")
	return ok && templates[template]
}

// CheckSystemConflicts inspects systemDir for "<template>-<k>.xml" files,
// which are a fatal configuration conflict per the external interface
// contract: additional services of a set only ever live in the local
// directory.
func CheckSystemConflicts(fs ServiceFileSystem, systemDir string, templates []string) error {
	wanted := map[string]bool{}
	for _, t := range templates {
		wanted[t] = true
	}
	names, err := fs.ReadDir(systemDir)
	if err != nil {
		return err
	}
	for _, fname := range names {
		template, _, ok := parseOverrideFileName(fname)
		if ok && wanted[template] {
			return wrapError(KindConflict,
				fmt.Sprintf("system directory contains override file %q for template %q", fname, template), nil)
		}
	}
	return nil
}

// validatePath confirms path falls under this synchronizer's system or
// local directory, guarding the filesystem calls around it against a
// service name that somehow contains path-traversal segments.
func (s *Synchronizer) validatePath(path string) error {
	if err := validation.ValidatePath(path, []string{s.SystemDir, s.LocalDir}); err != nil {
		return wrapError(KindInvalidArgument, fmt.Sprintf("path %q", path), err)
	}
	return nil
}

func (s *Synchronizer) logger() *firewalldlog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return firewalldlog.Default()
}

func (s *Synchronizer) recordMetrics(err error, elapsed time.Duration) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.ObserveCommit(err == nil, elapsed.Seconds())
}
