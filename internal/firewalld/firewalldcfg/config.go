// Package firewalldcfg loads the daemon paths firewalld needs: where
// system and local service definitions live, and where the firewall-cmd
// executable is.
package firewalldcfg

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config holds the paths the synchronizer and loader need.
type Config struct {
	SystemDir       string `hcl:"system_dir,optional"`
	LocalDir        string `hcl:"local_dir,optional"`
	FirewallCmdPath string `hcl:"firewall_cmd_path,optional"`
}

// Default returns the stock firewalld paths.
func Default() Config {
	return Config{
		SystemDir:       "/usr/lib/firewalld/services",
		LocalDir:        "/etc/firewalld/services",
		FirewallCmdPath: "/usr/bin/firewall-cmd",
	}
}

// Load decodes an HCL config file at path, filling any field left empty
// with its Default() value.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := hclsimple.Decode(path, data, nil, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	d := Default()
	if c.SystemDir == "" {
		c.SystemDir = d.SystemDir
	}
	if c.LocalDir == "" {
		c.LocalDir = d.LocalDir
	}
	if c.FirewallCmdPath == "" {
		c.FirewallCmdPath = d.FirewallCmdPath
	}
	return c
}
