// Package config parses icnpush HCL configuration files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Config is the top-level configuration.
type Config struct {
	Targets  []Target  `hcl:"target,block"`
	Services []Service `hcl:"service,block"`
}

// Target is an ICN server a plugin is deployed to.
type Target struct {
	Name        string `hcl:"name,label"`
	URL         string `hcl:"url"`
	Username    string `hcl:"username"`
	Password    string `hcl:"password,optional"`
	PasswordEnv string `hcl:"password_env,optional"`
	WorkingDir  string `hcl:"working_dir,optional"`
	PluginDir   string `hcl:"plugin_dir,optional"`
	Timeout     string `hcl:"timeout,optional"`
}

// Service is a fake server run by "icnpush fake".
type Service struct {
	Type string            `hcl:"type,label"`
	Name string            `hcl:"name,label"`
	Port int               `hcl:"port"`
	Env  map[string]string `hcl:"env,optional"`
}

// Load parses an HCL config file and returns the Config.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	file, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing config: %s", diags.Error())
	}
	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding config: %s", diags.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate checks constraints HCL decoding cannot express.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, t := range c.Targets {
		if seen[t.Name] {
			return fmt.Errorf("duplicate target %q", t.Name)
		}
		seen[t.Name] = true
		if _, err := t.RequestTimeout(); err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
	}
	return nil
}

// Target returns the target with the given name.
func (c *Config) Target(name string) (Target, error) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("unknown target: %q", name)
}

// RequestTimeout parses Timeout. An empty value means no timeout.
func (t Target) RequestTimeout() (time.Duration, error) {
	if t.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(t.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", t.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", t.Timeout)
	}
	return d, nil
}

// Dir returns WorkingDir, defaulting to the current directory.
func (t Target) Dir() string {
	if t.WorkingDir == "" {
		return "."
	}
	return t.WorkingDir
}
