// Package config handles loading slots.toml configuration files.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/slotpool/internal/paths"
)

// ProjectFileName is the per-repository configuration file.
const ProjectFileName = "slots.toml"

const (
	// DefaultSize is the number of slots in a pool when none is configured.
	DefaultSize = 4
	// DefaultPlaceholder is the branch pattern written to released slots.
	DefaultPlaceholder = "slot-{id}-stub"
	// DefaultBase is the revision new branches are created from.
	DefaultBase = "HEAD"
	// DefaultGitTimeout bounds each git invocation.
	DefaultGitTimeout = 60 * time.Second
)

// PlaceholderToken is replaced by the slot id in placeholder patterns.
const PlaceholderToken = "{id}"

// Config represents the slots.toml configuration file.
type Config struct {
	Pool Pool `toml:"pool"`
	Slot Slot `toml:"slot"`
}

// Pool contains pool-wide configuration.
type Pool struct {
	// Size is the fixed number of slots.
	Size int `toml:"size"`

	// WorktreesDir is where slot worktrees live. Defaults to a per-repo
	// directory under ~/.local/share/slots/worktrees.
	WorktreesDir string `toml:"worktrees-dir"`

	// Placeholder is the branch pattern for released slots. Must contain {id}.
	Placeholder string `toml:"placeholder"`

	// Base is the revision new branches start from.
	Base string `toml:"base"`

	// GitTimeout bounds each git invocation, e.g. "60s". "0s" disables it.
	GitTimeout string `toml:"git-timeout"`
}

// Slot contains per-slot hooks.
type Slot struct {
	// OnAllocate is a script to run in the worktree every time a slot is
	// bound to a new branch.
	// Can include a shebang line; defaults to bash if not specified.
	OnAllocate string `toml:"on-allocate"`
}

// Load loads configuration from the repo root and the global config file.
// Unset values are filled with defaults, and the merged result is validated.
func Load(repoPath string) (*Config, error) {
	globalPath, err := paths.GlobalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(repoPath, ProjectFileName))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Pool: Pool{Size: DefaultSize}}
	cfg.applyDefaults()
	return cfg
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Pool.WorktreesDir = mergeString(projectMeta.IsDefined("pool", "worktrees-dir"), projectCfg.Pool.WorktreesDir, globalCfg.Pool.WorktreesDir)
	merged.Pool.Placeholder = mergeString(projectMeta.IsDefined("pool", "placeholder"), projectCfg.Pool.Placeholder, globalCfg.Pool.Placeholder)
	merged.Pool.Base = mergeString(projectMeta.IsDefined("pool", "base"), projectCfg.Pool.Base, globalCfg.Pool.Base)
	merged.Pool.GitTimeout = mergeString(projectMeta.IsDefined("pool", "git-timeout"), projectCfg.Pool.GitTimeout, globalCfg.Pool.GitTimeout)
	merged.Slot.OnAllocate = mergeString(projectMeta.IsDefined("slot", "on-allocate"), projectCfg.Slot.OnAllocate, globalCfg.Slot.OnAllocate)
	switch {
	case projectMeta.IsDefined("pool", "size"):
		merged.Pool.Size = projectCfg.Pool.Size
	case globalMeta.IsDefined("pool", "size"):
		merged.Pool.Size = globalCfg.Pool.Size
	default:
		merged.Pool.Size = DefaultSize
	}

	merged.applyDefaults()
	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func (cfg *Config) applyDefaults() {
	if cfg.Pool.Placeholder == "" {
		cfg.Pool.Placeholder = DefaultPlaceholder
	}
	if cfg.Pool.Base == "" {
		cfg.Pool.Base = DefaultBase
	}
	if cfg.Pool.GitTimeout == "" {
		cfg.Pool.GitTimeout = DefaultGitTimeout.String()
	}
}

// Validate reports the first invalid value in cfg.
func (cfg *Config) Validate() error {
	if cfg.Pool.Size < 1 {
		return fmt.Errorf("pool.size must be at least 1, got %d", cfg.Pool.Size)
	}
	if !strings.Contains(cfg.Pool.Placeholder, PlaceholderToken) {
		return fmt.Errorf("pool.placeholder %q must contain %s", cfg.Pool.Placeholder, PlaceholderToken)
	}
	if _, err := cfg.GitTimeout(); err != nil {
		return err
	}
	return nil
}

// GitTimeout parses the configured git timeout. Zero disables the timeout.
func (cfg *Config) GitTimeout() (time.Duration, error) {
	if cfg.Pool.GitTimeout == "" {
		return DefaultGitTimeout, nil
	}
	d, err := time.ParseDuration(cfg.Pool.GitTimeout)
	if err != nil {
		return 0, fmt.Errorf("pool.git-timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("pool.git-timeout must not be negative, got %s", cfg.Pool.GitTimeout)
	}
	return d, nil
}

// RunScript executes a script in the given directory.
// If the script starts with a shebang (#!), that interpreter is used.
// Otherwise, the script is run with /bin/bash.
func RunScript(dir, script string) error {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}

	var interpreter string
	var scriptBody string

	if strings.HasPrefix(script, "#!") {
		lines := strings.SplitN(script, "\n", 2)
		interpreter = strings.TrimSpace(strings.TrimPrefix(lines[0], "#!"))
		if len(lines) > 1 {
			scriptBody = lines[1]
		}
	} else {
		interpreter = "/bin/bash"
		scriptBody = script
	}

	// e.g. "/usr/bin/env python3" or "/bin/bash -e"
	parts := strings.Fields(interpreter)
	if len(parts) == 0 {
		return fmt.Errorf("empty interpreter in shebang")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(scriptBody)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run script in %s: %w", dir, err)
	}
	return nil
}
