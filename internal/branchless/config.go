// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package branchless wires the commit-graph backend (C1), event log
// (C2), DAG & visibility engine (C3), rebase planner/executor (C4/C5),
// smartlog (C6), hooks (C7), and undo engine (C8) into a single
// repository-scoped entry point, the way pkg/zeta/repository.go wires
// together zeta's own object store, refs backend, and worktree.
package branchless

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/antgroup/hugescm/modules/trace"
)

// Config is the branchless layer's own configuration, stored as
// "<repo>/.zeta/branchless/config.toml" — separate from zeta's own
// core.toml, the way git-branchless keeps its settings under
// .git/branchless/ rather than mixing into git's config.
type Config struct {
	MainBranch         string `toml:"main_branch"`
	PreserveTimestamps bool   `toml:"preserve_timestamps"`
	ForceInMemory      bool   `toml:"force_in_memory"`
	ForceOnDisk        bool   `toml:"force_on_disk"`
}

// DefaultConfig returns the configuration used when no config file is
// present: in-memory rebase preferred, falling back to on-disk only on
// conflict (DESIGN.md Open Question 2).
func DefaultConfig() Config {
	return Config{MainBranch: "master"}
}

// LoadConfig reads configDir/config.toml, returning DefaultConfig
// unmodified if the file does not exist.
func LoadConfig(configDir string) (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, trace.Errorf("branchless: read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, trace.Errorf("branchless: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to configDir/config.toml.
func (c Config) Save(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return trace.Errorf("branchless: mkdir config dir: %w", err)
	}
	f, err := os.Create(filepath.Join(configDir, "config.toml"))
	if err != nil {
		return trace.Errorf("branchless: create config file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return toml.NewEncoder(f).Encode(c)
}
