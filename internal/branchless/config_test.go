// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package branchless

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "branchless"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestConfigSaveAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		MainBranch:         "trunk",
		PreserveTimestamps: true,
		ForceOnDisk:        true,
	}
	require.NoError(t, cfg.Save(dir))

	got, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestConfigSaveCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "branchless")
	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(dir))
	_, err := LoadConfig(dir)
	require.NoError(t, err)
}
