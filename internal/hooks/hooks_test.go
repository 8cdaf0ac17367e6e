// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/modules/plumbing"
)

func TestMissingHookIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{HooksDir: dir, RepoPath: dir, TransactionID: 1}
	require.NoError(t, r.RunReferenceTransaction(context.Background(), []RefChange{
		{Old: plumbing.ZeroHash, New: plumbing.ZeroHash, Name: "refs/heads/main"},
	}))
	require.NoError(t, r.RunPostRewrite(context.Background(), []RewriteEntry{}))
}

func TestReferenceTransactionHookReceivesTransactionID(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell script hook")
	}
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	script := "#!/bin/sh\necho \"$BRANCHLESS_TRANSACTION_ID\" > " + outPath + "\ncat >> " + outPath + "\n"
	hookPath := filepath.Join(dir, "reference-transaction")
	require.NoError(t, os.WriteFile(hookPath, []byte(script), 0o755))

	r := &Runner{HooksDir: dir, RepoPath: dir, TransactionID: 42}
	require.NoError(t, r.RunReferenceTransaction(context.Background(), []RefChange{
		{Old: plumbing.ZeroHash, New: plumbing.ZeroHash, Name: "refs/heads/main"},
	}))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "42")
}
