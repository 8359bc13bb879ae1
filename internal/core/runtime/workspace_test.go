package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T, runner CommandRunner) (*PatchWorkspace, string) {
	t.Helper()
	root := t.TempDir()
	return &PatchWorkspace{
		PackageManager: &PackageManager{Runner: runner, Dir: root},
		TempRoot:       filepath.Join(root, ".temp"),
		PatchesDir:     filepath.Join(root, "patches"),
		Logger:         &NoOpLogger{},
	}, root
}

func TestPatchWorkspaceCommitsAndRemoves(t *testing.T) {
	t.Parallel()

	runner := &fakePnpm{}
	ws, root := newTestWorkspace(t, runner)

	stale := filepath.Join(root, ".temp", "pake-cli", "stale.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	var seen string
	err := ws.With(context.Background(), "pake-cli", func(dir string) error {
		seen = dir
		_, statErr := os.Stat(filepath.Join(dir, "stale.txt"))
		require.ErrorIs(t, statErr, os.ErrNotExist)
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(root, ".temp", "pake-cli"), seen)
	require.NoDirExists(t, seen)
	require.FileExists(t, filepath.Join(root, "patches", "pake-cli.patch"))
	require.Equal(t, [][]string{{"patch", "pake-cli", "--edit-dir", seen}}, runner.argsOf("patch"))
	require.Equal(t, [][]string{{"patch-commit", "--patches-dir", filepath.Join(root, "patches"), seen}}, runner.argsOf("patch-commit"))
}

func TestPatchWorkspaceDiscardsOnFailure(t *testing.T) {
	t.Parallel()

	runner := &fakePnpm{}
	ws, _ := newTestWorkspace(t, runner)

	boom := errors.New("rule failed")
	var seen string
	err := ws.With(context.Background(), "pake-cli", func(dir string) error {
		seen = dir
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoDirExists(t, seen)
	require.Empty(t, runner.argsOf("patch-commit"))
}

func TestPatchWorkspaceCommitFailure(t *testing.T) {
	t.Parallel()

	commitErr := errors.New("patch-commit failed")
	runner := &fakePnpm{failCommit: commitErr}
	ws, root := newTestWorkspace(t, runner)

	err := ws.With(context.Background(), "pake-cli", func(string) error { return nil })
	require.ErrorIs(t, err, commitErr)
	require.Contains(t, err.Error(), "workspace: commit pake-cli")
	require.NoDirExists(t, filepath.Join(root, ".temp", "pake-cli"))
}
