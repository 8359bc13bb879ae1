package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// PatchWorkspace opens editable copies of installed packages through the
// package manager. A workspace lives in TempRoot/<pkg> and is removed on
// both the success and the failure path.
type PatchWorkspace struct {
	PackageManager *PackageManager
	TempRoot       string
	PatchesDir     string
	Logger         Logger
}

// With opens a workspace for pkg, runs fn on its directory and commits the
// result. When fn fails the workspace is discarded without committing and the
// error is returned together with any cleanup failure.
func (w *PatchWorkspace) With(ctx context.Context, pkg string, fn func(dir string) error) error {
	dir, err := filepath.Abs(filepath.Join(w.TempRoot, pkg))
	if err != nil {
		return fmt.Errorf("workspace: resolve %s: %w", pkg, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("workspace: remove stale %s: %w", dir, err)
	}

	if err := w.PackageManager.PatchEdit(ctx, pkg, dir); err != nil {
		return w.discard(ctx, dir, fmt.Errorf("workspace: open %s: %w", pkg, err))
	}

	if err := fn(dir); err != nil {
		w.Logger.Error(ctx, "failed to patch files", err, Field("package", pkg))
		return w.discard(ctx, dir, err)
	}

	if err := w.PackageManager.PatchCommit(ctx, dir, w.PatchesDir); err != nil {
		return w.discard(ctx, dir, fmt.Errorf("workspace: commit %s: %w", pkg, err))
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("workspace: remove %s: %w", dir, err)
	}

	w.Logger.Info(ctx, "patched files successfully", Field("package", pkg))
	return nil
}

func (w *PatchWorkspace) discard(ctx context.Context, dir string, cause error) error {
	var merr *multierror.Error
	merr = multierror.Append(merr, cause)
	if err := os.RemoveAll(dir); err != nil {
		w.Logger.Warn(ctx, "failed to remove patch workspace", Field("dir", dir), Field("error", err.Error()))
		merr = multierror.Append(merr, fmt.Errorf("workspace: remove %s: %w", dir, err))
	}
	if len(merr.Errors) == 1 {
		return cause
	}
	return merr
}
