package runtime

import (
	"context"
)

// PackageManager drives pnpm inside the build directory.
type PackageManager struct {
	Runner CommandRunner
	// Binary defaults to "pnpm".
	Binary string
	// Dir is the project directory commands run in.
	Dir string
}

func (p *PackageManager) run(ctx context.Context, args ...string) error {
	binary := p.Binary
	if binary == "" {
		binary = "pnpm"
	}
	return p.Runner.Run(ctx, Command{Name: binary, Args: args, Dir: p.Dir})
}

// Add installs spec as a project dependency.
func (p *PackageManager) Add(ctx context.Context, spec string) error {
	return p.run(ctx, "add", spec)
}

// PatchEdit extracts pkg into editDir for patching.
func (p *PackageManager) PatchEdit(ctx context.Context, pkg, editDir string) error {
	return p.run(ctx, "patch", pkg, "--edit-dir", editDir)
}

// PatchCommit records the changes made in editDir as a patch file in
// patchesDir and applies it to the installed package.
func (p *PackageManager) PatchCommit(ctx context.Context, editDir, patchesDir string) error {
	return p.run(ctx, "patch-commit", "--patches-dir", patchesDir, editDir)
}

// Exec runs a binary provided by an installed package.
func (p *PackageManager) Exec(ctx context.Context, bin string, args []string) error {
	return p.run(ctx, append([]string{"exec", bin}, args...)...)
}
