package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const cliBundleFixture = `program
    .option('--inject <url>', 'Injection of .js or .css files', DEFAULT.inject);

async function combineFiles(files, output) {
    const contents = files.map(file => fs.readFileSync(file, 'utf-8'));
    return files;
}
`

// fakePnpm emulates the pnpm commands the build uses.
type fakePnpm struct {
	mu       sync.Mutex
	commands []Command

	bundle       string
	addFailures  int
	failCommit   error
	installerExt []string
}

func (f *fakePnpm) Run(_ context.Context, cmd Command) error {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	if cmd.Name != "pnpm" || len(cmd.Args) == 0 {
		return fmt.Errorf("unexpected command %s", cmd)
	}
	switch cmd.Args[0] {
	case "add":
		if f.addFailures > 0 {
			f.addFailures--
			return &CommandError{Command: cmd.String(), ExitCode: 1, Err: errors.New("ETIMEDOUT")}
		}
		return nil
	case "patch":
		dir := cmd.Args[len(cmd.Args)-1]
		bundle := f.bundle
		if bundle == "" {
			bundle = cliBundleFixture
		}
		if err := os.MkdirAll(filepath.Join(dir, "dist"), 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "dist", "cli.js"), []byte(bundle), 0o644)
	case "patch-commit":
		if f.failCommit != nil {
			return f.failCommit
		}
		patchesDir := cmd.Args[2]
		if err := os.MkdirAll(patchesDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(patchesDir, "pake-cli.patch"), []byte("diff"), 0o644)
	case "exec":
		name := ""
		for i, arg := range cmd.Args {
			if arg == "--name" && i+1 < len(cmd.Args) {
				name = cmd.Args[i+1]
			}
		}
		for _, ext := range f.installerExt {
			if err := os.WriteFile(filepath.Join(cmd.Dir, name+"."+ext), []byte("installer"), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unexpected command %s", cmd)
}

func (f *fakePnpm) argsOf(sub string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, cmd := range f.commands {
		if len(cmd.Args) > 0 && cmd.Args[0] == sub {
			out = append(out, cmd.Args)
		}
	}
	return out
}
