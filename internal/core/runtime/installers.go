package runtime

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoInstaller is returned when the packaging tool produced nothing to
// publish.
var ErrNoInstaller = errors.New("no installer found")

// CollectInstallers returns the files in dir named "<name>.<anything>".
func CollectInstallers(dir, name string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, escapeGlob(name)+".*"))
	if err != nil {
		return nil, fmt.Errorf("installers: glob: %w", err)
	}
	var installers []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		installers = append(installers, match)
	}
	if len(installers) == 0 {
		return nil, fmt.Errorf("installers: %w for %q in %s", ErrNoInstaller, name, dir)
	}
	sort.Strings(installers)
	return installers, nil
}

// CopyInstallers copies installers into outputDir, creating it when needed,
// and returns the destination paths.
func CopyInstallers(installers []string, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("installers: create %s: %w", outputDir, err)
	}
	copied := make([]string, 0, len(installers))
	for _, installer := range installers {
		dst := filepath.Join(outputDir, filepath.Base(installer))
		if err := copyFile(installer, dst); err != nil {
			return nil, err
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

// escapeGlob quotes pattern metacharacters. Backslash is the path separator
// on Windows and cannot escape there, so names are used as is.
func escapeGlob(s string) string {
	if filepath.Separator == '\\' {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
