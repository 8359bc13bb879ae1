package patch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testRules() []Rule {
	return []Rule{
		{
			Name:      "inject-variadic",
			Paths:     []string{"dist/cli.js"},
			Transform: ReplaceLiteral("'--inject <url>'", "'--inject <url...>'"),
		},
		{
			Name:      "combine-files",
			Paths:     []string{"dist/cli.js"},
			Transform: ReplaceFunctionBody(combineAnchor, "  replaced();"),
		},
	}
}

func writeFixture(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestApplyUpdatesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFixture(t, dir, "dist/cli.js", "program.option('--inject <url>');\n"+combineSource)

	results, err := Apply(context.Background(), dir, testRules(), Options{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(results) != 1 || results[0].Status != "M" || results[0].Path != "dist/cli.js" {
		t.Fatalf("unexpected results: %#v", results)
	}
	if len(results[0].Rules) != 2 {
		t.Fatalf("expected both rules recorded, got %v", results[0].Rules)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	want := "program.option('--inject <url...>');\n" +
		"import fs from 'fs';\n\n" +
		"async function combineFiles(files, output) {\n" +
		"  replaced();\n" +
		"  return files;\n" +
		"}\n\n" +
		"export default 1;\n"
	if string(content) != want {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestApplyMismatchPerformsNoWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := "program.option('--inject <url>');\nasync function mergeFiles(files, output) {\n  return files;\n}\n"
	path := writeFixture(t, dir, "dist/cli.js", original)

	_, err := Apply(context.Background(), dir, testRules(), Options{})
	if !errors.Is(err, ErrPatternMismatch) {
		t.Fatalf("expected pattern mismatch, got %v", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Rule != "combine-files" || pe.Path != filepath.Join("dist", "cli.js") {
		t.Fatalf("error should carry rule and path, got %#v", pe)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != original {
		t.Fatalf("file must be untouched after a failed patch, got %q", content)
	}
}

func TestApplyMissingOrEmptyTarget(t *testing.T) {
	t.Parallel()

	tests := map[string]func(dir string){
		"missing file": func(string) {},
		"empty file": func(dir string) {
			writeFixture(t, dir, "dist/cli.js", "")
		},
		"directory": func(dir string) {
			if err := os.MkdirAll(filepath.Join(dir, "dist", "cli.js"), 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
		},
	}

	for name, setup := range tests {
		setup := setup
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			setup(dir)
			_, err := Apply(context.Background(), dir, testRules(), Options{})
			if !errors.Is(err, ErrTargetMissing) {
				t.Fatalf("expected target missing, got %v", err)
			}
		})
	}
}

func TestApplyAllowNoopKeepsContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := "program.option('--inject <url...>');\n"
	path := writeFixture(t, dir, "dist/cli.js", original)

	var noops []string
	rules := testRules()[:1]
	results, err := Apply(context.Background(), dir, rules, Options{
		AllowNoop: true,
		OnNoop:    func(rule, _ string) { noops = append(noops, rule) },
	})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(results) != 1 || results[0].Status != "=" {
		t.Fatalf("unexpected results: %#v", results)
	}
	if len(noops) != 1 || noops[0] != "inject-variadic" {
		t.Fatalf("expected noop callback, got %v", noops)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != original {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestApplyPreservesPermissions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFixture(t, dir, "dist/cli.js", "'--inject <url>'")
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if _, err := Apply(context.Background(), dir, testRules()[:1], Options{}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected mode 0755, got %v", info.Mode().Perm())
	}
}

func TestApplyHonoursCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "dist/cli.js", "'--inject <url>'")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Apply(ctx, dir, testRules()[:1], Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestApplyRejectsPathsOutsideWorkspace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "pkg")
	outside := writeFixture(t, root, "outside.js", "'--inject <url>'")

	tests := map[string]string{
		"parent segment": "../outside.js",
		"nested parent":  "dist/../../outside.js",
		"absolute":       outside,
	}
	for name, target := range tests {
		target := target
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rules := []Rule{{
				Name:      "escape",
				Paths:     []string{target},
				Transform: ReplaceLiteral("'--inject <url>'", "'--inject <url...>'"),
			}}
			if _, err := Apply(context.Background(), dir, rules, Options{}); !errors.Is(err, ErrTargetMissing) {
				t.Fatalf("expected target missing, got %v", err)
			}
		})
	}

	content, err := os.ReadFile(outside)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != "'--inject <url>'" {
		t.Fatalf("file outside the workspace was modified: %q", content)
	}
}

func TestCommitRestoresWrittenFilesOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFixture(t, dir, "dist/cli.js", "first")
	second := writeFixture(t, dir, "dist/util.js", "second")

	ws, err := newFilesystemWorkspace(FilesystemOptions{WorkingDir: dir})
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	for _, rel := range []string{"dist/cli.js", "dist/util.js"} {
		st, err := ws.Ensure(rel)
		if err != nil {
			t.Fatalf("Ensure(%s): %v", rel, err)
		}
		st.content = "patched"
	}

	// A directory in place of the second file makes its write fail.
	if err := os.Remove(second); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.Mkdir(second, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := ws.Commit(); err == nil {
		t.Fatalf("expected commit to fail")
	}
	content, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != "first" {
		t.Fatalf("expected first file restored, got %q", content)
	}
}
