package pake

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/asynkron/pakebuild/pkg/patch"
)

const cliFixture = `import fs from 'fs-extra';
program
    .option('--inject <url>', 'Injection of .js or .css files', DEFAULT.inject)
    .option('--debug', 'Debug build and more output', DEFAULT.debug);

async function combineFiles(files, output) {
    const contents = files.map(file => {
        const fileContent = fs.readFileSync(file);
        if (file.endsWith('.css')) {
            return "window.addEventListener('DOMContentLoaded', (_event) => { const css = ` + "`${fileContent}`" + `; });";
        }
        return "window.addEventListener('DOMContentLoaded', (_event) => { " + fileContent + " });";
    });
    fs.writeFileSync(output, contents.join('\n'));
    return files;
}

export { combineFiles };
`

func TestStaticRulesPatchCLIBundle(t *testing.T) {
	t.Parallel()

	files := map[string]string{"dist/cli.js": cliFixture}
	out, results, err := patch.ApplyToMemory(context.Background(), StaticRules(), files, patch.Options{})
	if err != nil {
		t.Fatalf("ApplyToMemory returned error: %v", err)
	}
	if len(results) != 1 || results[0].Status != "M" {
		t.Fatalf("unexpected results: %#v", results)
	}

	patched := out["dist/cli.js"]
	if !strings.Contains(patched, "'--inject <url...>'") {
		t.Fatalf("inject flag was not made variadic:\n%s", patched)
	}
	if strings.Contains(patched, "endsWith('.css')") {
		t.Fatalf("combineFiles body was not replaced:\n%s", patched)
	}

	wantFn := "async function combineFiles(files, output) {\n" +
		combineFilesBody +
		"\n    return files;\n}"
	if !strings.Contains(patched, wantFn) {
		t.Fatalf("combineFiles not rewritten as expected:\n%s", patched)
	}
	if !strings.HasPrefix(patched, "import fs from 'fs-extra';\n") || !strings.HasSuffix(patched, "\n\nexport { combineFiles };\n") {
		t.Fatalf("content outside the function changed:\n%s", patched)
	}
}

func TestStaticRulesAcceptPatchedBundle(t *testing.T) {
	t.Parallel()

	once, _, err := patch.ApplyToMemory(context.Background(), StaticRules(), map[string]string{"dist/cli.js": cliFixture}, patch.Options{})
	if err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}
	twice, results, err := patch.ApplyToMemory(context.Background(), StaticRules(), once, patch.Options{})
	if err != nil {
		t.Fatalf("second pass returned error: %v", err)
	}
	if len(results) != 1 || results[0].Status != "=" {
		t.Fatalf("unexpected results: %#v", results)
	}
	if twice["dist/cli.js"] != once["dist/cli.js"] {
		t.Fatalf("second pass changed the bundle:\n%s", twice["dist/cli.js"])
	}
}

func TestStaticRulesRejectUnknownUpstream(t *testing.T) {
	t.Parallel()

	changed := strings.Replace(cliFixture, "async function combineFiles(files, output)", "async function combineFiles(files, output, opts)", 1)
	_, _, err := patch.ApplyToMemory(context.Background(), StaticRules(), map[string]string{"dist/cli.js": changed}, patch.Options{})
	if !errors.Is(err, patch.ErrPatternMismatch) {
		t.Fatalf("expected pattern mismatch, got %v", err)
	}
}

func TestIconDestination(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"windows": "src-tauri/png/icon_256.ico",
		"linux":   "src-tauri/png/icon_512.png",
		"darwin":  "src-tauri/icons/icon.icns",
		"plan9":   "",
	}
	for goos, want := range tests {
		if got := IconDestination(goos); got != want {
			t.Fatalf("IconDestination(%q) = %q, want %q", goos, got, want)
		}
	}
}
