// Package pake holds the knowledge about the pake-cli package that the build
// depends on: its name, the patches its bundled CLI needs and where a custom
// icon lives inside the package on each platform.
package pake

import (
	"github.com/asynkron/pakebuild/pkg/patch"
)

const (
	// PackageName is the npm package that provides the packaging tool.
	PackageName = "pake-cli"
	// BinaryName is the executable exposed by PackageName.
	BinaryName = "pake"

	cliBundle = "dist/cli.js"
)

// CombineFilesAnchor locates the helper that merges injected files in the
// compiled CLI.
var CombineFilesAnchor = patch.FunctionAnchor{
	Signature:  "async function combineFiles(files, output) {\n",
	Terminator: "return files;\n}",
}

// combineFilesBody reads every injected file as binary and writes them,
// newline separated, to the output path.
const combineFilesBody = `const contents = files.map(file => fs.readFileSync(file));
fs.writeFileSync(output, contents.join('\n'));`

// StaticRules returns the patches applied to every pake-cli checkout: the
// inject flag accepts several values, and injected files are concatenated
// into the output instead of being processed one by one.
func StaticRules() []patch.Rule {
	return []patch.Rule{
		{
			Name:      "inject-variadic",
			Paths:     []string{cliBundle},
			Transform: patch.ReplaceLiteral("'--inject <url>'", "'--inject <url...>'"),
		},
		{
			Name:      "combine-files",
			Paths:     []string{cliBundle},
			Transform: patch.ReplaceFunctionBody(CombineFilesAnchor, combineFilesBody),
		},
	}
}

// IconDestination returns the path, relative to the package root, that the
// packaging tool reads its default icon from on goos. It is empty for
// platforms the tool does not build on.
func IconDestination(goos string) string {
	switch goos {
	case "windows":
		return "src-tauri/png/icon_256.ico"
	case "linux":
		return "src-tauri/png/icon_512.png"
	case "darwin":
		return "src-tauri/icons/icon.icns"
	default:
		return ""
	}
}
