package bootprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
)

// RequiredCommands must be on PATH for a build to run.
var RequiredCommands = []string{"node", "pnpm"}

// Result captures the host environment a build runs in.
type Result struct {
	OS       OSResult
	Node     NodeProbeResult
	Commands []CommandStatus
}

// CommandStatus records whether a particular command is available on PATH.
type CommandStatus struct {
	Name      string
	Available bool
	Required  bool
	Version   string
}

// NodeProbeResult describes the JavaScript project in the build directory.
type NodeProbeResult struct {
	Indicators []string
	// InstalledPackages maps package names found in node_modules to their
	// installed version.
	InstalledPackages map[string]string
}

// OSResult summarises the host operating system and architecture.
type OSResult struct {
	GOOS         string
	GOARCH       string
	Distribution string
}

// Run executes all probes. packages lists node_modules entries whose
// installed version should be reported.
func Run(goctx context.Context, ctx *Context, packages ...string) Result {
	return Result{
		OS:       detectOS(),
		Node:     runNodeProbe(ctx, packages),
		Commands: commandStatuses(goctx, ctx),
	}
}

func runNodeProbe(ctx *Context, packages []string) NodeProbeResult {
	result := NodeProbeResult{
		Indicators: collectExistingFiles(ctx, []string{
			"package.json",
			"pnpm-lock.yaml",
			"pnpm-workspace.yaml",
			".npmrc",
		}),
	}
	for _, pkg := range packages {
		version, ok := installedVersion(ctx, pkg)
		if !ok {
			continue
		}
		if result.InstalledPackages == nil {
			result.InstalledPackages = make(map[string]string, len(packages))
		}
		result.InstalledPackages[pkg] = version
	}
	return result
}

func installedVersion(ctx *Context, pkg string) (string, bool) {
	data, err := ctx.ReadFile(path.Join("node_modules", pkg, "package.json"))
	if err != nil {
		return "", false
	}
	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", false
	}
	return manifest.Version, true
}

func commandStatuses(goctx context.Context, ctx *Context) []CommandStatus {
	statuses := make([]CommandStatus, 0, len(RequiredCommands)+1)
	for _, name := range RequiredCommands {
		statuses = append(statuses, probeCommand(goctx, ctx, name, true))
	}
	statuses = append(statuses, probeCommand(goctx, ctx, "git", false))
	return statuses
}

func probeCommand(goctx context.Context, ctx *Context, name string, required bool) CommandStatus {
	status := CommandStatus{Name: name, Required: required}
	if !ctx.CommandExists(name) {
		return status
	}
	status.Available = true
	out, err := ctx.RunCommandOutput(goctx, name, "--version")
	if err == nil {
		status.Version = firstLine(out)
	}
	return status
}

// Missing lists the required commands that were not found.
func (r Result) Missing() []string {
	var missing []string
	for _, cmd := range r.Commands {
		if cmd.Required && !cmd.Available {
			missing = append(missing, cmd.Name)
		}
	}
	return missing
}

// Command returns the status recorded for name.
func (r Result) Command(name string) (CommandStatus, bool) {
	for _, cmd := range r.Commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return CommandStatus{}, false
}

func detectOS() OSResult {
	return OSResult{
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		Distribution: readOSRelease(),
	}
}

func collectExistingFiles(ctx *Context, files []string) []string {
	var results []string
	for _, file := range files {
		if ctx.HasFile(file) {
			results = append(results, file)
		}
	}
	return results
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func readOSRelease() string {
	for _, file := range []string{"/etc/os-release", "/usr/lib/os-release"} {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if len(line) < len("pretty_name=") || !strings.EqualFold(line[:len("pretty_name=")], "pretty_name=") {
				continue
			}
			if value := strings.Trim(line[len("pretty_name="):], "\""); value != "" {
				return value
			}
		}
	}
	return ""
}

// SummaryLines returns one bullet line per probed command and the project
// indicators.
func (r Result) SummaryLines() []string {
	var lines []string
	for _, cmd := range r.Commands {
		lines = append(lines, formatCommand(cmd))
	}
	if len(r.Node.Indicators) > 0 {
		lines = append(lines, "Node.js project ("+strings.Join(r.Node.Indicators, ", ")+")")
	}
	for _, pkg := range sortedKeys(r.Node.InstalledPackages) {
		lines = append(lines, fmt.Sprintf("installed %s@%s", pkg, r.Node.InstalledPackages[pkg]))
	}
	return lines
}

// FormatSummary renders a Result into a human-readable summary. The OS line
// is always included, followed by bullet points.
func FormatSummary(result Result) string {
	osLine := FormatOSLine(result.OS)
	lines := result.SummaryLines()
	if len(lines) == 0 {
		return osLine
	}
	for i, line := range lines {
		lines[i] = "- " + line
	}
	return strings.Join(append([]string{osLine}, lines...), "\n")
}

// FormatOSLine renders a single line describing the host OS.
func FormatOSLine(osResult OSResult) string {
	if osResult.Distribution != "" {
		return fmt.Sprintf("OS: %s/%s (%s)", osResult.GOOS, osResult.GOARCH, osResult.Distribution)
	}
	return fmt.Sprintf("OS: %s/%s", osResult.GOOS, osResult.GOARCH)
}

func formatCommand(cmd CommandStatus) string {
	switch {
	case !cmd.Available && cmd.Required:
		return cmd.Name + ": missing (required)"
	case !cmd.Available:
		return cmd.Name + ": missing"
	case cmd.Version != "":
		return cmd.Name + ": " + cmd.Version
	default:
		return cmd.Name + ": available"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
