package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asynkron/pakebuild/internal/bootprobe"
	"github.com/asynkron/pakebuild/internal/pake"
	"github.com/asynkron/pakebuild/pkg/patch"
)

// Step names recorded in metrics and log entries.
const (
	StepPreflight  = "preflight"
	StepAssets     = "assets"
	StepInstall    = "install"
	StepPatch      = "patch"
	StepBuild      = "build"
	StepInstallers = "installers"
)

// Report summarises a finished or planned build.
type Report struct {
	Name       string
	DryRun     bool
	Preflight  bootprobe.Result
	Assets     Assets
	Args       []string
	Patched    []patch.Result
	Installers []string
	Metrics    MetricsSnapshot
}

// Runtime runs a single pake build: it downloads the assets, installs and
// patches pake-cli, runs it and copies the produced installers.
type Runtime struct {
	options RuntimeOptions

	packages  *PackageManager
	workspace *PatchWorkspace
	assets    *AssetFetcher
}

// NewRuntime configures a new runtime with the provided options.
func NewRuntime(options RuntimeOptions) (*Runtime, error) {
	options.setDefaults()
	if err := options.validate(); err != nil {
		return nil, err
	}

	pm := &PackageManager{Runner: options.Runner, Dir: options.WorkDir}
	return &Runtime{
		options:  options,
		packages: pm,
		workspace: &PatchWorkspace{
			PackageManager: pm,
			TempRoot:       options.TempDir,
			PatchesDir:     options.PatchesDir,
			Logger:         options.Logger,
		},
		assets: &AssetFetcher{
			Dir:     options.WorkDir,
			Options: options.Download,
			Logger:  options.Logger,
			Metrics: options.Metrics,
		},
	}, nil
}

// Run executes the build. The report is returned even when a step fails so
// callers can show how far the build got.
func (r *Runtime) Run(ctx context.Context) (*Report, error) {
	report := &Report{Name: r.options.Build.Name, DryRun: r.options.DryRun}
	defer func() { report.Metrics = r.options.Metrics.GetSnapshot() }()

	if err := r.step(ctx, StepPreflight, "Checking environment...", func(ctx context.Context) error {
		return r.preflight(ctx, report)
	}); err != nil {
		return report, err
	}

	r.printSettings()

	if r.options.DryRun {
		return report, r.plan(ctx, report)
	}

	if err := r.step(ctx, StepAssets, "Downloading assets...", func(ctx context.Context) error {
		assets, err := r.assets.FetchAll(ctx, r.options.Build)
		report.Assets = assets
		return err
	}); err != nil {
		return report, err
	}

	if err := r.step(ctx, StepInstall, "Installing Pake...", func(ctx context.Context) error {
		return r.install(ctx)
	}); err != nil {
		return report, err
	}
	r.options.Console.Println("Install Pake completed.")

	if err := r.step(ctx, StepPatch, "Patching Pake...", func(ctx context.Context) error {
		return r.workspace.With(ctx, pake.PackageName, func(dir string) error {
			return r.patchPackage(ctx, dir, report)
		})
	}); err != nil {
		return report, err
	}
	r.options.Console.Println("Patch Pake completed.")

	report.Args = BuildArgs(r.options.Build.URL, r.options.Build.CLIOptions(report.Assets))
	r.printArgs(report.Args)

	if err := r.step(ctx, StepBuild, "Building app...", func(ctx context.Context) error {
		return r.packages.Exec(ctx, pake.BinaryName, report.Args)
	}); err != nil {
		return report, err
	}
	r.options.Console.Println("Build app completed.")

	if err := r.step(ctx, StepInstallers, "Copying installer...", func(ctx context.Context) error {
		installers, err := CollectInstallers(r.options.WorkDir, r.options.Build.Name)
		if err != nil {
			return err
		}
		r.options.Logger.Info(ctx, "installers found", Field("count", len(installers)))
		copied, err := CopyInstallers(installers, r.options.OutputDir)
		report.Installers = copied
		return err
	}); err != nil {
		return report, err
	}
	r.options.Console.Println("Copy installer completed.")

	return report, nil
}

// step prints a banner for title, runs fn with the step recorded in the
// context and records its duration.
func (r *Runtime) step(ctx context.Context, name, title string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.options.Console.Section(title)
	ctx = WithStep(ctx, name)

	started := time.Now()
	err := fn(ctx)
	r.options.Metrics.RecordStep(name, time.Since(started), err == nil)
	if err != nil {
		r.options.Logger.Error(ctx, "build step failed", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	r.options.Logger.Debug(ctx, "build step completed", Field("duration", time.Since(started).String()))
	return nil
}

func (r *Runtime) preflight(ctx context.Context, report *Report) error {
	probe := bootprobe.NewContextWithLookPath(r.options.WorkDir, r.options.LookPath)
	if r.options.ProbeOutput != nil {
		probe.WithOutput(r.options.ProbeOutput)
	}
	if r.options.SkipPreflight || r.options.DryRun {
		report.Preflight = bootprobe.Run(ctx, probe, pake.PackageName)
		r.options.Console.Println(bootprobe.FormatSummary(report.Preflight))
		r.logToolVersions(ctx, report.Preflight)
		if missing := report.Preflight.Missing(); len(missing) > 0 && !r.options.DryRun {
			r.options.Logger.Warn(ctx, "preflight skipped", Field("missing", strings.Join(missing, ", ")))
		}
		return nil
	}
	result, err := bootprobe.Check(ctx, probe, pake.PackageName)
	report.Preflight = result
	r.options.Console.Println(bootprobe.FormatSummary(result))
	r.logToolVersions(ctx, result)
	return err
}

func (r *Runtime) logToolVersions(ctx context.Context, result bootprobe.Result) {
	for _, name := range bootprobe.RequiredCommands {
		if status, ok := result.Command(name); ok && status.Available {
			r.options.Logger.Info(ctx, "found "+name, Field("version", status.Version))
		}
	}
}

func (r *Runtime) install(ctx context.Context) error {
	spec, err := r.options.Build.PackageSpec(pake.PackageName)
	if err != nil {
		return err
	}
	r.options.Logger.Info(ctx, "installing package", Field("spec", spec))
	return executeWithRetry(ctx, r.options.InstallRetry, r.options.Logger, func() error {
		return r.packages.Add(ctx, spec)
	})
}

// patchPackage applies the static rules inside the workspace dir and moves
// the custom icon to where the packaging tool expects its default icon. A
// moved icon is no longer passed on the command line.
func (r *Runtime) patchPackage(ctx context.Context, dir string, report *Report) error {
	results, err := patch.Apply(ctx, dir, pake.StaticRules(), r.patchOptions(ctx))
	if err != nil {
		return err
	}
	report.Patched = results
	for _, res := range results {
		r.options.Logger.Info(ctx, "patched file", Field("path", res.Path), Field("status", res.Status))
	}

	dest := pake.IconDestination(r.options.GOOS)
	if report.Assets.Icon == "" || dest == "" {
		return nil
	}
	target := filepath.Join(dir, filepath.FromSlash(dest))
	if err := copyFile(report.Assets.Icon, target); err != nil {
		return err
	}
	r.options.Logger.Info(ctx, "replaced default icon", Field("path", dest))
	report.Assets.Icon = ""
	return nil
}

func (r *Runtime) patchOptions(ctx context.Context) patch.Options {
	return patch.Options{
		AllowNoop: r.options.AllowNoopPatches,
		OnNoop: func(rule, path string) {
			r.options.Logger.Warn(ctx, "patch rule matched nothing", Field("rule", rule), Field("path", path))
		},
	}
}

// plan prints what a build would do. The patch rules are previewed against
// the installed package when there is one.
func (r *Runtime) plan(ctx context.Context, report *Report) error {
	ctx = WithStep(ctx, "plan")
	console := r.options.Console

	console.Section("Planned downloads:")
	var rows [][]string
	planned := Assets{}
	if r.options.Build.IconURL != "" {
		rows = append(rows, []string{"icon", r.options.Build.IconURL, filepath.Join(r.options.WorkDir, "icon.<ext>")})
		if pake.IconDestination(r.options.GOOS) == "" {
			planned.Icon = filepath.Join(r.options.WorkDir, "icon.<ext>")
		}
	}
	if r.options.Build.SystemTrayIconURL != "" {
		planned.TrayIcon = filepath.Join(r.options.WorkDir, "tray-icon.<ext>")
		rows = append(rows, []string{"system tray icon", r.options.Build.SystemTrayIconURL, planned.TrayIcon})
	}
	if r.options.Build.InjectURL != "" {
		inject := filepath.Join(r.options.WorkDir, "inject.js")
		planned.Inject = append(planned.Inject, inject)
		rows = append(rows, []string{"inject file", r.options.Build.InjectURL, inject})
	}
	if len(rows) == 0 {
		console.Println("No assets configured.")
	} else {
		console.Table([]string{"Asset", "URL", "Destination"}, rows)
	}

	spec, err := r.options.Build.PackageSpec(pake.PackageName)
	if err != nil {
		return err
	}
	console.Section("Planned install:")
	console.Println("pnpm add " + spec)

	console.Section("Patch preview:")
	if err := r.previewPatch(ctx, report); err != nil {
		return fmt.Errorf("%s: %w", StepPatch, err)
	}

	report.Assets = planned
	report.Args = BuildArgs(r.options.Build.URL, r.options.Build.CLIOptions(planned))
	r.printArgs(report.Args)
	return nil
}

func (r *Runtime) previewPatch(ctx context.Context, report *Report) error {
	pkgDir := filepath.Join(r.options.WorkDir, "node_modules", pake.PackageName)
	files := make(map[string]string)
	for _, rule := range pake.StaticRules() {
		for _, rel := range rule.Paths {
			if _, ok := files[rel]; ok {
				continue
			}
			data, err := os.ReadFile(filepath.Join(pkgDir, filepath.FromSlash(rel)))
			if errors.Is(err, os.ErrNotExist) {
				r.options.Console.Println(pake.PackageName + " is not installed, skipping patch preview.")
				return nil
			}
			if err != nil {
				return err
			}
			files[rel] = string(data)
		}
	}

	_, results, err := patch.ApplyToMemory(ctx, pake.StaticRules(), files, r.patchOptions(ctx))
	if err != nil {
		return err
	}
	report.Patched = results
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{res.Status, res.Path, strings.Join(res.Rules, ", ")})
	}
	r.options.Console.Table([]string{"Status", "Path", "Rules"}, rows)
	return nil
}

func (r *Runtime) printSettings() {
	r.options.Console.Section("Environment variables:")
	r.options.Console.KeyValues("Key", "Value", r.options.Settings.Keys(), r.options.Settings)
}

func (r *Runtime) printArgs(args []string) {
	r.options.Console.Section("Command line arguments:")
	rows := make([][]string, 0, len(args))
	for i, arg := range args {
		rows = append(rows, []string{fmt.Sprint(i), arg})
	}
	r.options.Console.Table([]string{"Index", "Value"}, rows)
}
