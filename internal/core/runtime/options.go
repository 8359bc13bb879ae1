package runtime

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"time"

	"github.com/asynkron/pakebuild/internal/bootprobe"
	"github.com/asynkron/pakebuild/internal/tui"
	"github.com/asynkron/pakebuild/pkg/fetch"
)

// RuntimeOptions configures a build. Zero values are replaced with the
// defaults used by the command line.
type RuntimeOptions struct {
	// Settings is the resolved configuration. Build is derived from it when
	// left empty.
	Settings Settings
	Build    BuildOptions

	// WorkDir is where assets are downloaded, pnpm runs and installers are
	// produced. Defaults to the current directory.
	WorkDir string
	// OutputDir receives the installers. Relative paths resolve against
	// WorkDir.
	OutputDir string
	// PatchesDir receives the committed pnpm patch files.
	PatchesDir string
	// TempDir holds the patch workspaces.
	TempDir string
	// GOOS selects the icon location inside the package.
	GOOS string

	// DryRun prints the plan without downloading or running pnpm.
	DryRun bool

	Runner       CommandRunner
	Logger       Logger
	Metrics      Metrics
	Console      *tui.Console
	Download     fetch.Options
	InstallRetry *RetryConfig

	// LookPath resolves commands during preflight. Defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// ProbeOutput replaces command execution for the version probes.
	ProbeOutput bootprobe.OutputFunc
	// SkipPreflight reports the environment without failing on missing
	// commands.
	SkipPreflight bool
	// AllowNoopPatches accepts literal patch rules whose text is already
	// gone from the package.
	AllowNoopPatches bool

	// Output receives command output when Runner is not set.
	Output io.Writer
}

func (o *RuntimeOptions) setDefaults() {
	if o.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			o.WorkDir = wd
		} else {
			o.WorkDir = "."
		}
	}
	if o.OutputDir == "" {
		o.OutputDir = "output"
	}
	if o.PatchesDir == "" {
		o.PatchesDir = "patches"
	}
	if o.TempDir == "" {
		o.TempDir = ".temp"
	}
	o.OutputDir = o.resolve(o.OutputDir)
	o.PatchesDir = o.resolve(o.PatchesDir)
	o.TempDir = o.resolve(o.TempDir)

	if o.GOOS == "" {
		o.GOOS = goruntime.GOOS
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = &NoOpLogger{}
	}
	if o.Metrics == nil {
		o.Metrics = &NoOpMetrics{}
	}
	if o.Console == nil {
		o.Console = tui.NewConsole(o.Output, false)
	}
	if o.Runner == nil {
		o.Runner = NewExecRunner(o.Output, os.Stderr)
	}
	if o.Download.MaxRetries == 0 && !o.Download.NoRetry {
		o.Download.MaxRetries = fetch.DefaultMaxRetries
	}
	if o.InstallRetry == nil {
		o.InstallRetry = DefaultRetryConfig()
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.Build == (BuildOptions{}) && o.Settings != nil {
		o.Build = o.Settings.BuildOptions()
	}
	if o.Settings == nil {
		o.Settings = make(Settings)
	}
}

func (o *RuntimeOptions) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.WorkDir, path)
}

// validate performs lightweight validation of the build settings.
func (o *RuntimeOptions) validate() error {
	if o.WorkDir == "" {
		return errors.New("runtime: work directory is required")
	}
	return o.Build.validate()
}

// DefaultInstallTimeout bounds a single pnpm invocation started by the
// command line.
const DefaultInstallTimeout = 30 * time.Minute
