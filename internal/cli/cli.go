// Package cli implements the pakebuild command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/asynkron/pakebuild/internal/core/runtime"
	"github.com/asynkron/pakebuild/internal/pake"
	"github.com/asynkron/pakebuild/internal/tui"
	"github.com/asynkron/pakebuild/pkg/fetch"
	"github.com/asynkron/pakebuild/pkg/patch"
)

// Run executes the pakebuild command line with args and returns the process
// exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return run(ctx, args, stdout, stderr, osLookup)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	a := &app{stdout: stdout, stderr: stderr, lookup: lookup}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

type app struct {
	opts   rootOptions
	stdout io.Writer
	stderr io.Writer
	lookup func(string) (string, bool)
	logger runtime.Logger
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pakebuild",
		Short: "Build a desktop app for a web page with pake-cli",
		Long: `pakebuild downloads the configured icons and inject script, installs and
patches pake-cli with pnpm, runs it and copies the produced installers
into the output directory.

Settings come from the environment (URL, NAME, ICON_URL, ...), a .env
file, an optional YAML config file and the MORE_OPTIONS query string.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.build(cmd.Context())
		},
	}
	a.opts.register(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "build",
			Short: "Build the app (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.build(cmd.Context())
			},
		},
		a.patchCommand(),
		&cobra.Command{
			Use:   "sniff <file>",
			Short: "Print the file extension implied by a file's content",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				ext, err := fetch.InferExtname(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, ext)
				return nil
			},
		},
		a.injectTemplateCommand(),
	)
	return root
}

func (a *app) patchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <dir>",
		Short: "Apply the pake-cli patches to an extracted package directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := runtime.WithStep(cmd.Context(), runtime.StepPatch)
			results, err := patch.Apply(ctx, args[0], pake.StaticRules(), patch.Options{
				AllowNoop: a.opts.allowNoop,
				OnNoop: func(rule, path string) {
					a.logger.Warn(ctx, "patch rule matched nothing", runtime.Field("rule", rule), runtime.Field("path", path))
				},
			})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				rows = append(rows, []string{res.Status, res.Path, strings.Join(res.Rules, ", ")})
			}
			a.console().Table([]string{"Status", "Path", "Rules"}, rows)
			return nil
		},
	}
}

func (a *app) injectTemplateCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "inject-template [path]",
		Short: "Write a starter inject script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "inject.js"
			if len(args) == 1 {
				path = args[0]
			}
			if err := runtime.WriteInjectTemplate(path, force); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// setup resolves flags from the environment, loads the dotenv file and
// configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	setFlagsFromEnvVars(cmd.Root(), a.lookup)

	dotenv, err := a.readEnvFile(cmd.Root().PersistentFlags().Changed("env-file"))
	if err != nil {
		return err
	}
	base := a.lookup
	a.lookup = func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	logger, err := runtime.InitLog(a.opts.logLevel, a.opts.logFile)
	if err != nil {
		return fmt.Errorf("cli: configure logging: %w", err)
	}
	a.logger = runtime.NewLogrusLogger(logger)
	return nil
}

// readEnvFile reads the dotenv file. Process environment values take
// precedence over its entries. A missing default file is ignored.
func (a *app) readEnvFile(explicit bool) (map[string]string, error) {
	if strings.TrimSpace(a.opts.envFile) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(a.opts.envFile)
	if err == nil {
		return values, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil, nil
	}
	return nil, fmt.Errorf("cli: load %s: %w", a.opts.envFile, err)
}

func (a *app) console() *tui.Console {
	return tui.NewConsole(a.stdout, a.opts.noColor || noColorRequested(a.lookup))
}

func (a *app) build(ctx context.Context) error {
	settings, err := runtime.LoadSettings(a.lookup, a.opts.configFile)
	if err != nil {
		return err
	}

	console := a.console()
	rt, err := runtime.NewRuntime(runtime.RuntimeOptions{
		Settings:         settings,
		WorkDir:          a.opts.workDir,
		OutputDir:        a.opts.outputDir,
		PatchesDir:       a.opts.patchesDir,
		DryRun:           a.opts.dryRun,
		AllowNoopPatches: a.opts.allowNoop,
		SkipPreflight:    a.opts.skipCheck,
		Runner: &runtime.ExecRunner{
			Stdout:  a.stdout,
			Stderr:  a.stderr,
			Timeout: runtime.DefaultInstallTimeout,
		},
		Logger:  a.logger,
		Metrics: runtime.NewInMemoryMetrics(),
		Console: console,
		Output:  a.stdout,
	})
	if err != nil {
		return err
	}

	report, runErr := rt.Run(ctx)
	if report != nil {
		if err := report.PrintSummary(console); err != nil {
			a.logger.Warn(ctx, "failed to render build report", runtime.Field("error", err.Error()))
		}
	}
	return runErr
}

