package cli

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const envPrefix = "PAKEBUILD_"

type rootOptions struct {
	envFile    string
	configFile string
	logLevel   string
	logFile    string
	workDir    string
	outputDir  string
	patchesDir string
	dryRun     bool
	noColor    bool
	allowNoop  bool
	skipCheck  bool
}

func (o *rootOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.envFile, "env-file", ".env", "dotenv file with build settings; a missing file is ignored")
	flags.StringVar(&o.configFile, "config", "", "optional YAML file with build settings")
	flags.StringVar(&o.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&o.logFile, "log-file", "console", `log file path, or "console" for stderr`)
	flags.StringVar(&o.workDir, "workdir", "", "directory the build runs in (default: current directory)")
	flags.StringVar(&o.outputDir, "output-dir", "output", "directory the installers are copied to")
	flags.StringVar(&o.patchesDir, "patches-dir", "patches", "directory pnpm patch files are committed to")
	flags.BoolVar(&o.dryRun, "dry-run", false, "print the build plan without downloading or running pnpm")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&o.allowNoop, "allow-noop", false, "accept patch rules whose text is already gone")
	flags.BoolVar(&o.skipCheck, "skip-preflight", false, "report missing node or pnpm without failing")
}

// setFlagsFromEnvVars fills persistent flags that were not given on the
// command line from PAKEBUILD_<FLAG_NAME> environment variables.
func setFlagsFromEnvVars(cmd *cobra.Command, lookup func(string) (string, bool)) {
	flags := cmd.PersistentFlags()
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		envName := envPrefix + flagNameToUpper(f.Name)
		if value, ok := lookup(envName); ok {
			if err := flags.Set(f.Name, value); err != nil {
				log.Infof("unable to configure flag %s using variable %s, err: %v", f.Name, envName, err)
			}
		}
	})
}

// flagNameToUpper converts a flag name to its env form, e.g. log-level ->
// LOG_LEVEL.
func flagNameToUpper(cmdFlag string) string {
	return strings.ToUpper(strings.ReplaceAll(cmdFlag, "-", "_"))
}

func noColorRequested(lookup func(string) (string, bool)) bool {
	_, ok := lookup("NO_COLOR")
	return ok
}

func osLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}
