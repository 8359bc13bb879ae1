package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadSettingsPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configFile := filepath.Join(dir, "pake.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
url: https://from-file.example.com
name: FromFile
width: 1200
fullscreen: true
user_agent: file-agent
`), 0o644))

	settings, err := LoadSettings(mapLookup(map[string]string{
		"NAME":         "FromEnv",
		"USER_AGENT":   "env-agent",
		"MORE_OPTIONS": "USER_AGENT=more-agent&HEIGHT=780&EXTRA=1",
	}), configFile)
	require.NoError(t, err)

	require.Equal(t, "https://from-file.example.com", settings["URL"])
	require.Equal(t, "FromEnv", settings["NAME"])
	require.Equal(t, "1200", settings["WIDTH"])
	require.Equal(t, "true", settings["FULLSCREEN"])
	require.Equal(t, "more-agent", settings["USER_AGENT"])
	require.Equal(t, "780", settings["HEIGHT"])
	require.Equal(t, "1", settings["EXTRA"])

	require.Equal(t, []string{
		"URL", "NAME", "HEIGHT", "WIDTH", "FULLSCREEN", "USER_AGENT", "MORE_OPTIONS", "EXTRA",
	}, settings.Keys())
}

func TestLoadSettingsMoreOptionsLastValueWins(t *testing.T) {
	t.Parallel()

	settings, err := LoadSettings(mapLookup(map[string]string{
		"MORE_OPTIONS": "NAME=first&NAME=second&TARGETS=deb%2Crpm",
	}), "")
	require.NoError(t, err)
	require.Equal(t, "second", settings["NAME"])
	require.Equal(t, "deb,rpm", settings["TARGETS"])
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nested := filepath.Join(dir, "nested.yaml")
	require.NoError(t, os.WriteFile(nested, []byte("name:\n  first: x\n"), 0o644))

	tests := map[string]struct {
		env        map[string]string
		configFile string
	}{
		"missing config file": {configFile: filepath.Join(dir, "absent.yaml")},
		"nested yaml value":   {configFile: nested},
		"bad more options":    {env: map[string]string{"MORE_OPTIONS": "NAME=%zz"}},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadSettings(mapLookup(tc.env), tc.configFile)
			require.Error(t, err)
		})
	}
}

func TestSettingsBuildOptionsBooleansRequireLiteralTrue(t *testing.T) {
	t.Parallel()

	opts := Settings{
		"HIDE_TITLE_BAR": "true",
		"FULLSCREEN":     "TRUE",
		"DARK_MODE":      "1",
		"DEBUG":          "yes",
		"MULTI_ARCH":     "true",
	}.BuildOptions()

	require.True(t, opts.HideTitleBar)
	require.True(t, opts.MultiArch)
	require.False(t, opts.Fullscreen)
	require.False(t, opts.DarkMode)
	require.False(t, opts.Debug)
}

func TestBuildOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts    BuildOptions
		wantErr string
	}{
		"valid": {
			opts: BuildOptions{URL: "https://example.com", Name: "Example", Width: "1200", IconURL: "https://example.com/icon.png"},
		},
		"missing url and name": {
			opts:    BuildOptions{},
			wantErr: "URL and NAME must be set",
		},
		"non numeric width": {
			opts:    BuildOptions{URL: "https://example.com", Name: "Example", Width: "wide"},
			wantErr: "invalid options",
		},
		"icon url not http": {
			opts:    BuildOptions{URL: "https://example.com", Name: "Example", IconURL: "ftp://example.com/icon.png"},
			wantErr: "invalid options",
		},
		"name with path separator": {
			opts:    BuildOptions{URL: "https://example.com", Name: "a/b"},
			wantErr: "invalid options",
		},
		"bad pake version": {
			opts:    BuildOptions{URL: "https://example.com", Name: "Example", PakeCLIVersion: "latest-ish"},
			wantErr: "PAKE_CLI_VERSION",
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tc.opts.validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuildOptionsPackageSpec(t *testing.T) {
	t.Parallel()

	spec, err := BuildOptions{}.PackageSpec("pake-cli")
	require.NoError(t, err)
	require.Equal(t, "pake-cli", spec)

	spec, err = BuildOptions{PakeCLIVersion: "v3.1.1"}.PackageSpec("pake-cli")
	require.NoError(t, err)
	require.Equal(t, "pake-cli@3.1.1", spec)
}
