package runtime

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// EnvKeys lists the environment variables that configure a build, in the
// order they are reported.
var EnvKeys = []string{
	"URL",
	"NAME",
	"ICON_URL",
	"HEIGHT",
	"WIDTH",
	"HIDE_TITLE_BAR",
	"FULLSCREEN",
	"ACTIVATION_SHORTCUT",
	"ALWAYS_ON_TOP",
	"APP_VERSION",
	"DARK_MODE",
	"DISABLED_WEB_SHORTCUTS",
	"MULTI_ARCH",
	"TARGETS",
	"USER_AGENT",
	"SHOW_SYSTEM_TRAY",
	"SYSTEM_TRAY_ICON_URL",
	"INSTALLER_LANGUAGE",
	"INJECT_URL",
	"PROXY_URL",
	"DEBUG",
	"MORE_OPTIONS",
	"PAKE_CLI_VERSION",
}

// BuildOptions is the build configuration gathered from the environment.
type BuildOptions struct {
	URL                  string
	Name                 string
	IconURL              string
	Height               string
	Width                string
	HideTitleBar         bool
	Fullscreen           bool
	ActivationShortcut   string
	AlwaysOnTop          bool
	AppVersion           string
	DarkMode             bool
	DisabledWebShortcuts bool
	MultiArch            bool
	Targets              string
	UserAgent            string
	ShowSystemTray       bool
	SystemTrayIconURL    string
	InstallerLanguage    string
	InjectURL            string
	ProxyURL             string
	Debug                bool
	// PakeCLIVersion pins the installed pake-cli release. Empty installs the
	// latest one.
	PakeCLIVersion string
}

// Settings is the resolved key/value view of the configuration, keyed by
// environment variable name.
type Settings map[string]string

// Keys returns the known keys first, in EnvKeys order, followed by any extra
// keys supplied through MORE_OPTIONS in lexical order.
func (s Settings) Keys() []string {
	known := make(map[string]struct{}, len(EnvKeys))
	keys := make([]string, 0, len(s))
	for _, key := range EnvKeys {
		known[key] = struct{}{}
		if _, ok := s[key]; ok {
			keys = append(keys, key)
		}
	}
	var extra []string
	for key := range s {
		if _, ok := known[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// LoadSettings resolves the configuration. Values from configFile (YAML,
// optional) are overridden by lookup, which is in turn overridden by the
// query string in MORE_OPTIONS.
func LoadSettings(lookup func(string) (string, bool), configFile string) (Settings, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	settings := make(Settings)

	if strings.TrimSpace(configFile) != "" {
		fromFile, err := readConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			settings[k] = v
		}
	}

	for _, key := range EnvKeys {
		if value, ok := lookup(key); ok {
			settings[key] = value
		}
	}

	if more := strings.TrimSpace(settings["MORE_OPTIONS"]); more != "" {
		values, err := url.ParseQuery(more)
		if err != nil {
			return nil, fmt.Errorf("config: parse MORE_OPTIONS: %w", err)
		}
		for key, vals := range values {
			if len(vals) == 0 {
				continue
			}
			settings[key] = vals[len(vals)-1]
		}
	}
	return settings, nil
}

func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[strings.ToUpper(key)] = v
		case bool:
			out[strings.ToUpper(key)] = strconv.FormatBool(v)
		case int, int64, float64:
			out[strings.ToUpper(key)] = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("config: %s: unsupported value for %s", path, key)
		}
	}
	return out, nil
}

// BuildOptions converts the settings into typed options. Booleans are only
// true for the literal "true".
func (s Settings) BuildOptions() BuildOptions {
	flag := func(key string) bool { return s[key] == "true" }
	return BuildOptions{
		URL:                  s["URL"],
		Name:                 s["NAME"],
		IconURL:              s["ICON_URL"],
		Height:               s["HEIGHT"],
		Width:                s["WIDTH"],
		HideTitleBar:         flag("HIDE_TITLE_BAR"),
		Fullscreen:           flag("FULLSCREEN"),
		ActivationShortcut:   s["ACTIVATION_SHORTCUT"],
		AlwaysOnTop:          flag("ALWAYS_ON_TOP"),
		AppVersion:           s["APP_VERSION"],
		DarkMode:             flag("DARK_MODE"),
		DisabledWebShortcuts: flag("DISABLED_WEB_SHORTCUTS"),
		MultiArch:            flag("MULTI_ARCH"),
		Targets:              s["TARGETS"],
		UserAgent:            s["USER_AGENT"],
		ShowSystemTray:       flag("SHOW_SYSTEM_TRAY"),
		SystemTrayIconURL:    s["SYSTEM_TRAY_ICON_URL"],
		InstallerLanguage:    s["INSTALLER_LANGUAGE"],
		InjectURL:            s["INJECT_URL"],
		ProxyURL:             s["PROXY_URL"],
		Debug:                flag("DEBUG"),
		PakeCLIVersion:       strings.TrimSpace(s["PAKE_CLI_VERSION"]),
	}
}

// PackageSpec returns the argument for the package manager install command.
func (o BuildOptions) PackageSpec(pkg string) (string, error) {
	if o.PakeCLIVersion == "" {
		return pkg, nil
	}
	v, err := version.NewVersion(o.PakeCLIVersion)
	if err != nil {
		return "", fmt.Errorf("config: PAKE_CLI_VERSION: %w", err)
	}
	return pkg + "@" + v.String(), nil
}

// validate checks required settings and the schema.
func (o BuildOptions) validate() error {
	var missing []string
	if strings.TrimSpace(o.URL) == "" {
		missing = append(missing, "URL")
	}
	if strings.TrimSpace(o.Name) == "" {
		missing = append(missing, "NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: %s must be set", strings.Join(missing, " and "))
	}
	if _, err := o.PackageSpec("pake-cli"); err != nil {
		return err
	}
	if err := validateOptionsAgainstSchema(o.document()); err != nil {
		var schemaErr schemaValidationError
		if errors.As(err, &schemaErr) {
			return fmt.Errorf("config: invalid options: %w", err)
		}
		return err
	}
	return nil
}

// document is the JSON view of the options validated against the schema.
// Empty strings are left out so that optional settings stay optional.
func (o BuildOptions) document() map[string]any {
	doc := map[string]any{
		"url":                    o.URL,
		"name":                   o.Name,
		"hide_title_bar":         o.HideTitleBar,
		"fullscreen":             o.Fullscreen,
		"always_on_top":          o.AlwaysOnTop,
		"dark_mode":              o.DarkMode,
		"disabled_web_shortcuts": o.DisabledWebShortcuts,
		"multi_arch":             o.MultiArch,
		"show_system_tray":       o.ShowSystemTray,
		"debug":                  o.Debug,
	}
	optional := map[string]string{
		"icon_url":             o.IconURL,
		"height":               o.Height,
		"width":                o.Width,
		"activation_shortcut":  o.ActivationShortcut,
		"app_version":          o.AppVersion,
		"targets":              o.Targets,
		"user_agent":           o.UserAgent,
		"system_tray_icon_url": o.SystemTrayIconURL,
		"installer_language":   o.InstallerLanguage,
		"inject_url":           o.InjectURL,
		"proxy_url":            o.ProxyURL,
		"pake_cli_version":     o.PakeCLIVersion,
	}
	for key, value := range optional {
		if value != "" {
			doc[key] = value
		}
	}
	return doc
}
