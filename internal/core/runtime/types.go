package runtime

// CLIOption is a single flag passed to the packaging tool. Value is a string,
// a bool or a []string; any other type is ignored.
type CLIOption struct {
	Flag  string
	Value any
}

// Assets holds the local files produced by the download step.
type Assets struct {
	Icon     string
	TrayIcon string
	Inject   []string
}

// CLIOptions lists the packaging tool flags in their fixed order.
func (o BuildOptions) CLIOptions(assets Assets) []CLIOption {
	return []CLIOption{
		{Flag: "name", Value: o.Name},
		{Flag: "icon", Value: assets.Icon},
		{Flag: "height", Value: o.Height},
		{Flag: "width", Value: o.Width},
		{Flag: "hide-title-bar", Value: o.HideTitleBar},
		{Flag: "fullscreen", Value: o.Fullscreen},
		{Flag: "activation-shortcut", Value: o.ActivationShortcut},
		{Flag: "always-on-top", Value: o.AlwaysOnTop},
		{Flag: "app-version", Value: o.AppVersion},
		{Flag: "dark-mode", Value: o.DarkMode},
		{Flag: "disabled-web-shortcuts", Value: o.DisabledWebShortcuts},
		{Flag: "multi-arch", Value: o.MultiArch},
		{Flag: "targets", Value: o.Targets},
		{Flag: "user-agent", Value: o.UserAgent},
		{Flag: "show-system-tray", Value: o.ShowSystemTray},
		{Flag: "system-tray-icon", Value: assets.TrayIcon},
		{Flag: "installer-language", Value: o.InstallerLanguage},
		{Flag: "inject", Value: assets.Inject},
		{Flag: "proxy-url", Value: o.ProxyURL},
		{Flag: "debug", Value: o.Debug},
	}
}

// BuildArgs renders the argument list for the packaging tool: url first,
// then "--flag value" for non-empty strings, "--flag" for true booleans and
// one "--flag value" pair per non-empty list element.
func BuildArgs(url string, options []CLIOption) []string {
	args := []string{url}
	for _, opt := range options {
		switch value := opt.Value.(type) {
		case string:
			if value != "" {
				args = append(args, "--"+opt.Flag, value)
			}
		case bool:
			if value {
				args = append(args, "--"+opt.Flag)
			}
		case []string:
			for _, v := range value {
				if v != "" {
					args = append(args, "--"+opt.Flag, v)
				}
			}
		}
	}
	return args
}
