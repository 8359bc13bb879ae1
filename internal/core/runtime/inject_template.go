package runtime

import (
	"fmt"
	"os"
	"path/filepath"
)

// injectTemplate is a starter inject script: a style block for custom CSS
// and a hook for custom JavaScript, both run once the page DOM is ready.
const injectTemplate = "\n" +
	`window.addEventListener("DOMContentLoaded", () => {
    const css = ` + "`\n\n`" + `;
    const style = document.createElement('style');
    style.innerHTML = css;
    document.head.appendChild(style);
});
` + "\n" +
	`window.addEventListener("DOMContentLoaded", () => {

});
`

// WriteInjectTemplate writes the starter inject script to path. An existing
// file is only replaced when overwrite is set.
func WriteInjectTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("inject template: %s already exists", path)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("inject template: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(injectTemplate), 0o644); err != nil {
		return fmt.Errorf("inject template: write %s: %w", path, err)
	}
	return nil
}
