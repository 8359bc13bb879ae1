package runtime

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/asynkron/pakebuild/internal/tui"
)

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder

	title := "Build report"
	if r.DryRun {
		title = "Build plan"
	}
	if r.Name != "" {
		title += ": " + r.Name
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(r.Metrics.Steps) > 0 {
		b.WriteString("| Step | Duration | Status |\n|---|---|---|\n")
		for _, step := range r.Metrics.Steps {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", step.Name, step.Duration.Round(time.Millisecond), status(step.Success))
		}
		b.WriteString("\n")
	}

	if len(r.Patched) > 0 {
		b.WriteString("## Patched files\n\n")
		for _, res := range r.Patched {
			fmt.Fprintf(&b, "- `%s` %s (%s)\n", res.Path, res.Status, strings.Join(res.Rules, ", "))
		}
		b.WriteString("\n")
	}

	if len(r.Args) > 0 {
		b.WriteString("## Command\n\n```\npake " + strings.Join(r.Args, " ") + "\n```\n\n")
	}

	if len(r.Installers) > 0 {
		b.WriteString("## Installers\n\n")
		for _, installer := range r.Installers {
			fmt.Fprintf(&b, "- `%s`\n", filepath.Base(installer))
		}
	}
	return b.String()
}

// PrintSummary writes the metrics tables and the markdown report to console.
func (r *Report) PrintSummary(console *tui.Console) error {
	if len(r.Metrics.Downloads) > 0 {
		console.Section("Downloads:")
		rows := make([][]string, 0, len(r.Metrics.Downloads))
		for _, dl := range r.Metrics.Downloads {
			rows = append(rows, []string{
				dl.Asset,
				fmt.Sprint(dl.Attempts),
				fmt.Sprint(dl.Bytes),
				dl.Duration.Round(time.Millisecond).String(),
				status(dl.Success),
			})
		}
		console.Table([]string{"Asset", "Attempts", "Bytes", "Duration", "Status"}, rows)
	}
	console.Section("")
	return console.Markdown(r.Markdown())
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
