// Package tui renders the console output of a build: section banners,
// key/value tables and the final markdown report.
package tui

import (
	"fmt"
	"io"
	"strings"

	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

const (
	bannerWidth  = 36
	markdownWrap = 100
)

// Console writes human readable build output.
type Console struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	plain    bool

	banner lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
}

// NewConsole builds a console for out. Colors are disabled when noColor is
// set or out is not a terminal.
func NewConsole(out io.Writer, noColor bool) *Console {
	if out == nil {
		out = io.Discard
	}
	r := lipgloss.NewRenderer(out)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Console{
		out:      out,
		renderer: r,
		plain:    r.ColorProfile() == termenv.Ascii,
		banner:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		border:   r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Plain reports whether output is rendered without ANSI styling.
func (c *Console) Plain() bool {
	return c.plain
}

// Section prints a banner separating build steps.
func (c *Console) Section(title string) {
	fmt.Fprintln(c.out, c.banner.Render(strings.Repeat("=", bannerWidth)))
	if title != "" {
		fmt.Fprintln(c.out, c.banner.Render(title))
	}
}

// Println writes a plain line.
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// Table prints rows under headers.
func (c *Console) Table(headers []string, rows [][]string) {
	header := c.header
	cell := c.cell
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(c.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(c.out, t.String())
}

// KeyValues prints pairs as a two column table, keeping their order.
func (c *Console) KeyValues(keyHeader, valueHeader string, keys []string, values map[string]string) {
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, values[key]})
	}
	c.Table([]string{keyHeader, valueHeader}, rows)
}

// Markdown renders md for the terminal, falling back to the raw text when it
// cannot be rendered.
func (c *Console) Markdown(md string) error {
	style := "dark"
	if c.plain {
		style = "notty"
	}
	r, err := glam.NewTermRenderer(
		glam.WithStandardStyle(style),
		glam.WithWordWrap(markdownWrap),
	)
	if err != nil {
		fmt.Fprintln(c.out, md)
		return err
	}
	rendered, err := r.Render(md)
	if err != nil {
		fmt.Fprintln(c.out, md)
		return err
	}
	fmt.Fprint(c.out, rendered)
	return nil
}
