// Package output renders human-readable probe output.
package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")) // Bright green
)

// Console prints tagged, indented lines in the style of the probe reports.
// A disabled console swallows everything; --json mode uses that so the
// only stdout output is the final report document.
type Console struct {
	w        io.Writer
	enabled  bool
	useColor bool
}

// NewConsole creates a console writing to w. When enabled is false all
// output is suppressed.
func NewConsole(w io.Writer, enabled, useColor bool) *Console {
	return &Console{w: w, enabled: enabled, useColor: useColor}
}

// Enabled reports whether the console emits output.
func (c *Console) Enabled() bool {
	return c.enabled
}

// Banner prints the tool banner.
func (c *Console) Banner(name, version string) {
	if !c.enabled {
		return
	}
	line := fmt.Sprintf("%s %s", name, version)
	if c.useColor {
		line = bannerStyle.Render(line)
	}
	fmt.Fprintln(c.w, line)
}

// Header prints a probe section header.
func (c *Console) Header(title string) {
	if !c.enabled {
		return
	}
	if c.useColor {
		title = headerStyle.Render(title)
	}
	fmt.Fprintf(c.w, "\n[*] %s\n", title)
}

// Info prints an informational line.
func (c *Console) Info(indent int, format string, args ...any) {
	c.line("INFO", nil, indent, format, args...)
}

// Vuln prints a finding line.
func (c *Console) Vuln(indent int, format string, args ...any) {
	c.line("VULN", color.New(color.FgRed, color.Bold), indent, format, args...)
}

// Warn prints a warning line.
func (c *Console) Warn(indent int, format string, args ...any) {
	c.line("WARN", color.New(color.FgYellow), indent, format, args...)
}

// Error prints an error line.
func (c *Console) Error(indent int, format string, args ...any) {
	c.line("ERROR", color.New(color.FgRed), indent, format, args...)
}

func (c *Console) line(tag string, tagColor *color.Color, indent int, format string, args ...any) {
	if !c.enabled {
		return
	}
	if c.useColor && tagColor != nil {
		tag = tagColor.Sprint(tag)
	}
	fmt.Fprintf(c.w, "%s[%s] %s\n", strings.Repeat(" ", indent), tag, fmt.Sprintf(format, args...))
}

// Buffered returns a console with identical settings that captures output
// in the returned buffer. Used to keep one probe's output block contiguous
// when probes run concurrently.
func (c *Console) Buffered() (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Console{w: &buf, enabled: c.enabled, useColor: c.useColor}, &buf
}

// Flush writes captured buffer contents to this console's writer.
func (c *Console) Flush(buf *bytes.Buffer) {
	if !c.enabled || buf.Len() == 0 {
		return
	}
	io.Copy(c.w, buf)
}

// Table prints an aligned table using tabwriter.
func (c *Console) Table(indent int, headers []string, rows [][]string) {
	if !c.enabled {
		return
	}
	prefix := strings.Repeat(" ", indent)
	tw := tabwriter.NewWriter(c.w, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		header := strings.Join(headers, "\t")
		if c.useColor {
			cols := make([]string, len(headers))
			for i, h := range headers {
				cols[i] = color.New(color.Bold).Sprint(strings.ToUpper(h))
			}
			header = strings.Join(cols, "\t")
		}
		fmt.Fprintf(tw, "%s%s\n", prefix, header)
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s%s\n", prefix, strings.Join(row, "\t"))
	}
	tw.Flush()
}
