// Package output formats CLI output for artifactindex commands.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
)

// Writer writes formatted CLI output. Color is used only on terminals and
// when NO_COLOR is unset.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New creates a Writer over out.
func New(out io.Writer) *Writer {
	return &Writer{
		out:      out,
		useColor: IsTTY(out) && !DetectNoColor(),
		styles:   DefaultStyles(),
	}
}

// paint renders s with style on color terminals.
func (w *Writer) paint(style lipgloss.Style, s string) string {
	if !w.useColor {
		return s
	}
	return style.Render(s)
}

// Status prints a status message with an icon.
// Write errors are ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.paint(w.styles.Success, msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.paint(w.styles.Warning, msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.paint(w.styles.Error, msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Artifacts prints one row per artifact: ID, name, category, culture and
// origin. Long cells are truncated.
func (w *Writer) Artifacts(records []artifact.Artifact) {
	if len(records) == 0 {
		w.Status("", "No artifacts.")
		return
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCULTURE\tORIGIN")
	for _, a := range records {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			a.ID,
			truncate(a.Name, 40),
			truncate(a.Category, 20),
			truncate(a.Culture, 20),
			truncate(a.Origin, 20))
	}
	_ = tw.Flush()

	header, rows, _ := strings.Cut(buf.String(), "\n")
	_, _ = fmt.Fprintln(w.out, w.paint(w.styles.Header, header))
	_, _ = io.WriteString(w.out, rows)
}

// Detail prints every indexed field of a.
func (w *Writer) Detail(a *artifact.Artifact) {
	for _, f := range artifact.Fields() {
		if v := f.Render(a); v != "" && v != "0" {
			label := fmt.Sprintf("%-16s", f.Name+":")
			_, _ = fmt.Fprintf(w.out, "  %s %s\n", w.paint(w.styles.Label, label), v)
		}
	}
}

// Progress prints a progress bar with message.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", renderProgressBar(current, total, 30), pct, msg)
	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
