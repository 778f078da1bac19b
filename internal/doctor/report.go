package doctor

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles for the report.
type Styles struct {
	Title   lipgloss.Style
	Pass    lipgloss.Style
	Warn    lipgloss.Style
	Fail    lipgloss.Style
	Info    lipgloss.Style
	Comment lipgloss.Style
	Error   lipgloss.Style
}

// MakeStyles returns the report styles for the given renderer.
func MakeStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Pass:    r.NewStyle().Foreground(lipgloss.Color("2")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		Fail:    r.NewStyle().Foreground(lipgloss.Color("1")),
		Info:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#757575"}),
		Comment: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#757575"}),
		Error:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

var icons = map[Level]string{
	Pass: "✔",
	Warn: "⚠",
	Fail: "✖",
	Info: "ℹ",
}

// Line renders a single result.
func (s Styles) Line(res Result) string {
	var st lipgloss.Style
	switch res.Level {
	case Pass:
		st = s.Pass
	case Warn:
		st = s.Warn
	case Fail:
		st = s.Fail
	default:
		st = s.Info
	}
	return st.Render(icons[res.Level] + " " + res.Message)
}

// DocsURL is where the report sends users looking for help.
const DocsURL = "https://getclawkit.com/docs"

// Diagnose runs the checks against env and prints the report to w. It only
// returns an error when a check could not run; in that case the error has
// already been printed.
func Diagnose(ctx context.Context, w io.Writer, env Env, checks []Check) error {
	st := MakeStyles(lipgloss.NewRenderer(w))
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Title.Render("🦞 ClawKit Doctor starting..."))
	fmt.Fprintln(w)

	_, err := Run(ctx, env, checks, func(res Result) {
		fmt.Fprintln(w, st.Line(res))
	})
	if err != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Error.Render("❌ Unexpected Error:"), err)
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Title.Render("✅ Diagnosis Complete. Screenshot this if you need help!"))
	fmt.Fprintln(w, st.Comment.Render("For more help, visit: "+DocsURL))
	fmt.Fprintln(w)
	return nil
}
