package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dsrs-analytics/taskdash/internal/chart"
	"github.com/dsrs-analytics/taskdash/internal/dashboard"
)

const barWidth = 30

// newSnapshotCmd creates the snapshot command
func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch once and print the dashboard numbers",
		Long: `Fetch the project's tasks once and print the department and status
summaries shown on the dashboard.

Example:
  taskdash snapshot         # Table
  taskdash snapshot --json  # Same view as /api/dashboard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := loaded.Config
			logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose)

			a := newApp(cmd.Context(), cfg, logger)
			defer a.Close()

			view := a.dashboard.Render(cmd.Context())

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			_, err = io.WriteString(out, renderSnapshot(view, colorEnabled(out)))
			return err
		},
	}
}

// colorEnabled reports whether w is a terminal that should get styled output.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type snapshotStyles struct {
	color   bool
	title   lipgloss.Style
	heading lipgloss.Style
	bar     lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
	warn    lipgloss.Style
}

func newSnapshotStyles(color bool) snapshotStyles {
	return snapshotStyles{
		color:   color,
		title:   lipgloss.NewStyle().Bold(true),
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		errText: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (s snapshotStyles) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

// renderSnapshot formats a view as text: notices, one bar table per chart,
// then the fetch timestamp.
func renderSnapshot(v *dashboard.View, color bool) string {
	st := newSnapshotStyles(color)
	var b strings.Builder

	fmt.Fprintln(&b, st.render(st.title, v.Title))
	fmt.Fprintln(&b)

	for _, n := range v.Notices {
		switch n.Level {
		case dashboard.LevelError:
			fmt.Fprintln(&b, st.render(st.errText, "error: "+n.Message))
		default:
			fmt.Fprintln(&b, st.render(st.warn, "warning: "+n.Message))
		}
	}
	if len(v.Notices) > 0 {
		fmt.Fprintln(&b)
	}

	writeChart(&b, st, v.Departments, v.Total)
	fmt.Fprintln(&b)
	writeChart(&b, st, v.Statuses, v.Total)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, st.render(st.muted, "Data last fetched at: "+v.GeneratedAtText))
	return b.String()
}

func writeChart(b *strings.Builder, st snapshotStyles, c dashboard.Chart, total int) {
	fmt.Fprintf(b, "%s (Total Tasks: %d)\n", st.render(st.heading, c.Title), total)

	var data []chart.DataPoint
	for _, s := range c.Options.Series {
		data = append(data, s.Data...)
	}
	if len(data) == 0 {
		fmt.Fprintln(b, st.render(st.muted, "  (no data)"))
		return
	}

	width, peak := 0, 0
	for _, d := range data {
		width = max(width, len(d.Name))
		peak = max(peak, d.Value)
	}
	for _, d := range data {
		n := 0
		if peak > 0 {
			n = d.Value * barWidth / peak
		}
		bar := strings.Repeat("#", n)
		fmt.Fprintf(b, "  %-*s %4d %s\n", width, d.Name, d.Value, st.render(st.bar, bar))
	}
}
