package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ankivox/core/metrics"
	"ankivox/core/reconcile"
	"ankivox/core/speech"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// maxFailShown bounds the failures listed after a run.
const maxFailShown = 10

// runReport is the document written by --report.
type runReport struct {
	Run     *reconcile.RunSummary `json:"run" yaml:"run"`
	Metrics *metrics.Snapshot     `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// printSummary renders the run summary for humans. snap may be nil.
func printSummary(w io.Writer, s *reconcile.RunSummary, snap *metrics.Snapshot, dryRun bool) {
	title := "Sync summary"
	if dryRun {
		title = "Sync plan (dry run)"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintf(w, "  %-12s %d\n", "Processed", s.Processed)
	fmt.Fprintf(w, "  %-12s %s\n", "Synthesized", okStyle.Render(strconv.Itoa(s.Synthesized)))
	fmt.Fprintf(w, "  %-12s %s\n", "Skipped", warnStyle.Render(strconv.Itoa(s.Skipped)))
	fmt.Fprintf(w, "  %-12s %s\n", "Failed", errStyle.Render(strconv.Itoa(s.Failed)))
	if s.Leaked > 0 || len(s.CleanupErrors) > 0 {
		fmt.Fprintf(w, "  %-12s %s\n", "Cleanup", warnStyle.Render(fmt.Sprintf("%d leaked, %d errors", s.Leaked, len(s.CleanupErrors))))
	}
	fmt.Fprintln(w, mutedStyle.Render("  run "+s.RunID))

	printStages(w, snap)

	if len(s.Failures) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Failures"))
	for i, f := range s.Failures {
		if i == maxFailShown {
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  ... %d more", len(s.Failures)-maxFailShown)))
			break
		}
		fmt.Fprintf(w, "  %s %s\n", errStyle.Render(f.RecordID), f.Error)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Retry the failed notes with:")
	fmt.Fprintf(w, "  -q %q\n", s.RetryQuery())
}

// printStages lists call count, errors and mean latency per remote stage.
func printStages(w io.Writer, snap *metrics.Snapshot) {
	if snap == nil || len(snap.Stages) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Stages"))
	for _, st := range snap.Stages {
		errs := mutedStyle.Render("0 errors")
		if st.Errors > 0 {
			errs = errStyle.Render(fmt.Sprintf("%d errors", st.Errors))
		}
		fmt.Fprintf(w, "  %-12s %4d calls  avg %-8s %s\n", st.Stage, st.Calls, st.Mean().Round(time.Millisecond), errs)
	}
	if snap.TempAudioLive != 0 {
		fmt.Fprintf(w, "  %-12s %s\n", "Temp audio", warnStyle.Render(fmt.Sprintf("%d still staged", snap.TempAudioLive)))
	}
}

// writeReport writes the report as YAML for .yaml/.yml paths and JSON otherwise.
func writeReport(path string, r *runReport) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// voiceTable renders voices as a bordered table.
func voiceTable(voices []speech.Voice) string {
	rows := make([][]string, 0, len(voices))
	for _, v := range voices {
		rows = append(rows, []string{v.ShortName, v.Gender, v.Locale, v.LocalName})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Short name", "Gender", "Locale", "Local name").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
