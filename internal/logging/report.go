// Package logging writes session reports for feel runs.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allapse/feel/internal/locale"
	"github.com/allapse/feel/internal/processor"
	"github.com/allapse/feel/internal/session"
)

// ReportData is everything a session report describes
type ReportData struct {
	Dir string // directory for the report, "" for the working directory

	Mode           string // "watch" or "serve"
	Source         string // track path, empty for the synth
	SourceDuration time.Duration
	SynthBPM       float64

	StartTime time.Time
	EndTime   time.Time

	FPS       int
	FFTSize   int
	Smoothing float64

	Addr    string // websocket address in serve mode
	Dropped int    // frames dropped for slow renderers

	Locale   locale.Info
	Bindings []processor.Binding
	Summary  session.Summary
}

// Movement thresholds as a fraction of a control's range
const (
	movementStatic = 0.05
	movementSubtle = 0.25
	movementLively = 0.6
)

// GenerateReport writes a session report and returns its path
func GenerateReport(data ReportData) (string, error) {
	path := filepath.Join(data.Dir, ReportName(data.StartTime))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// ReportName is the report file name for a session started at t
func ReportName(t time.Time) string {
	return fmt.Sprintf("feel-%s.log", t.Format("20060102-150405"))
}

// WriteReport renders the report to w
func WriteReport(w io.Writer, data ReportData) error {
	var sb strings.Builder

	writeReportHeader(&sb, data)
	writeSessionSection(&sb, data)
	writeBeatSection(&sb, data.Summary)
	writeControlsSection(&sb, data.Bindings, data.Summary)
	writeVolumeSection(&sb, data.Summary)

	_, err := io.WriteString(w, sb.String())
	return err
}

// writeSection writes a section title with a dashed underline
func writeSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Feel Session Report")
	fmt.Fprintln(w, "===================")
	fmt.Fprintf(w, "Source:   %s\n", describeSource(data))
	fmt.Fprintf(w, "Started:  %s\n", data.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Finished: %s\n", data.EndTime.Format("2006-01-02 15:04:05"))
	if data.Locale.Timezone != "" {
		fmt.Fprintf(w, "Locale:   %s\n", data.Locale)
	}
}

func describeSource(data ReportData) string {
	if data.Source == "" {
		return fmt.Sprintf("synth at %.0f BPM", data.SynthBPM)
	}
	if data.SourceDuration > 0 {
		return fmt.Sprintf("%s (%s)", data.Source, formatDuration(data.SourceDuration))
	}
	return data.Source
}

func writeSessionSection(w io.Writer, data ReportData) {
	writeSection(w, "Session")

	s := data.Summary
	fmt.Fprintf(w, "Mode:      %s\n", data.Mode)
	fmt.Fprintf(w, "Wall time: %s\n", formatDuration(data.EndTime.Sub(data.StartTime)))
	fmt.Fprintf(w, "Frames:    %d over %s", s.Frames, formatDuration(s.Elapsed))
	if secs := s.Elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(w, " (%.1f fps, target %d)", float64(s.Frames)/secs, data.FPS)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Analyser:  %d-point FFT, smoothing %s\n", data.FFTSize, formatMetric(data.Smoothing, 2))
	if data.Addr != "" {
		fmt.Fprintf(w, "Server:    ws://%s/ws, %d frames dropped\n", data.Addr, data.Dropped)
	}
}

func writeBeatSection(w io.Writer, s session.Summary) {
	writeSection(w, "Beat Clock")

	if s.LockedFrames == 0 {
		fmt.Fprintln(w, "Never locked")
		return
	}
	fmt.Fprintf(w, "Tempo:  %s\n", formatMetricWithUnit(s.BPM, 1, "BPM"))
	fmt.Fprintf(w, "Locked: %s of frames\n", formatPercent(s.LockedFrames, s.Frames))
	fmt.Fprintf(w, "Beats:  %d\n", s.Beats)
}

func writeControlsSection(w io.Writer, bindings []processor.Binding, s session.Summary) {
	writeSection(w, "Controls")

	if len(s.Controls) == 0 || s.Frames == 0 {
		fmt.Fprintln(w, "No frames recorded")
		return
	}

	byKey := make(map[string]processor.Binding, len(bindings))
	for _, b := range bindings {
		byKey[b.Key] = b
	}

	table := NewMetricTable("Min", "Mean", "Max", "Drift", "Manual")
	for _, c := range s.Controls {
		b, ok := byKey[c.Key]
		drift := MissingValue
		interpretation := ""
		if ok {
			drift = formatMetricSigned(c.Mean-b.Initial, 3)
			interpretation = interpretMovement(b, c)
		}
		table.AddRow(c.Key, []string{
			formatMetric(c.Min, 3),
			formatMetric(c.Mean, 3),
			formatMetric(c.Max, 3),
			drift,
			formatPercent(c.Overridden, s.Frames),
		}, "", interpretation)
	}
	fmt.Fprint(w, table.String())
}

// interpretMovement describes how much of its range a control used
func interpretMovement(b processor.Binding, c session.ControlStats) string {
	span := b.Max - b.Min
	if span <= 0 {
		return ""
	}
	used := (c.Max - c.Min) / span
	switch {
	case used < movementStatic:
		return "static"
	case used < movementSubtle:
		return "subtle"
	case used < movementLively:
		return "lively"
	default:
		return "full range"
	}
}

func writeVolumeSection(w io.Writer, s session.Summary) {
	writeSection(w, "Volume")

	table := NewMetricTable("Mean", "Peak")
	table.AddMetricRow("Level", []float64{s.MeanVolume, s.PeakVolume}, 3, "", "")
	fmt.Fprint(w, table.String())
}

func formatPercent(n, of int) string {
	if of <= 0 {
		return MissingValue
	}
	return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(of))
}

// formatDuration formats a duration as "12.3s" or "4m 05s"
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}
