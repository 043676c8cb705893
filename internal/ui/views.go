package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allapse/feel/internal/cli"
	"github.com/allapse/feel/internal/processor"
)

// Spinner frames while the beat clock is still detecting
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	boxWidth   = 76
	barWidth   = 24
	meterWidth = 40
	flashShown = 0.1 // flash level at which the spark is drawn
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(cli.Magenta)
	subtitleStyle = lipgloss.NewStyle().Foreground(cli.Slate).Italic(true)
	dimStyle      = lipgloss.NewStyle().Foreground(cli.Slate)
	okStyle       = lipgloss.NewStyle().Foreground(cli.Cyan)
	warnStyle     = lipgloss.NewStyle().Foreground(cli.Amber)
	failStyle     = lipgloss.NewStyle().Bold(true).Foreground(cli.Coral)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.Snow)
	activeArrow   = lipgloss.NewStyle().Bold(true).Foreground(cli.Magenta)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cli.Magenta).
			Padding(0, 1).
			Width(boxWidth)
	panelStyle = boxStyle.BorderForeground(cli.Slate)
)

// renderSessionView renders the main live view
func renderSessionView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderControls(m))
	b.WriteString("\n")
	b.WriteString(renderMeters(m))
	b.WriteString("\n")
	b.WriteString(renderGyro(m))
	b.WriteString("\n")
	b.WriteString(renderFooter(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := titleStyle.Render("feel ♪ audio-reactive controls")

	var source string
	switch {
	case m.Source.Name != "":
		source = fmt.Sprintf("Playing %s (%s)", m.Source.Name, formatDuration(m.Source.Duration))
	case m.Source.BPM > 0:
		source = fmt.Sprintf("Synth at %.0f BPM", m.Source.BPM)
	default:
		source = "Waiting for source"
	}

	return title + "\n" + subtitleStyle.Render(source) + "\n" + renderBeat(m)
}

// renderBeat renders the beat clock state and the current pulse
func renderBeat(m Model) string {
	f := m.Last.Frame
	var state string
	if f.BeatLocked {
		state = okStyle.Render(fmt.Sprintf("● locked %.0f BPM", f.BPM))
	} else {
		spin := spinnerFrames[m.Frames%len(spinnerFrames)]
		state = warnStyle.Render(spin + " detecting beat")
	}
	return fmt.Sprintf("%s  pulse %s", state, renderBar(f.Pulse, 10))
}

// renderControls renders one row per control
func renderControls(m Model) string {
	var content strings.Builder
	for i, b := range m.Bindings {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(renderControlRow(m, i, b))
	}
	return boxStyle.Render(content.String())
}

// renderControlRow renders a control's value bar, accent and flash
func renderControlRow(m Model, index int, b processor.Binding) string {
	f := m.Last.Frame
	value := f.Params[b.Key]

	cursor := "  "
	name := fmt.Sprintf("%-12s", b.Key)
	if index == m.Selected {
		cursor = "▸ "
		name = selectedStyle.Render(name)
	}

	spark := " "
	if f.Flash[b.Key] > flashShown {
		spark = activeArrow.Render("✦")
	}

	tag := dimStyle.Render(string(modeOf(b)))
	if _, held := m.Last.Overrides[b.Key]; held {
		tag = warnStyle.Render("manual")
	}

	return fmt.Sprintf("%s%s %s %7.3f %s accent %s %s",
		cursor, name, renderBar(f.Openness[b.Key], barWidth), value, spark,
		renderBar(f.Accents[b.Key], 5), tag)
}

func modeOf(b processor.Binding) processor.Mode {
	if b.Mode == "" {
		return processor.ModeSpectral
	}
	return b.Mode
}

// renderMeters renders the volume and peak meters
func renderMeters(m Model) string {
	v := m.Last.Frame.Volume
	content := fmt.Sprintf("Volume %s\nPeak   %s\nLevel  avg %.3f | smoothed %.3f | peak %.3f",
		renderBar(v.MeterVolume, meterWidth),
		renderBar(v.MeterPeak, meterWidth),
		v.Average, v.Smoothed, v.Peak)
	return panelStyle.Render(content)
}

// renderGyro renders tilt, direction arrows and tracker state
func renderGyro(m Model) string {
	u := m.Last
	arrow := func(on bool, glyph string) string {
		if on {
			return activeArrow.Render(glyph)
		}
		return dimStyle.Render(glyph)
	}

	state := dimStyle.Render("waiting for orientation")
	switch {
	case u.GyroLocked:
		state = warnStyle.Render("locked")
	case u.Calibrated:
		state = okStyle.Render("tracking")
	}

	content := fmt.Sprintf("Tilt x %+.2f y %+.2f  %s%s%s%s  %s",
		u.Frame.Tilt.X, u.Frame.Tilt.Y,
		arrow(u.Direction.Up, "↑"), arrow(u.Direction.Down, "↓"),
		arrow(u.Direction.Left, "←"), arrow(u.Direction.Right, "→"),
		state)
	return panelStyle.Render(content)
}

// renderFooter renders track progress, transport and key help
func renderFooter(m Model) string {
	var lines []string
	if m.Source.Duration > 0 {
		lines = append(lines, renderProgressBar(m.Last.Progress, meterWidth))
	}
	lines = append(lines, fmt.Sprintf("⏱  %s | frame %d", formatDuration(m.Last.Position), m.Frames))
	if m.Server != nil {
		lines = append(lines, fmt.Sprintf("Renderers on ws://%s/ws: %d", m.Server.Addr, m.Server.Clients))
	}
	lines = append(lines, dimStyle.Render("q quit · b reset beat · r recalibrate · l lock gyro · tab select · ↑/↓ drag · enter release"))
	return strings.Join(lines, "\n")
}

// renderBar renders a 0..1 level as a fixed-width bar
func renderBar(level float64, width int) string {
	if math.IsNaN(level) {
		level = 0
	}
	level = math.Max(0, math.Min(1, level))
	filled := int(math.Round(level * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	return fmt.Sprintf("%s %d%%", renderBar(progress, width), int(math.Max(0, math.Min(1, progress))*100))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// renderSummary renders the final view after the session stops
func renderSummary(m Model) string {
	var b strings.Builder

	if m.Err != nil {
		b.WriteString(failStyle.Render("✗ Session failed"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("   Error: %v\n", m.Err))
		return b.String()
	}

	b.WriteString(okStyle.Bold(true).Render("✨ Session complete"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("   %d frames over %s\n", m.Frames, formatDuration(m.Last.Position)))
	if m.Last.Frame.BeatLocked {
		b.WriteString(fmt.Sprintf("   Beat locked at %.0f BPM\n", m.Last.Frame.BPM))
	}
	return b.String()
}
