// Package cli provides styled terminal output for the feel command line
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by the help screen, status lines and the live view
var (
	Magenta = lipgloss.Color("#D63AF9") // titles, beat flash
	Cyan    = lipgloss.Color("#3AD6F9") // values, locked states
	Amber   = lipgloss.Color("#F9B23A") // manual overrides, detecting
	Coral   = lipgloss.Color("#F9503A") // errors
	Slate   = lipgloss.Color("#7A7F99") // secondary text
	Snow    = lipgloss.Color("#F4F4F8")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Magenta).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Coral)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Slate)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fprintVersion(os.Stdout, version)
}

func fprintVersion(w io.Writer, version string) {
	fmt.Fprintln(w, TitleStyle.Render("feel ♪"))
	fprintInfo(w, "Version", version)
	fmt.Fprintln(w)
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fprintError(os.Stderr, message)
}

func fprintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), message)
}

// PrintInfo prints a key-value status line, e.g. the address being served
func PrintInfo(key, value string) {
	fprintInfo(os.Stdout, key, value)
}

func fprintInfo(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}
