// Package ui provides the Bubbletea terminal user interface for feel
package ui

import (
	"fmt"
	"io"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allapse/feel/internal/processor"
	"github.com/allapse/feel/internal/session"
)

var debugLog io.Writer

// SetDebugLog directs UI debug output to w; nil disables it
func SetDebugLog(w io.Writer) {
	debugLog = w
}

func log(format string, args ...interface{}) {
	if debugLog != nil {
		fmt.Fprintf(debugLog, format+"\n", args...)
	}
}

// manualStepFraction is the arrow-key nudge for controls without a step
const manualStepFraction = 0.01

// Model is the Bubbletea model for a live session
type Model struct {
	Bindings []processor.Binding
	Selected int

	// Manual values engaged from the keyboard, by control key
	Manual map[string]float64

	// Latest frame
	Last   session.Update
	Frames int

	// Source and transport
	Source  SourceMsg
	Server  *ServerMsg
	Started time.Time

	// Commands go to the session runner
	send func(session.Command) error

	Done bool
	Err  error

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a UI model for the given controls. send queues commands
// on the session runner.
func NewModel(bindings []processor.Binding, send func(session.Command) error) Model {
	return Model{
		Bindings: bindings,
		Manual:   make(map[string]float64),
		Started:  time.Now(),
		send:     send,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		log("[DEBUG] Window size: %dx%d", m.Width, m.Height)

	case FrameMsg:
		m.Last = session.Update(msg)
		m.Frames++

	case SourceMsg:
		log("[DEBUG] SourceMsg received: %q", msg.Name)
		m.Source = msg

	case ServerMsg:
		m.Server = &msg

	case DoneMsg:
		log("[DEBUG] DoneMsg received: %v", msg.Err)
		m.Done = true
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "b":
		m.command(session.Command{Kind: session.CmdResetBeat})
	case "r":
		m.command(session.Command{Kind: session.CmdRecalibrate})
	case "l":
		m.command(session.Command{Kind: session.CmdToggleGyroLock})
	case "tab":
		if len(m.Bindings) > 0 {
			m.Selected = (m.Selected + 1) % len(m.Bindings)
		}
	case "shift+tab":
		if len(m.Bindings) > 0 {
			m.Selected = (m.Selected + len(m.Bindings) - 1) % len(m.Bindings)
		}
	case "up", "k":
		m.nudge(1)
	case "down", "j":
		m.nudge(-1)
	case "enter":
		if b, ok := m.selected(); ok {
			if _, held := m.Manual[b.Key]; held {
				m.Manual = copyManual(m.Manual)
				delete(m.Manual, b.Key)
				m.command(session.Command{Kind: session.CmdReleaseOverride, Key: b.Key})
			}
		}
	}
	return m, nil
}

// nudge engages or moves a manual override on the selected control
func (m *Model) nudge(dir float64) {
	b, ok := m.selected()
	if !ok {
		return
	}

	step := b.Step
	if step <= 0 {
		step = (b.Max - b.Min) * manualStepFraction
	}

	v, held := m.Manual[b.Key]
	if !held {
		v = m.Last.Frame.Params[b.Key]
		if _, seen := m.Last.Frame.Params[b.Key]; !seen {
			v = b.Initial
		}
	}
	v = math.Max(b.Min, math.Min(b.Max, v+dir*step))

	m.Manual = copyManual(m.Manual)
	m.Manual[b.Key] = v
	m.command(session.Command{Kind: session.CmdSetOverride, Key: b.Key, Value: v})
}

func (m Model) selected() (processor.Binding, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Bindings) {
		return processor.Binding{}, false
	}
	return m.Bindings[m.Selected], true
}

func (m Model) command(cmd session.Command) {
	if m.send == nil {
		return
	}
	if err := m.send(cmd); err != nil {
		log("[UI] Command %s not queued: %v", cmd, err)
	}
}

// copyManual keeps value-receiver models from sharing the override map
func copyManual(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderSummary(m)
	}
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nControls: %d\n", len(m.Bindings))
	}
	return renderSessionView(m)
}
