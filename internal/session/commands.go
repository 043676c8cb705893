package session

import (
	"fmt"
	"sync"

	"github.com/allapse/feel/internal/processor"
)

// CommandKind identifies a control action from the UI or a renderer
type CommandKind int

const (
	CmdResetBeat CommandKind = iota
	CmdTrackChange
	CmdRecalibrate
	CmdLockGyro
	CmdUnlockGyro
	CmdToggleGyroLock
	CmdSetOverride
	CmdReleaseOverride
)

var commandNames = map[CommandKind]string{
	CmdResetBeat:       "reset-beat",
	CmdTrackChange:     "track-change",
	CmdRecalibrate:     "recalibrate",
	CmdLockGyro:        "lock-gyro",
	CmdUnlockGyro:      "unlock-gyro",
	CmdToggleGyroLock:  "toggle-gyro-lock",
	CmdSetOverride:     "set-override",
	CmdReleaseOverride: "release-override",
}

func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// Command is applied by the runner between ticks. Key and Value are only
// used by the override commands.
type Command struct {
	Kind  CommandKind
	Key   string
	Value float64
}

func (c Command) String() string {
	switch c.Kind {
	case CmdSetOverride:
		return fmt.Sprintf("%s %s=%.3f", c.Kind, c.Key, c.Value)
	case CmdReleaseOverride:
		return fmt.Sprintf("%s %s", c.Kind, c.Key)
	default:
		return c.Kind.String()
	}
}

// OverrideSet tracks controls under manual drag. It is safe for concurrent
// use: input handlers write, the tick loop reads a snapshot.
type OverrideSet struct {
	mu     sync.Mutex
	values map[string]float64
}

// NewOverrideSet returns an empty override set
func NewOverrideSet() *OverrideSet {
	return &OverrideSet{values: make(map[string]float64)}
}

// Set engages or updates a manual value for key
func (o *OverrideSet) Set(key string, v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[key] = v
}

// Release ends the manual override for key
func (o *OverrideSet) Release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.values, key)
}

// Active reports whether key is being dragged
func (o *OverrideSet) Active(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.values[key]
	return ok
}

// Snapshot copies the current overrides for one tick
func (o *OverrideSet) Snapshot() processor.Overrides {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.values) == 0 {
		return nil
	}
	out := make(processor.Overrides, len(o.values))
	for k, v := range o.values {
		out[k] = v
	}
	return out
}
