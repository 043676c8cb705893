package processor

import (
	"errors"
	"fmt"
)

// Mode selects how a control derives its target from the spectrum
type Mode string

// Control mapping modes
const (
	ModeSpectral Mode = "spectral" // adaptive spectral-shape mapping
	ModeLegacy   Mode = "legacy"   // averaged band energy with peak envelope
)

var (
	// ErrNoControls is returned when an engine is built without bindings
	ErrNoControls = errors.New("no controls configured")

	// ErrInvalidBinding wraps every binding validation failure
	ErrInvalidBinding = errors.New("invalid control binding")
)

// Band is an inclusive range of spectrum bins
type Band struct {
	Low  int `toml:"low" json:"low"`
	High int `toml:"high" json:"high"`
}

// Binding ties a control key to a value range and a mapping mode.
// Bindings are fixed for the session once the engine is built.
type Binding struct {
	Key     string  `toml:"key" json:"key"`
	Label   string  `toml:"label" json:"label"`
	Min     float64 `toml:"min" json:"min"`
	Max     float64 `toml:"max" json:"max"`
	Step    float64 `toml:"step" json:"step"`
	Initial float64 `toml:"initial" json:"initial"`
	Mode    Mode    `toml:"mode" json:"mode"`

	// Feature is the descriptor a spectral control follows.
	// Empty means the key itself names the feature.
	Feature Feature `toml:"feature" json:"feature,omitempty"`

	// Band is required for legacy controls
	Band *Band `toml:"band" json:"band,omitempty"`
}

// ResolvedFeature returns the descriptor a spectral binding follows
func (b Binding) ResolvedFeature() Feature {
	if b.Feature != "" {
		return b.Feature
	}
	return Feature(b.Key)
}

// Openness returns value's position within [Min, Max] as 0..1.
// A degenerate range reports 0.
func (b Binding) Openness(value float64) float64 {
	span := b.Max - b.Min
	if span <= 0 {
		return 0
	}
	return (value - b.Min) / span
}

// Clamp limits value to [Min, Max]
func (b Binding) Clamp(value float64) float64 {
	return clamp(value, b.Min, b.Max)
}

// Target maps a 0..1 ratio onto the binding's range without clamping
func (b Binding) Target(ratio float64) float64 {
	return b.Min + (b.Max-b.Min)*ratio
}

// Validate checks the binding against a spectrum of bins magnitudes
func (b Binding) Validate(bins int) error {
	if b.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidBinding)
	}
	if !(b.Max > b.Min) {
		return fmt.Errorf("%w: %s: max %g must exceed min %g", ErrInvalidBinding, b.Key, b.Max, b.Min)
	}

	switch b.Mode {
	case ModeSpectral, "":
		if !b.ResolvedFeature().Valid() {
			return fmt.Errorf("%w: %s: unknown feature %q", ErrInvalidBinding, b.Key, b.ResolvedFeature())
		}
	case ModeLegacy:
		if b.Band == nil {
			return fmt.Errorf("%w: %s: legacy mode needs a band", ErrInvalidBinding, b.Key)
		}
		if b.Band.Low < 0 || b.Band.High < b.Band.Low || b.Band.High >= bins {
			return fmt.Errorf("%w: %s: band [%d, %d] outside 0..%d", ErrInvalidBinding, b.Key, b.Band.Low, b.Band.High, bins-1)
		}
	default:
		return fmt.Errorf("%w: %s: unknown mode %q", ErrInvalidBinding, b.Key, b.Mode)
	}
	return nil
}
