// Package config loads session settings and control bindings from TOML
package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/allapse/feel/internal/audio"
	"github.com/allapse/feel/internal/orientation"
	"github.com/allapse/feel/internal/processor"
	"github.com/allapse/feel/internal/session"
)

// Defaults
const (
	DefaultAddr = "127.0.0.1:8088"
	maxFPS      = 240
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// AnalyserConfig mirrors the browser analyser settings
type AnalyserConfig struct {
	FFTSize   int     `toml:"fft_size"`
	Smoothing float64 `toml:"smoothing"`
}

// GyroConfig configures the orientation tracker
type GyroConfig struct {
	Range       float64 `toml:"range"`        // degrees of tilt for full deflection
	StartLocked bool    `toml:"start_locked"` // freeze tilt after the first sample until unlocked
}

// ServerConfig configures the renderer websocket
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// SynthConfig configures the built-in test signal used without a track
type SynthConfig struct {
	BPM float64 `toml:"bpm"`
}

// Config is the complete session configuration
type Config struct {
	FPS      int                 `toml:"fps"`
	Analyser AnalyserConfig      `toml:"analyser"`
	Gyro     GyroConfig          `toml:"gyro"`
	Server   ServerConfig        `toml:"server"`
	Synth    SynthConfig         `toml:"synth"`
	Controls []processor.Binding `toml:"control"`
}

// Default returns the stock configuration: three spectral controls
// following their namesake features over 0..1.
func Default() *Config {
	return &Config{
		FPS: session.DefaultFPS,
		Analyser: AnalyserConfig{
			FFTSize:   audio.DefaultFFTSize,
			Smoothing: audio.DefaultSmoothing,
		},
		Gyro:   GyroConfig{Range: orientation.DefaultRange},
		Server: ServerConfig{Addr: DefaultAddr},
		Synth:  SynthConfig{BPM: audio.DefaultSynthBPM},
		Controls: []processor.Binding{
			{Key: "intensity", Label: "Intensity", Min: 0, Max: 1, Step: 0.01, Initial: 0.5, Mode: processor.ModeSpectral},
			{Key: "speed", Label: "Speed", Min: 0, Max: 1, Step: 0.01, Initial: 0.5, Mode: processor.ModeSpectral},
			{Key: "complexity", Label: "Complexity", Min: 0, Max: 1, Step: 0.01, Initial: 0.5, Mode: processor.ModeSpectral},
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default; a [[control]] list replaces the default controls entirely.
func Load(path string) (*Config, error) {
	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}

	cfg := Default()
	if md.IsDefined("fps") {
		cfg.FPS = file.FPS
	}
	if md.IsDefined("analyser", "fft_size") {
		cfg.Analyser.FFTSize = file.Analyser.FFTSize
	}
	if md.IsDefined("analyser", "smoothing") {
		cfg.Analyser.Smoothing = file.Analyser.Smoothing
	}
	if md.IsDefined("gyro", "range") {
		cfg.Gyro.Range = file.Gyro.Range
	}
	if md.IsDefined("gyro", "start_locked") {
		cfg.Gyro.StartLocked = file.Gyro.StartLocked
	}
	if md.IsDefined("server", "addr") {
		cfg.Server.Addr = file.Server.Addr
	}
	if md.IsDefined("synth", "bpm") {
		cfg.Synth.BPM = file.Synth.BPM
	}
	if md.IsDefined("control") {
		cfg.Controls = file.Controls
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Bins returns the spectrum length implied by the FFT size
func (c *Config) Bins() int {
	return c.Analyser.FFTSize / 2
}

// Validate checks every setting and binding
func (c *Config) Validate() error {
	if c.FPS <= 0 || c.FPS > maxFPS {
		return fmt.Errorf("%w: fps %d outside [1, %d]", ErrInvalid, c.FPS, maxFPS)
	}
	if !audio.ValidFFTSize(c.Analyser.FFTSize) {
		return fmt.Errorf("%w: analyser.fft_size %d must be a power of two in [32, 32768]", ErrInvalid, c.Analyser.FFTSize)
	}
	if s := c.Analyser.Smoothing; s < 0 || s > 1 || math.IsNaN(s) {
		return fmt.Errorf("%w: analyser.smoothing %v outside [0, 1]", ErrInvalid, s)
	}
	if !(c.Gyro.Range > 0) {
		return fmt.Errorf("%w: gyro.range %v must be positive", ErrInvalid, c.Gyro.Range)
	}
	if c.Synth.BPM < 0 {
		return fmt.Errorf("%w: synth.bpm %v must not be negative", ErrInvalid, c.Synth.BPM)
	}
	if len(c.Controls) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, processor.ErrNoControls)
	}

	seen := make(map[string]bool, len(c.Controls))
	for i, b := range c.Controls {
		if err := b.Validate(c.Bins()); err != nil {
			return fmt.Errorf("%w: control %d: %w", ErrInvalid, i, err)
		}
		if seen[b.Key] {
			return fmt.Errorf("%w: control %d: duplicate key %q", ErrInvalid, i, b.Key)
		}
		seen[b.Key] = true
	}
	return nil
}
