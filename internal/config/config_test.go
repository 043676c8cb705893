package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/allapse/feel/internal/processor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feel.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Bins() != 128 {
		t.Errorf("Bins() = %d, want 128", cfg.Bins())
	}
	keys := []string{"intensity", "speed", "complexity"}
	for i, k := range keys {
		if cfg.Controls[i].Key != k {
			t.Errorf("control %d = %q, want %q", i, cfg.Controls[i].Key, k)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
fps = 30

[analyser]
fft_size = 512

[gyro]
range = 30.0
start_locked = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FPS != 30 || cfg.Analyser.FFTSize != 512 || cfg.Gyro.Range != 30 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Gyro.StartLocked {
		t.Error("StartLocked = false, want true from file")
	}
	if Default().Gyro.StartLocked {
		t.Error("default config starts with the gyro locked")
	}
	if cfg.Analyser.Smoothing != 0.8 {
		t.Errorf("Smoothing = %v, want default 0.8", cfg.Analyser.Smoothing)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want default", cfg.Server.Addr)
	}
	if len(cfg.Controls) != 3 {
		t.Errorf("Controls = %d, want the 3 defaults", len(cfg.Controls))
	}
}

func TestLoadControlsReplaceDefaults(t *testing.T) {
	path := writeConfig(t, `
[[control]]
key = "glow"
min = 0.0
max = 2.0
mode = "spectral"
feature = "intensity"

[[control]]
key = "bass"
min = 0.0
max = 1.0
mode = "legacy"
band = { low = 0, high = 4 }
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Controls) != 2 {
		t.Fatalf("Controls = %+v, want 2", cfg.Controls)
	}
	glow := cfg.Controls[0]
	if glow.Feature != processor.FeatureIntensity || glow.Max != 2 {
		t.Errorf("glow = %+v", glow)
	}
	bass := cfg.Controls[1]
	if bass.Mode != processor.ModeLegacy || bass.Band == nil || bass.Band.High != 4 {
		t.Errorf("bass = %+v", bass)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "fps = ="},
		{"unknown key", "frames_per_second = 60"},
		{"fft not power of two", "[analyser]\nfft_size = 300"},
		{"fft too small", "[analyser]\nfft_size = 16"},
		{"zero fps", "fps = 0"},
		{"negative gyro range", "[gyro]\nrange = -5.0"},
		{"band past bins", "[[control]]\nkey = \"b\"\nmin = 0.0\nmax = 1.0\nmode = \"legacy\"\nband = { low = 0, high = 128 }"},
		{"duplicate key", "[[control]]\nkey = \"speed\"\nmax = 1.0\n[[control]]\nkey = \"speed\"\nmax = 1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Errorf("Load(%q) succeeded, want error", tt.body)
			}
		})
	}
}

func TestValidateWrapsErrInvalid(t *testing.T) {
	cfg := Default()
	cfg.Controls = nil
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) || !errors.Is(err, processor.ErrNoControls) {
		t.Errorf("Validate() = %v, want ErrInvalid wrapping ErrNoControls", err)
	}

	cfg = Default()
	cfg.Controls[0].Max = -1
	if err := cfg.Validate(); !errors.Is(err, processor.ErrInvalidBinding) {
		t.Errorf("Validate() = %v, want ErrInvalidBinding", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
