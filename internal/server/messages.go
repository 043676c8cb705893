package server

import (
	"github.com/allapse/feel/internal/processor"
	"github.com/allapse/feel/internal/session"
)

// Outbound message types
const (
	typeHello = "hello"
	typeFrame = "frame"
)

// Inbound message types
const (
	typeOrientation = "orientation"
	typeDrag        = "drag"
	typeGyro        = "gyro"
	typeTrack       = "track"
)

// inboundMessage is the union of everything a renderer can send
type inboundMessage struct {
	Type   string   `json:"type"`
	Alpha  *float64 `json:"alpha,omitempty"`
	Beta   *float64 `json:"beta,omitempty"`
	Gamma  *float64 `json:"gamma,omitempty"`
	Key    string   `json:"key,omitempty"`
	Value  *float64 `json:"value,omitempty"`
	Active *bool    `json:"active,omitempty"`
	Action string   `json:"action,omitempty"` // gyro: reset, lock, unlock
}

// bindingMessage describes one control so a renderer can build its slider
type bindingMessage struct {
	Key     string  `json:"key"`
	Label   string  `json:"label,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step,omitempty"`
	Initial float64 `json:"initial"`
	Mode    string  `json:"mode"`
}

type helloMessage struct {
	Type     string           `json:"type"`
	ClientID string           `json:"clientId"`
	Controls []bindingMessage `json:"controls"`
}

type volumeMessage struct {
	Average     float64 `json:"average"`
	Smoothed    float64 `json:"smoothed"`
	Last        float64 `json:"last"`
	Peak        float64 `json:"peak"`
	MeterVolume float64 `json:"meterVolume"`
	MeterPeak   float64 `json:"meterPeak"`
}

type tiltMessage struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type gyroMessage struct {
	Locked     bool `json:"locked"`
	Calibrated bool `json:"calibrated"`
	Up         bool `json:"up"`
	Down       bool `json:"down"`
	Left       bool `json:"left"`
	Right      bool `json:"right"`
}

// frameMessage carries one display frame of shader inputs
type frameMessage struct {
	Type       string             `json:"type"`
	Seq        uint64             `json:"seq"`
	Time       float64            `json:"time"`
	Params     map[string]float64 `json:"params"`
	Accents    map[string]float64 `json:"accents"`
	Flash      map[string]float64 `json:"flash"`
	Pulse      float64            `json:"pulse"`
	BPM        float64            `json:"bpm"`
	BeatLocked bool               `json:"beatLocked"`
	Volume     volumeMessage      `json:"volume"`
	Tilt       tiltMessage        `json:"tilt"`
	Gyro       gyroMessage        `json:"gyro"`
	Progress   float64            `json:"progress"`
}

func newBindingMessages(bindings []processor.Binding) []bindingMessage {
	out := make([]bindingMessage, len(bindings))
	for i, b := range bindings {
		mode := b.Mode
		if mode == "" {
			mode = processor.ModeSpectral
		}
		out[i] = bindingMessage{
			Key:     b.Key,
			Label:   b.Label,
			Min:     b.Min,
			Max:     b.Max,
			Step:    b.Step,
			Initial: b.Initial,
			Mode:    string(mode),
		}
	}
	return out
}

func newFrameMessage(seq uint64, u session.Update) frameMessage {
	f := u.Frame
	return frameMessage{
		Type:       typeFrame,
		Seq:        seq,
		Time:       f.Clock,
		Params:     f.Params,
		Accents:    f.Accents,
		Flash:      f.Flash,
		Pulse:      f.Pulse,
		BPM:        f.BPM,
		BeatLocked: f.BeatLocked,
		Volume: volumeMessage{
			Average:     f.Volume.Average,
			Smoothed:    f.Volume.Smoothed,
			Last:        f.Volume.Last,
			Peak:        f.Volume.Peak,
			MeterVolume: f.Volume.MeterVolume,
			MeterPeak:   f.Volume.MeterPeak,
		},
		Tilt: tiltMessage{X: f.Tilt.X, Y: f.Tilt.Y},
		Gyro: gyroMessage{
			Locked:     u.GyroLocked,
			Calibrated: u.Calibrated,
			Up:         u.Direction.Up,
			Down:       u.Direction.Down,
			Left:       u.Direction.Left,
			Right:      u.Direction.Right,
		},
		Progress: u.Progress,
	}
}
