// Package orientation projects device orientation samples onto a calibrated,
// smoothed 2-axis tilt vector.
package orientation

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/num/quat"
)

// Tracker tuning
const (
	DefaultRange    = 45.0 // degrees of tilt that reach full deflection
	tiltSmoothing   = 0.05 // per-sample follow rate
	directionMargin = 0.1  // tilt beyond this lights a direction indicator
)

// Sample is one device orientation event in degrees.
// Beta and Gamma may be nil when the sensor has no reading; Alpha may be nil
// on devices without a compass and is treated as 0.
type Sample struct {
	Alpha *float64 `json:"alpha"`
	Beta  *float64 `json:"beta"`
	Gamma *float64 `json:"gamma"`
}

// NewSample builds a sample with all three angles present
func NewSample(alpha, beta, gamma float64) Sample {
	return Sample{Alpha: &alpha, Beta: &beta, Gamma: &gamma}
}

// Tilt is a 2-axis tilt vector with both components in [-1, 1]
type Tilt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Direction flags which tilt indicators are lit
type Direction struct {
	Up, Down, Left, Right bool
}

// projection is the tilt component of a quaternion's forward axis
type projection struct {
	dx, dy float64
}

// Tracker calibrates and smooths orientation samples. Samples may arrive on
// a sensor goroutine while a render loop reads Tilt; all state is guarded.
type Tracker struct {
	mu          sync.Mutex
	sensitivity float64
	baseline    *quat.Number
	base        projection
	smoothed    Tilt
	locked      bool
}

// NewTracker returns a tracker where rangeDegrees of tilt reaches full
// deflection. Non-positive ranges fall back to DefaultRange.
func NewTracker(rangeDegrees float64) *Tracker {
	if !(rangeDegrees > 0) {
		rangeDegrees = DefaultRange
	}
	return &Tracker{sensitivity: 90 / rangeDegrees}
}

// Update folds one sample into the smoothed tilt. Samples missing beta or
// gamma are dropped, as are all samples while locked with a baseline.
func (t *Tracker) Update(s Sample) {
	if s.Beta == nil || s.Gamma == nil {
		return
	}
	alpha := 0.0
	if s.Alpha != nil {
		alpha = *s.Alpha
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.locked && t.baseline != nil {
		return
	}

	q := EulerToQuaternion(alpha, *s.Beta, *s.Gamma)
	p := project(q)

	if t.baseline == nil {
		t.baseline = &q
		t.base = p
		t.smoothed = Tilt{}
	}

	targetX := (p.dx - t.base.dx) * t.sensitivity
	targetY := (p.dy - t.base.dy) * t.sensitivity

	t.smoothed.X = clampUnit(t.smoothed.X + (targetX-t.smoothed.X)*tiltSmoothing)
	t.smoothed.Y = clampUnit(t.smoothed.Y + (targetY-t.smoothed.Y)*tiltSmoothing)
}

// Tilt returns the latest smoothed tilt
func (t *Tracker) Tilt() Tilt {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.smoothed
}

// ResetBaseline drops the calibration; the next valid sample becomes centre
func (t *Tracker) ResetBaseline() {
	t.mu.Lock()
	t.baseline = nil
	t.mu.Unlock()
}

// Lock freezes the tilt once a baseline exists
func (t *Tracker) Lock() {
	t.mu.Lock()
	t.locked = true
	t.mu.Unlock()
}

// Unlock resumes tracking
func (t *Tracker) Unlock() {
	t.mu.Lock()
	t.locked = false
	t.mu.Unlock()
}

// Locked reports whether tracking is frozen
func (t *Tracker) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locked
}

// Calibrated reports whether a baseline has been captured
func (t *Tracker) Calibrated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baseline != nil
}

// Direction returns the indicators lit by the current tilt.
// Positive Y is up, positive X is right.
func (t *Tracker) Direction() Direction {
	tilt := t.Tilt()
	return Direction{
		Up:    tilt.Y > directionMargin,
		Down:  tilt.Y < -directionMargin,
		Left:  tilt.X < -directionMargin,
		Right: tilt.X > directionMargin,
	}
}

// EulerToQuaternion converts intrinsic Z-X-Y Euler angles in degrees
// (alpha about Z, beta about X, gamma about Y) to a unit quaternion.
func EulerToQuaternion(alpha, beta, gamma float64) quat.Number {
	const rad = math.Pi / 180
	hz := alpha * rad / 2
	hx := beta * rad / 2
	hy := gamma * rad / 2

	qz := quat.Number{Real: math.Cos(hz), Kmag: math.Sin(hz)}
	qx := quat.Number{Real: math.Cos(hx), Imag: math.Sin(hx)}
	qy := quat.Number{Real: math.Cos(hy), Jmag: math.Sin(hy)}

	return quat.Mul(quat.Mul(qz, qx), qy)
}

// project returns the screen-plane tilt of the device's forward axis
func project(q quat.Number) projection {
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	return projection{
		dx: 2 * (x*z + w*y),
		dy: 2 * (y*z - w*x),
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
