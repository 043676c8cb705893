package audio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analyser defaults, matching a browser AnalyserNode
const (
	DefaultFFTSize   = 256
	DefaultSmoothing = 0.8
	MinDecibels      = -100.0
	MaxDecibels      = -30.0

	minFFTSize = 32
	maxFFTSize = 32768
)

// Analyser turns a window of samples into a byte frequency spectrum.
// Magnitudes are Blackman windowed, scaled by 1/size, smoothed over time
// and mapped from [MinDecibels, MaxDecibels] onto 0..255.
type Analyser struct {
	size      int
	smoothing float64
	fft       *fourier.FFT
	window    []float64
	buf       []float64
	coeffs    []complex128
	smoothed  []float64
}

// ValidFFTSize reports whether n is a power of two in [32, 32768]
func ValidFFTSize(n int) bool {
	return n >= minFFTSize && n <= maxFFTSize && n&(n-1) == 0
}

// NewAnalyser creates an analyser with the given FFT size and time smoothing
func NewAnalyser(size int, smoothing float64) (*Analyser, error) {
	if !ValidFFTSize(size) {
		return nil, fmt.Errorf("fft size %d is not a power of two in [%d, %d]", size, minFFTSize, maxFFTSize)
	}
	if smoothing < 0 || smoothing > 1 || math.IsNaN(smoothing) {
		return nil, fmt.Errorf("smoothing %v outside [0, 1]", smoothing)
	}

	a := &Analyser{
		size:      size,
		smoothing: smoothing,
		fft:       fourier.NewFFT(size),
		window:    blackman(size),
		buf:       make([]float64, size),
		coeffs:    make([]complex128, size/2+1),
		smoothed:  make([]float64, size/2),
	}
	return a, nil
}

// blackman returns the classic Blackman window (alpha 0.16)
func blackman(n int) []float64 {
	const (
		a0 = 0.42
		a1 = 0.5
		a2 = 0.08
	)
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}

// Size returns the FFT size
func (a *Analyser) Size() int { return a.size }

// Bins returns the spectrum length, half the FFT size
func (a *Analyser) Bins() int { return a.size / 2 }

// Analyse computes the byte spectrum of the last Size() samples. Shorter
// input is zero padded at the front. The result is written to dst when it
// has room, otherwise a new slice is allocated.
func (a *Analyser) Analyse(samples []float64, dst []uint8) []uint8 {
	bins := a.Bins()
	if cap(dst) >= bins {
		dst = dst[:bins]
	} else {
		dst = make([]uint8, bins)
	}

	if len(samples) > a.size {
		samples = samples[len(samples)-a.size:]
	}
	pad := a.size - len(samples)
	for i := 0; i < pad; i++ {
		a.buf[i] = 0
	}
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.buf[pad+i] = s * a.window[pad+i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.buf)

	scale := 1 / float64(a.size)
	span := MaxDecibels - MinDecibels
	for k := 0; k < bins; k++ {
		c := a.coeffs[k]
		mag := math.Hypot(real(c), imag(c)) * scale
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag

		db := MinDecibels
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := 255 * (db - MinDecibels) / span
		switch {
		case v <= 0:
			dst[k] = 0
		case v >= 255:
			dst[k] = 255
		default:
			dst[k] = uint8(v)
		}
	}
	return dst
}

// Reset clears the time smoothing history
func (a *Analyser) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}
