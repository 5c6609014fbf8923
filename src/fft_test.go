package transcore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_fft_dcImpulseProducesFlatSpectrum(t *testing.T) {
	var buf [2 * fftSize]float32
	buf[0] = 1 // unit impulse at sample 0, real part only

	fft(buf[:], fftSize, -1)

	for k := 0; k < fftSize; k++ {
		re := buf[2*k]
		im := buf[2*k+1]
		mag := math.Sqrt(float64(re*re + im*im))
		assert.InDelta(t, 1.0, mag, 1e-3)
	}
}

func Test_fft_constantSignalIsAllDC(t *testing.T) {
	var buf [2 * fftSize]float32
	for i := 0; i < fftSize; i++ {
		buf[2*i] = 1
	}

	fft(buf[:], fftSize, -1)

	assert.InDelta(t, float64(fftSize), float64(buf[0]), 1e-2)
	for k := 1; k < fftSize; k++ {
		re := buf[2*k]
		im := buf[2*k+1]
		mag := math.Sqrt(float64(re*re + im*im))
		assert.InDelta(t, 0, mag, 1e-2)
	}
}

func Test_fft_panicsOnNonPowerOfTwo(t *testing.T) {
	assert.Panics(t, func() {
		var buf [2 * 100]float32
		fft(buf[:], 100, -1)
	})
}
