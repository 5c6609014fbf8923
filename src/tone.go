package transcore

/*------------------------------------------------------------------
 *
 * Purpose:	Generic tone / escape-tone classifier on 8kHz mono
 *		PCM16, frame by frame, with internal re-buffering.
 *
 * Ported algorithm-for-algorithm from a Goertzel/FFT tone detector
 * (see DESIGN.md): AGC-normalize a 256-sample window, windowed
 * FFT (sign -1), track the loudest bin and its run length, and raise a
 * sticky tone/escape flag once the peak is strong and stable enough.
 *
 *----------------------------------------------------------------*/

import "math"

// hammingWindow is computed once per process; both the tone and SIT
// classifiers share it.
var hammingWindow = buildHammingWindow()

func buildHammingWindow() [fftSize]float32 {
	var w [fftSize]float32
	for i := 0; i < fftSize; i++ {
		w[i] = float32(0.53836 - 0.46164*math.Cos(2*math.Pi*float64(i)/255))
	}
	return w
}

const (
	msPerWindow = 32 // each 256-sample window at 8kHz spans 32ms

	toneMinMag       = 0.005
	toneMinRatio     = 45.0
	strongMinMag     = 0.09
	strongMinRatio   = 15.0
	strongStability  = 0.03
	toneRunMs        = 96
	escapeBin        = 3
	escapeRunMs      = 300
	toneMinBin       = 5 // pos > 5, i.e. roughly >156Hz at 8kHz/256
)

// ToneDetector classifies an 8kHz mono PCM16 stream frame by frame.
// Once IsTone or IsEscape goes true it stays true for the life of the
// detector; create a new one for a fresh detection.
type ToneDetector struct {
	history   [2][fftSize / 2]float32 // [0]=previous window, [1]=current window
	fftBuf    [2 * fftSize]float32
	reasm     [fftSize]int16
	pos       int
	peakLevel int16
	freq      int
	runMs     int
	isTone    bool
	isEscape  bool
}

// NewToneDetector returns a fresh classifier with no sticky flags set.
func NewToneDetector() *ToneDetector {
	return &ToneDetector{}
}

// IsTone reports whether a stable in-band tone has ever been detected.
func (t *ToneDetector) IsTone() bool { return t.isTone }

// IsEscape reports whether the escape tone (bin 3, sustained 300ms)
// has ever been detected.
func (t *ToneDetector) IsEscape() bool { return t.isEscape }

// ProcessFrame accepts an arbitrary chunk of PCM16 samples. Any tail
// shorter than a full 256-sample window is held internally for the
// next call.
func (t *ToneDetector) ProcessFrame(samples []int16) {
	for len(samples) > 0 {
		n := fftSize - t.pos
		if n > len(samples) {
			n = len(samples)
		}
		copy(t.reasm[t.pos:], samples[:n])
		t.pos += n
		samples = samples[n:]
		if t.pos == fftSize {
			t.processFullFrame(&t.reasm)
			t.pos = 0
		}
	}
}

func (t *ToneDetector) processFullFrame(frame *[fftSize]int16) {
	t.history[0] = t.history[1]

	t.agcNormalize(frame[:])
	fft(t.fftBuf[:], fftSize, -1)

	var peak, avg float32
	pos := 0
	for k := 0; k < fftSize/2; k++ {
		re := t.fftBuf[2*k] / fftSize
		im := t.fftBuf[2*k+1] / fftSize
		mag := float32(math.Sqrt(float64(re*re+im*im))) / 2
		t.history[1][k] = mag
		avg += mag
		if mag > peak {
			peak = mag
			pos = k
		}
	}
	avg /= fftSize / 2

	if peak > toneMinMag && peak > toneMinRatio*avg {
		if pos == t.freq {
			t.runMs += msPerWindow
		} else {
			t.freq = pos
			t.runMs = msPerWindow
		}
	} else {
		t.freq = 0
		t.runMs = 0
	}

	strongStable := peak > strongMinMag && peak > strongMinRatio*avg &&
		float32Abs(peak-t.history[0][pos]) < strongStability*peak
	if strongStable || t.runMs >= toneRunMs {
		switch {
		case pos > toneMinBin:
			t.isTone = true
		case pos == escapeBin && t.runMs >= escapeRunMs:
			t.isEscape = true
		}
	}
}

// agcNormalize windows and scales frame into the real lane of fftBuf,
// automatically rescaling to the running peak amplitude. If this
// frame contains a new peak, the pass restarts once against the
// corrected peak; because the peak only grows, this is guaranteed to
// converge after a single retry.
func (t *ToneDetector) agcNormalize(frame []int16) {
	for {
		peak := t.peakLevel
		movedPeak := false
		for i, s := range frame {
			t.fftBuf[2*i] = (float32(s) / float32(peak)) * hammingWindow[i]
			t.fftBuf[2*i+1] = 0
			if s > t.peakLevel {
				t.peakLevel = s
				movedPeak = true
			}
		}
		if !movedPeak {
			return
		}
	}
}

func float32Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
