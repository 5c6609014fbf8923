package transcore

/*------------------------------------------------------------------
 *
 * Purpose:	A minimal stand-in for the external module loader: a YAML
 *		document lists transcoders a process wants pre-registered
 *		at start, and BuildDemoTranscoders turns each entry into a
 *		synthetic Transcoder with just enough behaviour (byte
 *		accounting, not real DSP) to drive calc_cost and populate
 *		the matrix.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// TranscoderSpec is one entry of the config file's transcoder list.
type TranscoderSpec struct {
	Name          string `yaml:"name"`
	Src           string `yaml:"src"`
	Dst           string `yaml:"dst"`
	BufSize       int    `yaml:"buf_size"`
	BufferSamples int    `yaml:"buffer_samples"`
	NativePLC     bool   `yaml:"native_plc"`
	// SampleFrameSamples is how many samples a synthetic Sample()
	// frame carries; defaults to 160 (20ms at 8kHz) when zero.
	SampleFrameSamples int `yaml:"sample_frame_samples"`
}

// ConfigFile is the top-level YAML document shape.
type ConfigFile struct {
	Transcoders []TranscoderSpec `yaml:"transcoders"`
}

// LoadConfig reads and parses a YAML config file naming the demo
// transcoders a process should pre-register.
func LoadConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcore: reading config %s: %w", path, err)
	}
	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("transcore: parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// demoModule is the Module every config-built Transcoder shares: a
// simple pin refcount, standing in for a codec plugin's own lifetime
// tracking.
type demoModule struct {
	refs int64
}

func (m *demoModule) Pin()   { atomic.AddInt64(&m.refs, 1) }
func (m *demoModule) Unpin() { atomic.AddInt64(&m.refs, -1) }

// Refs reports the current pin count, for tests and diagnostics.
func (m *demoModule) Refs() int64 { return atomic.LoadInt64(&m.refs) }

// demoBytesPerSample estimates a format's payload size per sample: a
// rough stand-in for a codec's real bit rate, not an attempt at
// correctness. Lossy formats compress 4:1; lossless formats at or
// below 8kHz use one byte per sample (mu-law/a-law style); anything
// else uses two bytes per sample (linear PCM style).
func demoBytesPerSample(info FormatInfo) float64 {
	switch {
	case !info.Lossless:
		return 0.25
	case info.SampleHz <= 8000:
		return 1.0
	default:
		return 2.0
	}
}

// demoPvt is the private state a demo transcoder's Instance carries:
// nothing beyond what Init/FrameIn need, since there is no real codec
// state to track.
type demoPvt struct{}

// BuildDemoTranscoders turns a ConfigFile into registerable
// Transcoders sharing one demoModule. Each FrameIn call reframes the
// input byte count into the destination format's estimated byte rate
// and accumulates it (and the sample count) into the instance's
// output buffer; FrameOut uses the default flusher. Sample produces a
// synthetic frame of SampleFrameSamples zero-valued samples in the
// transcoder's source format, for calc_cost to drive.
func BuildDemoTranscoders(cfg *ConfigFile) ([]*Transcoder, Module, error) {
	module := &demoModule{}
	out := make([]*Transcoder, 0, len(cfg.Transcoders))

	for _, spec := range cfg.Transcoders {
		srcBit, ok := LookupFormatByName(spec.Src)
		if !ok {
			return nil, nil, fmt.Errorf("transcore: config entry %q: unknown src format %q", spec.Name, spec.Src)
		}
		dstBit, ok := LookupFormatByName(spec.Dst)
		if !ok {
			return nil, nil, fmt.Errorf("transcore: config entry %q: unknown dst format %q", spec.Name, spec.Dst)
		}
		srcInfo, _ := LookupFormat(srcBit)
		dstInfo, _ := LookupFormat(dstBit)

		sampleFrame := spec.SampleFrameSamples
		if sampleFrame <= 0 {
			sampleFrame = 160
		}
		bufSize := spec.BufSize
		if bufSize <= 0 {
			bufSize = 2048
		}
		srcBytesPerSample := demoBytesPerSample(srcInfo)
		dstBytesPerSample := demoBytesPerSample(dstInfo)

		t := &Transcoder{
			Name:          spec.Name,
			Src:           srcBit,
			Dst:           dstBit,
			BufSize:       bufSize,
			BufferSamples: spec.BufferSamples,
			NativePLC:     spec.NativePLC,
			Init: func(inst *Instance) error {
				inst.Pvt = &demoPvt{}
				return nil
			},
		}
		t.FrameIn = func(inst *Instance, f *Frame) error {
			n := int(float64(f.Samples) * dstBytesPerSample)
			if inst.DataLen+n > len(inst.OutBuf) {
				n = len(inst.OutBuf) - inst.DataLen
			}
			if n < 0 {
				n = 0
			}
			inst.DataLen += n
			inst.Samples += f.Samples
			return nil
		}
		t.Sample = func() (*Frame, error) {
			n := int(float64(sampleFrame) * srcBytesPerSample)
			return &Frame{
				Type:     FrameVoice,
				Subclass: int64(srcBit),
				Samples:  sampleFrame,
				DataLen:  n,
				Data:     make([]byte, n),
				Offset:   friendlyOffset,
				Src:      spec.Name + "-sample",
			}, nil
		}

		out = append(out, t)
	}

	return out, module, nil
}
