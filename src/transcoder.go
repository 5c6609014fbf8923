package transcore

/*------------------------------------------------------------------
 *
 * Purpose:	The abstract Transcoder capability and its per-leg
 *		runtime Instance. The core never implements codec math;
 *		it only drives whatever is registered here.
 *
 *----------------------------------------------------------------*/

import "time"

// friendlyOffset is the fixed pre-header space reserved in every
// instance's output buffer, mirroring AST_FRIENDLY_OFFSET: room for a
// caller to prepend a protocol header in place without a copy.
const friendlyOffset = 64

// Module is the owning collaborator of a Transcoder (e.g. a codec
// plugin). The registry pins it for the lifetime of every Instance
// built from one of its transcoders and unpins on Destroy, so a
// module may only unload after every chain referencing it is freed.
type Module interface {
	Pin()
	Unpin()
}

// Transcoder is the capability a codec plugin registers: a named,
// directional conversion from Src to Dst, plus the callbacks needed
// to build, drive, and tear down a per-leg Instance.
type Transcoder struct {
	Name string
	Src  Format
	Dst  Format

	// BufSize is the output buffer size in bytes; rounded up to
	// pointer alignment by Registry.Register. Must be > 0.
	BufSize int
	// BufferSamples bounds how many input samples may accumulate
	// between flushes; 0 disables the bound check (e.g. for
	// transcoders that always flush one frame per input frame).
	BufferSamples int
	// NativePLC reports whether this transcoder can synthesize
	// output from an empty input frame (packet-loss concealment).
	NativePLC bool

	Module Module

	// Init and Destroy are optional per-instance lifecycle hooks.
	Init    func(inst *Instance) error
	Destroy func(inst *Instance)

	// FrameIn is required: it consumes one input frame into the
	// instance's private state / output buffer.
	FrameIn func(inst *Instance, f *Frame) error
	// FrameOut is optional; a generic flusher is installed if nil.
	FrameOut func(inst *Instance) (*Frame, error)

	// Sample optionally produces a representative input frame in
	// the Src format, used only by Registry.calcCost to measure Cost. A transcoder
	// without Sample is assigned the sentinel cost of 999999.
	Sample func() (*Frame, error)

	// active and cost are maintained by the Registry; read-only to
	// everyone else.
	active bool
	cost   int
	srcIdx int
	dstIdx int
}

// Instance is the per-leg runtime state created by BuildPath: a
// private state slot, an output buffer with a fixed pre-header
// offset, a running sample/byte count between flushes, predicted
// next-in/next-out wall-clock instants, and a link to the next hop.
type Instance struct {
	t   *Transcoder
	Pvt any // private state the transcoder's Init may populate

	OutBuf  []byte
	Samples int
	DataLen int

	// pendingTimingInfo/TS/Len/Seqno are copied in by the frameIn
	// wrapper from the most recent input frame, for the default
	// flusher (or a custom FrameOut) to carry into its output.
	pendingTimingInfo bool
	pendingTS         int64
	pendingLen        int64
	pendingSeqno      int

	nextIn  time.Time
	nextOut time.Time
	next    *Instance
}

// Transcoder returns the capability this instance was built from.
func (i *Instance) Transcoder() *Transcoder { return i.t }

// Next returns the following hop in the chain, or nil at the tail.
func (i *Instance) Next() *Instance { return i.next }

func newInstance(t *Transcoder) (*Instance, error) {
	inst := &Instance{t: t}
	if t.BufSize > 0 {
		inst.OutBuf = make([]byte, t.BufSize)
	}
	if t.Init != nil {
		if err := t.Init(inst); err != nil {
			return nil, err
		}
	}
	if t.Module != nil {
		t.Module.Pin()
	}
	return inst, nil
}

func destroyInstance(inst *Instance) {
	t := inst.t
	if t.Destroy != nil {
		t.Destroy(inst)
	}
	if t.Module != nil {
		t.Module.Unpin()
	}
}

// defaultFrameOut is the generic flusher installed when a Transcoder
// doesn't supply FrameOut: it packages whatever FrameIn accumulated
// into OutBuf/Samples/DataLen and resets the running counters.
func defaultFrameOut(inst *Instance) (*Frame, error) {
	if inst.Samples == 0 {
		return nil, nil
	}
	f := &Frame{
		Type:          FrameVoice,
		Subclass:      int64(inst.t.Dst),
		Samples:       inst.Samples,
		DataLen:       inst.DataLen,
		Data:          inst.OutBuf[:inst.DataLen],
		Offset:        friendlyOffset,
		Src:           inst.t.Name,
		HasTimingInfo: inst.pendingTimingInfo,
		TS:            inst.pendingTS,
		Len:           inst.pendingLen,
		Seqno:         inst.pendingSeqno,
	}
	inst.Samples = 0
	inst.DataLen = 0
	return f, nil
}

func (t *Transcoder) frameOut(inst *Instance) (*Frame, error) {
	if t.FrameOut != nil {
		return t.FrameOut(inst)
	}
	return defaultFrameOut(inst)
}
