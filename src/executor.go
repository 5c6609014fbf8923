package transcore

/*------------------------------------------------------------------
 *
 * Purpose:	Path construction and frame-by-frame execution: build a
 *		chain of Instances from the path matrix, drive a frame
 *		through every hop in order, and predict wall-clock
 *		delivery timestamps across the chain the way the source
 *		media layer's generic translator does.
 *
 *----------------------------------------------------------------*/

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNoPath is returned by BuildPath when the matrix has no route
// between the requested formats.
var ErrNoPath = errors.New("transcore: no translation path")

// ErrBufferOverrun is returned by frameIn when an input frame would
// push a transcoder's accumulated samples past its BufferSamples bound.
var ErrBufferOverrun = errors.New("transcore: translator buffer overrun")

// frameIn is the bound-checked wrapper every hop's FrameIn is called
// through. It copies the input frame's timing-info flags into the
// instance (for the eventual output frame to inherit), warns on a
// zero-sample input, enforces BufferSamples, and silently consumes an
// empty frame for a transcoder without native PLC instead of calling
// FrameIn at all.
func frameIn(inst *Instance, f *Frame) error {
	t := inst.t
	startSamples := inst.Samples

	inst.pendingTimingInfo = f.HasTimingInfo
	inst.pendingTS = f.TS
	inst.pendingLen = f.Len
	inst.pendingSeqno = f.Seqno

	if f.Samples == 0 {
		log.Warn("no samples for the frame", "name", t.Name)
	}

	if f.DataLen == 0 && !t.NativePLC {
		return nil
	}
	if t.BufferSamples > 0 {
		if inst.Samples+f.Samples > t.BufferSamples {
			log.Warn("out of buffer space", "name", t.Name)
			return ErrBufferOverrun
		}
	}

	if err := t.FrameIn(inst, f); err != nil {
		return err
	}
	if inst.Samples == startSamples {
		log.Warn("translator did not update samples", "name", t.Name)
	}
	return nil
}

// BuildPath walks the matrix from src to dst, instantiating every hop
// on the cheapest quality-preserving path and linking them into a
// chain. Returns (nil, nil) when src == dst: the trivial no-op path.
// If any hop fails to instantiate, every instance built so far is torn
// down before returning the error.
func (r *Registry) BuildPath(dst, src Format) (*Instance, error) {
	srcIdx, dstIdx := indexOf(src), indexOf(dst)
	if srcIdx == -1 || dstIdx == -1 {
		log.Warn("invalid format requested for path build")
		return nil, ErrInvalidFormat
	}
	if srcIdx == dstIdx {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var head, tail *Instance
	cur := srcIdx
	for cur != dstIdx {
		cell := r.matrix[cur][dstIdx]
		if !cell.populated {
			log.Warn("no translator path could be found")
			FreePath(head)
			return nil, ErrNoPath
		}
		inst, err := newInstance(cell.nextHop)
		if err != nil {
			log.Warn("failed to build a step of the translation path", "name", cell.nextHop.Name)
			FreePath(head)
			return nil, err
		}
		if head == nil {
			head = inst
		} else {
			tail.next = inst
		}
		tail = inst
		cur = cell.nextHop.dstIdx
	}
	return head, nil
}

// FreePath tears down every instance in chain, in hop order. Safe to
// call with a nil chain.
func FreePath(chain *Instance) {
	for p := chain; p != nil; {
		next := p.next
		destroyInstance(p)
		p = next
	}
}

// rateForFormat returns the sample rate of the given subclass bit, or
// 8000 if it isn't a recognised format (every current format is 8kHz
// or a multiple of it, so this is a conservative default rather than a
// real ambiguity in the table).
func rateForFormat(sub int64) int {
	if info, ok := LookupFormat(Format(sub)); ok && info.SampleHz > 0 {
		return info.SampleHz
	}
	return 8000
}

func samplesToDuration(samples, rateHz int) time.Duration {
	if rateHz <= 0 {
		rateHz = 8000
	}
	return time.Duration(samples) * time.Second / time.Duration(rateHz)
}

// Translate drives f through chain, hop by hop, predicting delivery
// timestamps the way the source media layer's generic translator does:
// a chain's nextIn/nextOut pair is seeded from the first timestamped
// frame, nextOut is shifted by any discontinuity in nextIn, and a
// comfort-noise (FrameCNG) output re-seeds nextOut to be recomputed
// fresh on the following frame. A nil chain (src == dst) passes f
// through untouched. consume exists for parity with the two-phase
// build/consume contract the source media layer exposes; this
// implementation has nothing extra to release on a non-consuming call,
// so it has no effect here.
func Translate(chain *Instance, f *Frame, consume bool) (*Frame, error) {
	_ = consume
	if chain == nil {
		return f, nil
	}

	hadTimingInfo, ts, ln, seqno := f.HasTimingInfo, f.TS, f.Len, f.Seqno
	delivery := f.Delivery

	if !f.IsZeroDelivery() {
		switch {
		case chain.nextIn.IsZero():
			chain.nextIn = f.Delivery
			chain.nextOut = f.Delivery
		case !chain.nextIn.Equal(f.Delivery):
			if !chain.nextOut.IsZero() {
				chain.nextOut = chain.nextOut.Add(f.Delivery.Sub(chain.nextIn))
			}
			chain.nextIn = f.Delivery
		}
		chain.nextIn = chain.nextIn.Add(samplesToDuration(f.Samples, rateForFormat(f.Subclass)))
	}

	out := f
	for p := chain; out != nil && p != nil; p = p.next {
		if err := frameIn(p, out); err != nil {
			return nil, err
		}
		o, err := p.t.frameOut(p)
		if err != nil {
			return nil, err
		}
		out = o
	}
	if out == nil {
		return nil, nil
	}

	if !delivery.IsZero() {
		if chain.nextOut.IsZero() {
			chain.nextOut = time.Now()
		}
		out.Delivery = chain.nextOut
		chain.nextOut = chain.nextOut.Add(samplesToDuration(out.Samples, rateForFormat(out.Subclass)))
	} else {
		out.Delivery = time.Time{}
		out.HasTimingInfo = hadTimingInfo
		if hadTimingInfo {
			out.TS = ts
			out.Len = ln
			out.Seqno = seqno
		}
	}

	if out.Type == FrameCNG {
		chain.nextOut = time.Time{}
	}
	return out, nil
}
