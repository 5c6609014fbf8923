package transcore

/*------------------------------------------------------------------
 *
 * Purpose:	Thread-safe translator registry: (de)activation and
 *		empirical cost measurement, with the path matrix rebuilt
 *		under the same write-lock as every mutation.
 *
 *----------------------------------------------------------------*/

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// ErrInvalidFormat is returned when a registration names a src/dst
// format that isn't a recognised single bit, or is >= MaxFormat.
var ErrInvalidFormat = errors.New("transcore: invalid format")

// ErrMissingModule is returned when a Transcoder has no owning Module.
var ErrMissingModule = errors.New("transcore: missing module pointer")

// ErrEmptyBuffer is returned when a Transcoder's BufSize is zero.
var ErrEmptyBuffer = errors.New("transcore: empty buffer size")

// ErrNotFound is returned by Unregister when the transcoder wasn't on
// the list.
var ErrNotFound = errors.New("transcore: transcoder not registered")

// pointerAlign is the alignment BufSize is rounded up to, mirroring
// the reference's "align to the machine's pointer alignment" rounding
// in __ast_register_translator.
const pointerAlign = 8

// Registry is the process-wide, lock-protected translator list plus
// its derived path matrix. The zero value is ready to use.
type Registry struct {
	mu          sync.RWMutex
	translators []*Transcoder
	matrix      [MaxFormat][MaxFormat]matrixCell
}

// NewRegistry returns an empty, ready-to-use registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register validates and adds t, ordering it among any existing
// transcoders sharing its (src, dst) pair ascending by measured cost,
// then rebuilds the matrix. Validation and field setup happen before
// the write-lock is taken; cost measurement, insertion and the rebuild
// run under it, per spec.md §5's "writers" list.
func (r *Registry) Register(t *Transcoder, module Module) error {
	if module == nil {
		log.Warn("missing module pointer, you need to supply one")
		return ErrMissingModule
	}
	if t.BufSize == 0 {
		log.Warn("empty buf size, you need to supply one")
		return ErrEmptyBuffer
	}

	srcIdx, dstIdx := indexOf(t.Src), indexOf(t.Dst)
	if srcIdx == -1 || dstIdx == -1 {
		log.Warn("invalid translator path", "format", t.Src, "ok", srcIdx != -1)
		return ErrInvalidFormat
	}
	if srcIdx >= MaxFormat || dstIdx >= MaxFormat {
		log.Warn("format index exceeds MaxFormat", "name", t.Name)
		return ErrInvalidFormat
	}

	t.Module = module
	t.srcIdx, t.dstIdx = srcIdx, dstIdx
	t.active = true
	t.BufSize = ((t.BufSize + pointerAlign - 1) / pointerAlign) * pointerAlign

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calcCost(t, 1)
	log.Info("registered translator", "name", t.Name, "src", FormatName(t.Src), "dst", FormatName(t.Dst), "cost", t.cost)

	inserted := false
	lastSame := -1
	for i, u := range r.translators {
		if u.srcIdx == t.srcIdx && u.dstIdx == t.dstIdx {
			if u.cost > t.cost {
				r.translators = append(r.translators[:i], append([]*Transcoder{t}, r.translators[i:]...)...)
				inserted = true
				break
			}
			lastSame = i
		}
	}
	if !inserted && lastSame >= 0 {
		i := lastSame + 1
		r.translators = append(r.translators[:i], append([]*Transcoder{t}, r.translators[i:]...)...)
	} else if !inserted {
		r.translators = append([]*Transcoder{t}, r.translators...)
	}

	r.rebuildMatrix(0)
	return nil
}

// Unregister removes t by identity and rebuilds the matrix. Returns
// ErrNotFound if t was never registered.
func (r *Registry) Unregister(t *Transcoder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.translators {
		if u == t {
			r.translators = append(r.translators[:i], r.translators[i+1:]...)
			log.Info("unregistered translator", "name", t.Name, "src", FormatName(t.Src), "dst", FormatName(t.Dst))
			r.rebuildMatrix(0)
			return nil
		}
	}
	return ErrNotFound
}

// Activate flips t's active flag on and rebuilds the matrix.
func (r *Registry) Activate(t *Transcoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.active = true
	r.rebuildMatrix(0)
}

// Deactivate flips t's active flag off and rebuilds the matrix.
// Inactive transcoders stay on the list but are ignored during build.
func (r *Registry) Deactivate(t *Transcoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.active = false
	r.rebuildMatrix(0)
}

// Recalc rebuilds the matrix, re-measuring every active transcoder's
// cost over the given number of seconds (floor 1). Callers needing
// the CLI's ceiling/truncation-warning behaviour should clamp before
// calling; Recalc itself does not clamp.
func (r *Registry) Recalc(seconds int) {
	if seconds <= 0 {
		seconds = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuildMatrix(seconds)
}

// calcCost measures t's real CPU cost (user + system time) to produce
// `seconds` worth of output samples, by repeatedly feeding t.Sample()
// frames through a fresh instance. Assigns the sentinel cost 999999 if
// Sample is absent, the instance can't be built, or Sample fails to
// produce a frame. A buffer overrun in frameIn ends the measurement
// early and the CPU time used so far is stored as the cost.
func (r *Registry) calcCost(t *Transcoder, seconds int) {
	if seconds <= 0 {
		seconds = 1
	}
	if t.Sample == nil {
		log.Warn("translator does not produce sample frames", "name", t.Name)
		t.cost = 999999
		return
	}

	inst, err := newInstance(t)
	if err != nil {
		log.Warn("translator appears to be broken and will probably fail", "name", t.Name)
		t.cost = 999999
		return
	}

	outRate := 8000
	if info, ok := LookupFormat(t.Dst); ok && info.SampleHz > 0 {
		outRate = info.SampleHz
	}
	target := seconds * outRate

	var start, end unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &start)

	numSamples := 0
	for numSamples < target {
		f, serr := t.Sample()
		if serr != nil || f == nil {
			log.Warn("translator failed to produce a sample frame", "name", t.Name)
			destroyInstance(inst)
			t.cost = 999999
			return
		}
		if ferr := frameIn(inst, f); ferr != nil {
			log.Warn("frame_in bound overrun during cost measurement", "name", t.Name)
			break
		}
		for {
			out, oerr := t.frameOut(inst)
			if oerr != nil || out == nil {
				break
			}
			numSamples += out.Samples
		}
	}

	_ = unix.Getrusage(unix.RUSAGE_SELF, &end)
	destroyInstance(inst)

	cost := (rusageMicros(end) - rusageMicros(start)) / seconds
	if cost < 1 {
		cost = 1
	}
	t.cost = cost
}

func rusageMicros(ru unix.Rusage) int {
	u := int64(ru.Utime.Sec)*1_000_000 + int64(ru.Utime.Usec)
	s := int64(ru.Stime.Sec)*1_000_000 + int64(ru.Stime.Usec)
	return int(u + s)
}
