package main

/*------------------------------------------------------------------
 *
 * Purpose:	Standalone tone/escape-tone classifier: reads raw 16-bit
 *		little-endian PCM at 8kHz from stdin in 160-sample
 *		chunks, prints the first detection to stderr, and exits.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	transcore "github.com/kb3lfq/transcore/src"
)

const samplesPerFrame = 160

func main() {
	detector := transcore.NewToneDetector()
	ms := 0
	raw := make([]byte, samplesPerFrame*2)
	samples := make([]int16, samplesPerFrame)

	for {
		n, err := readRetryEINTR(os.Stdin, raw)
		if n > 0 {
			ms += n / 16
			count := n / 2
			for i := 0; i < count; i++ {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
			}
			detector.ProcessFrame(samples[:count])
			if detector.IsTone() {
				fmt.Fprintf(os.Stderr, "Detected tone at %dms\n", ms)
				return
			}
			if detector.IsEscape() {
				fmt.Fprintf(os.Stderr, "Detected escape tone at %dms\n", ms)
				return
			}
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		}
		return
	}
}

// readRetryEINTR reads into buf, transparently retrying a single
// interrupted-syscall error instead of surfacing it as a read failure.
func readRetryEINTR(r io.Reader, buf []byte) (int, error) {
	for {
		n, err := r.Read(buf)
		if err != nil && errors.Is(err, syscall.EINTR) {
			continue
		}
		return n, err
	}
}
