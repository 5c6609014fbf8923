package transcore

/*------------------------------------------------------------------
 *
 * Purpose:	Format identifiers and rate-change classification.
 *
 * A format is one bit in a fixed 64-bit mask, partitioned into an
 * audio half and a video half. The dense index used to address the
 * path matrix is the 0-based position of that single set bit.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"math/bits"
)

// Format is a bitmask with exactly one bit set identifying a codec.
type Format uint64

// MaxFormat bounds the dense-index domain used by the path matrix.
const MaxFormat = 64

// indexOf returns the 0-based position of the single set bit in f, or
// -1 if f is zero or has more than one bit set.
func indexOf(f Format) int {
	if f == 0 || f&(f-1) != 0 {
		return -1
	}
	return bits.TrailingZeros64(uint64(f))
}

// maskOf is the inverse of indexOf.
func maskOf(index int) Format {
	if index < 0 || index >= MaxFormat {
		return 0
	}
	return Format(1) << uint(index)
}

// FormatInfo describes one entry of the example format table.
type FormatInfo struct {
	Name      string
	Bit       Format
	SampleHz  int
	Lossless  bool
	IsVideo   bool
}

// Example audio format bits, modeled on Asterisk's codecs.c table.
// Bit 2 is reserved for mu-law, matching the best_choice policy hook
// in spec.md §4.7 ("if dst_set contains the mu-law bit (bit 2)").
const (
	FormatG7231 Format = 1 << iota // 0: lossy, 8kHz
	FormatGSM                      // 1: lossy, 8kHz
	FormatULaw                      // 2: lossless-equivalent PCM, 8kHz
	FormatALaw                      // 3: lossless-equivalent PCM, 8kHz
	FormatG726                      // 4: lossy, 8kHz
	FormatADPCM                     // 5: lossy, 8kHz
	FormatSLin                      // 6: lossless, 8kHz
	FormatLPC10                     // 7: lossy, 8kHz
	FormatG729A                     // 8: lossy, 8kHz
	FormatSpeex                     // 9: lossy, 8kHz
	FormatILBC                      // 10: lossy, 8kHz
	FormatG722                      // 11: lossless-equivalent, 16kHz
	FormatSLin16                    // 12: lossless, 16kHz
	FormatSiren7                    // 13: lossy, 16kHz
	FormatSiren14                   // 14: lossy, 32kHz
	FormatSLin48                    // 15: lossless, 48kHz
)

// Example video format bits, starting above the audio range.
const (
	FormatH261 Format = 1 << (iota + 16) // 16
	FormatH263                           // 17
	FormatH264                           // 18
	FormatVP8                            // 19
)

// AudioMask and VideoMask partition the supported bit range; formats
// outside both masks are not recognised by the planner.
const (
	AudioMask Format = FormatG7231 | FormatGSM | FormatULaw | FormatALaw |
		FormatG726 | FormatADPCM | FormatSLin | FormatLPC10 | FormatG729A |
		FormatSpeex | FormatILBC | FormatG722 | FormatSLin16 | FormatSiren7 |
		FormatSiren14 | FormatSLin48
	VideoMask Format = FormatH261 | FormatH263 | FormatH264 | FormatVP8
)

// formatTable is the process-wide, read-only format catalogue. It is
// populated once (defaultFormatTable) and is not changed afterwards;
// the config loader does not touch it.
var formatTable = defaultFormatTable()

func defaultFormatTable() map[Format]FormatInfo {
	mk := func(name string, bit Format, rate int, lossless, video bool) FormatInfo {
		return FormatInfo{Name: name, Bit: bit, SampleHz: rate, Lossless: lossless, IsVideo: video}
	}
	table := map[Format]FormatInfo{
		FormatG7231:   mk("g723.1", FormatG7231, 8000, false, false),
		FormatGSM:     mk("gsm", FormatGSM, 8000, false, false),
		FormatULaw:    mk("ulaw", FormatULaw, 8000, true, false),
		FormatALaw:    mk("alaw", FormatALaw, 8000, true, false),
		FormatG726:    mk("g726", FormatG726, 8000, false, false),
		FormatADPCM:   mk("adpcm", FormatADPCM, 8000, false, false),
		FormatSLin:    mk("slin", FormatSLin, 8000, true, false),
		FormatLPC10:   mk("lpc10", FormatLPC10, 8000, false, false),
		FormatG729A:   mk("g729", FormatG729A, 8000, false, false),
		FormatSpeex:   mk("speex", FormatSpeex, 8000, false, false),
		FormatILBC:    mk("ilbc", FormatILBC, 8000, false, false),
		FormatG722:    mk("g722", FormatG722, 16000, true, false),
		FormatSLin16:  mk("slin16", FormatSLin16, 16000, true, false),
		FormatSiren7:  mk("siren7", FormatSiren7, 16000, false, false),
		FormatSiren14: mk("siren14", FormatSiren14, 32000, false, false),
		FormatSLin48:  mk("slin48", FormatSLin48, 48000, true, false),
		FormatH261:    mk("h261", FormatH261, 0, true, true),
		FormatH263:    mk("h263", FormatH263, 0, false, true),
		FormatH264:    mk("h264", FormatH264, 0, false, true),
		FormatVP8:     mk("vp8", FormatVP8, 0, false, true),
	}
	return table
}

// LookupFormat returns the catalogue entry for f, or false if f is not
// a recognised single-bit format.
func LookupFormat(f Format) (FormatInfo, bool) {
	info, ok := formatTable[f]
	return info, ok
}

// FormatName renders a human-readable name for f, falling back to a
// hex dump for unrecognised bits (mirrors ast_getformatname's
// "unknown" fallback).
func FormatName(f Format) string {
	if info, ok := formatTable[f]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(0x%x)", uint64(f))
}

// AudioFormats returns every catalogued audio-mask format, ordered by
// bit index, for table-driven diagnostics (e.g. the CLI matrix dump).
func AudioFormats() []Format {
	var out []Format
	for bit := range formatTable {
		if bit&AudioMask != 0 {
			out = append(out, bit)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// LookupFormatByName returns the bit for a catalogue entry by its
// name (case-sensitive, as loaded from the format table), or false if
// no entry has that name.
func LookupFormatByName(name string) (Format, bool) {
	for bit, info := range formatTable {
		if info.Name == name {
			return bit, true
		}
	}
	return 0, false
}

// RateChange is the ordinal quality class of a translation leg or
// path, ordered from best (smallest) to worst (largest). Class
// arithmetic (summing two legs) monotonically worsens quality because
// the values were chosen with enough headroom between tiers.
type RateChange int

const (
	RateLLLLSame  RateChange = 400000
	RateLLLYSame  RateChange = 600000
	RateLLLLUp    RateChange = 800000
	RateLLLYUp    RateChange = 825000
	RateLLLLDown  RateChange = 850000
	RateLLLYDown  RateChange = 875000
	RateLLUnknown RateChange = 885000
	RateLYLLSame  RateChange = 900000
	RateLYLYSame  RateChange = 915000
	RateLYLLUp    RateChange = 930000
	RateLYLYUp    RateChange = 945000
	RateLYLLDown  RateChange = 960000
	RateLYLYDown  RateChange = 975000
	RateLYUnknown RateChange = 985000
)

// rateChangeOf classifies a single transcoding leg from src to dst.
//
// Deviation from the reference: the original get_rate_change_result
// tests the source format's losslessness for both halves of its
// lossy-source branch (`dst_ll = ... || src == ...`), which reads as a
// copy/paste typo. This implementation consistently tests each side's
// own losslessness, as spec.md §9 recommends.
func rateChangeOf(src, dst FormatInfo) RateChange {
	srcRate, dstRate := src.SampleHz, dst.SampleHz
	if src.Lossless {
		switch {
		case dst.Lossless && srcRate == dstRate:
			return RateLLLLSame
		case !dst.Lossless && srcRate == dstRate:
			return RateLLLYSame
		case dst.Lossless && srcRate < dstRate:
			return RateLLLLUp
		case !dst.Lossless && srcRate < dstRate:
			return RateLLLYUp
		case dst.Lossless && srcRate > dstRate:
			return RateLLLLDown
		case !dst.Lossless && srcRate > dstRate:
			return RateLLLYDown
		default:
			return RateLLUnknown
		}
	}
	switch {
	case dst.Lossless && srcRate == dstRate:
		return RateLYLLSame
	case !dst.Lossless && srcRate == dstRate:
		return RateLYLYSame
	case dst.Lossless && srcRate < dstRate:
		return RateLYLLUp
	case !dst.Lossless && srcRate < dstRate:
		return RateLYLYUp
	case dst.Lossless && srcRate > dstRate:
		return RateLYLLDown
	case !dst.Lossless && srcRate > dstRate:
		return RateLYLYDown
	default:
		return RateLYUnknown
	}
}
