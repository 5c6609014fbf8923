package transcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_rebuildMatrix_singleLegPath(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}
	tr := passthroughTranscoder("ulaw->alaw", FormatULaw, FormatALaw)
	require.NoError(t, r.Register(tr, mod))

	cell := r.matrix[indexOf(FormatULaw)][indexOf(FormatALaw)]
	assert.True(t, cell.populated)
	assert.False(t, cell.multistep)
	assert.Same(t, tr, cell.nextHop)
}

func Test_rebuildMatrix_compositePathPrefersQualityOverCost(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}

	// Direct ulaw->gsm leg: lossless->lossy, same rate (LLLYSame, 600000).
	direct := passthroughTranscoder("ulaw->gsm-direct", FormatULaw, FormatGSM)
	// A two-hop path via slin sums LLLLSame + LLLYSame = 1000000, a worse
	// rate class than the direct leg, so whatever the measured costs the
	// composite must not replace the direct leg.
	hop1 := passthroughTranscoder("ulaw->slin", FormatULaw, FormatSLin)
	hop2 := passthroughTranscoder("slin->gsm", FormatSLin, FormatGSM)

	require.NoError(t, r.Register(direct, mod))
	require.NoError(t, r.Register(hop1, mod))
	require.NoError(t, r.Register(hop2, mod))

	cell := r.matrix[indexOf(FormatULaw)][indexOf(FormatGSM)]
	assert.True(t, cell.populated)

	// The cell must not have a worse rateChange class than the direct
	// leg, the best of its candidate routes, since calc_cost-based
	// costs (real, tiny, near-equal CPU times) must never outrank
	// quality class.
	ulawInfo, _ := LookupFormat(FormatULaw)
	gsmInfo, _ := LookupFormat(FormatGSM)
	directRC := rateChangeOf(ulawInfo, gsmInfo)
	assert.LessOrEqual(t, cell.rateChange, directRC)
}

func Test_rebuildMatrix_noSelfPaths(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}
	tr := passthroughTranscoder("ulaw->alaw", FormatULaw, FormatALaw)
	require.NoError(t, r.Register(tr, mod))

	for i := 0; i < MaxFormat; i++ {
		assert.False(t, r.matrix[i][i].populated, "no format should ever translate to itself via the matrix")
	}
}

func Test_rebuildMatrix_deactivatedTranscoderLeavesNoCell(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}
	tr := passthroughTranscoder("ulaw->alaw", FormatULaw, FormatALaw)
	require.NoError(t, r.Register(tr, mod))
	r.Deactivate(tr)

	assert.False(t, r.matrix[indexOf(FormatULaw)][indexOf(FormatALaw)].populated)
}

// Test_rebuildMatrix_costNonDecreasingAlongRandomChains builds random
// chains of passthrough transcoders among a handful of lossless audio
// formats (every leg has the same rate class, so composites only fill
// otherwise-empty cells) and checks that every multistep matrix cell's
// cost is at least 1 and at least as large as the cost of its first hop
// alone — costs can only accumulate forward along a path, never shrink.
func Test_rebuildMatrix_costNonDecreasingAlongRandomChains(t *testing.T) {
	losslessFormats := []Format{FormatULaw, FormatALaw, FormatSLin}

	rapid.Check(t, func(rt *rapid.T) {
		r := NewRegistry()
		mod := &testModule{}

		n := rapid.IntRange(1, 4).Draw(rt, "edgeCount")
		for i := 0; i < n; i++ {
			src := losslessFormats[rapid.IntRange(0, len(losslessFormats)-1).Draw(rt, "src")]
			dst := losslessFormats[rapid.IntRange(0, len(losslessFormats)-1).Draw(rt, "dst")]
			if src == dst {
				continue
			}
			tr := passthroughTranscoder(rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "name"), src, dst)
			_ = r.Register(tr, mod)
		}

		for x := 0; x < MaxFormat; x++ {
			for z := 0; z < MaxFormat; z++ {
				cell := r.matrix[x][z]
				if !cell.populated || !cell.multistep {
					continue
				}
				assert.GreaterOrEqual(rt, cell.cost, 1)
				assert.GreaterOrEqual(rt, cell.cost, cell.nextHop.cost)
			}
		}
	})
}
