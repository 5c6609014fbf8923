package transcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BestChoice_muLawPolicyHook(t *testing.T) {
	r := NewRegistry()
	dst, src, err := r.BestChoice(FormatULaw, AudioMask)
	require.NoError(t, err)
	assert.Equal(t, FormatULaw, dst)
	assert.Equal(t, FormatULaw, src)
}

func Test_BestChoice_commonFormatShortCircuit(t *testing.T) {
	r := NewRegistry()
	dst, src, err := r.BestChoice(FormatALaw|FormatGSM, FormatALaw|FormatSpeex)
	require.NoError(t, err)
	assert.Equal(t, FormatALaw, dst)
	assert.Equal(t, FormatALaw, src)
}

func Test_BestChoice_commonFormatPicksHighestRate(t *testing.T) {
	r := NewRegistry()
	// slin16 (16kHz) and ulaw (8kHz) are both in src & dst: highest rate wins.
	dst, src, err := r.BestChoice(FormatULaw|FormatSLin16, FormatULaw|FormatSLin16)
	require.NoError(t, err)
	assert.Equal(t, FormatSLin16, dst)
	assert.Equal(t, FormatSLin16, src)
}

func Test_BestChoice_noTranslationReturnsSentinelError(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.BestChoice(FormatGSM, FormatSpeex)
	assert.ErrorIs(t, err, ErrNoTranslation)
}

func Test_BestChoice_matrixFallbackPicksBestQualityCell(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}
	tr := passthroughTranscoder("ulaw->gsm", FormatULaw, FormatGSM)
	require.NoError(t, r.Register(tr, mod))

	dst, src, err := r.BestChoice(FormatGSM, FormatULaw)
	require.NoError(t, err)
	assert.Equal(t, FormatGSM, dst)
	assert.Equal(t, FormatULaw, src)
}

func Test_PathSteps_directPathIsOneStep(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}
	tr := passthroughTranscoder("ulaw->alaw", FormatULaw, FormatALaw)
	require.NoError(t, r.Register(tr, mod))

	steps, err := r.PathSteps(FormatALaw, FormatULaw)
	require.NoError(t, err)
	assert.Equal(t, 1, steps)
}

func Test_PathSteps_noPathIsError(t *testing.T) {
	r := NewRegistry()
	_, err := r.PathSteps(FormatGSM, FormatULaw)
	assert.ErrorIs(t, err, ErrNoTranslation)
}

func Test_PathSteps_sameFormatIsZero(t *testing.T) {
	r := NewRegistry()
	steps, err := r.PathSteps(FormatULaw, FormatULaw)
	require.NoError(t, err)
	assert.Equal(t, 0, steps)
}

func Test_AvailableFormats_keepsSourceBitsAndReachableBits(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}
	require.NoError(t, r.Register(passthroughTranscoder("ulaw->alaw", FormatULaw, FormatALaw), mod))
	require.NoError(t, r.Register(passthroughTranscoder("alaw->ulaw", FormatALaw, FormatULaw), mod))

	avail := r.AvailableFormats(FormatULaw|FormatALaw|FormatGSM, FormatULaw)
	assert.Equal(t, FormatULaw|FormatALaw, avail, "gsm has no path to or from ulaw, so it must be dropped")
}

func Test_RenderPath_rendersNameChain(t *testing.T) {
	r := NewRegistry()
	mod := &testModule{}
	tr := passthroughTranscoder("ulaw->alaw", FormatULaw, FormatALaw)
	require.NoError(t, r.Register(tr, mod))

	chain, err := r.BuildPath(FormatALaw, FormatULaw)
	require.NoError(t, err)
	defer FreePath(chain)

	assert.Equal(t, "ulaw->alaw", RenderPath(FormatULaw, chain))
}

func Test_RenderPath_emptyChainIsJustSourceName(t *testing.T) {
	assert.Equal(t, "ulaw", RenderPath(FormatULaw, nil))
}
