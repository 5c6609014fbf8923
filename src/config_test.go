package transcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfigYAML = `
transcoders:
  - name: ulaw_to_gsm
    src: ulaw
    dst: gsm
    buf_size: 320
    buffer_samples: 160
  - name: gsm_to_ulaw
    src: gsm
    dst: ulaw
    native_plc: true
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "transcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func Test_LoadConfig_parsesTranscoderList(t *testing.T) {
	path := writeTempConfig(t, sampleConfigYAML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Transcoders, 2)
	assert.Equal(t, "ulaw_to_gsm", cfg.Transcoders[0].Name)
	assert.Equal(t, 160, cfg.Transcoders[0].BufferSamples)
	assert.True(t, cfg.Transcoders[1].NativePLC)
}

func Test_LoadConfig_missingFileIsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func Test_BuildDemoTranscoders_unknownFormatIsError(t *testing.T) {
	cfg := &ConfigFile{Transcoders: []TranscoderSpec{{Name: "bad", Src: "nonexistent", Dst: "ulaw"}}}
	_, _, err := BuildDemoTranscoders(cfg)
	assert.Error(t, err)
}

func Test_BuildDemoTranscoders_registersAndMeasures(t *testing.T) {
	path := writeTempConfig(t, sampleConfigYAML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	transcoders, module, err := BuildDemoTranscoders(cfg)
	require.NoError(t, err)
	require.Len(t, transcoders, 2)

	r := NewRegistry()
	for _, tr := range transcoders {
		require.NoError(t, r.Register(tr, module))
	}

	cost, ok := r.CellCost(FormatULaw, FormatGSM)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, cost, 1)
}

func Test_demoModule_pinUnpinRefcount(t *testing.T) {
	m := &demoModule{}
	m.Pin()
	m.Pin()
	m.Unpin()
	assert.EqualValues(t, 1, m.Refs())
}
