package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/config"
	"pipelined.dev/hwstream/decode"
	"pipelined.dev/hwstream/hardware"
	"pipelined.dev/hwstream/mock"
)

const session = `
period: 50ms
channels:
  microphone:
    tag: sig_in
    blockcount: 2
    overflow: fail
    format:
      channels: 4
      compression: multiplexed
      narrowwidth: 2
      scale: 1000
      samplerate: 24414.0625
  speaker:
    tag: spk_out
    format:
      channels: 1
      word: float32
      readmode: triggered
`

func TestRead(t *testing.T) {
	c, err := config.Read(strings.NewReader(session), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, c.Period)
	assert.Equal(t, []string{"microphone", "speaker"}, c.Names())

	mic := c.Channels["microphone"]
	assert.Equal(t, "sig_in", mic.Tag)
	assert.Equal(t, 2, mic.BlockCount)
	f, err := mic.Format.Decode()
	require.NoError(t, err)
	assert.Equal(t, decode.Format{
		Channels:    4,
		Word:        decode.Int32,
		Compression: decode.Multiplexed,
		NarrowWidth: 2,
		Scale:       1000,
		SampleRate:  24414.0625,
	}, f)

	f, err = c.Channels["speaker"].Format.Decode()
	require.NoError(t, err)
	assert.Equal(t, decode.Float32, f.Word)
	assert.Equal(t, decode.Triggered, f.ReadMode)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(session), 0o600))

	t.Setenv("HWSTREAM_PERIOD", "250ms")
	t.Setenv("HWSTREAM_CHANNELS_SPEAKER_TAG", "spk_alt")
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.Period)
	assert.Equal(t, "spk_alt", c.Channels["speaker"].Tag)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultPeriod(t *testing.T) {
	c, err := config.Read(strings.NewReader("channels: {}"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, c.Period)
}

func TestValidate(t *testing.T) {
	invalid := map[string]string{
		"empty tag": `
channels:
  microphone:
    format: {channels: 1}`,
		"overflow": `
channels:
  microphone:
    tag: sig_in
    overflow: ignore
    format: {channels: 1}`,
		"compression": `
channels:
  microphone:
    tag: sig_in
    format: {channels: 1, compression: zip}`,
		"narrow width": `
channels:
  microphone:
    tag: sig_in
    format: {channels: 1, compression: packed, narrowwidth: 3}`,
		"block count": `
channels:
  microphone:
    tag: sig_in
    blockcount: -1
    format: {channels: 1}`,
		"period": `
period: -1s
channels: {}`,
	}
	for name, yaml := range invalid {
		_, err := config.Read(strings.NewReader(yaml), "yaml")
		assert.True(t, errors.Is(err, hwstream.ErrConfig), "%s: %v", name, err)
	}
}

func TestBuffers(t *testing.T) {
	c, err := config.Read(strings.NewReader(session), "yaml")
	require.NoError(t, err)

	mic, spk := mock.NewChannel(1000), mock.NewChannel(100)
	d := &mock.Device{Channels: map[string]hardware.Channel{"sig_in": mic, "spk_out": spk}}
	s, err := c.Open(d)
	require.NoError(t, err)
	defer s.Close()

	buffers, err := c.Buffers(s)
	require.NoError(t, err)
	require.Len(t, buffers, 2)
	assert.Equal(t, 500, buffers["microphone"].BlockSize())
	assert.Equal(t, 100, buffers["speaker"].BlockSize())

	d.Channels["sig_in"] = mock.NewChannel(1002)
	s2, err := c.Open(d)
	require.NoError(t, err)
	defer s2.Close()
	_, err = c.Buffers(s2)
	assert.True(t, errors.Is(err, hwstream.ErrConfig))
}

func TestOpenMissingTag(t *testing.T) {
	c, err := config.Read(strings.NewReader(session), "yaml")
	require.NoError(t, err)
	d := &mock.Device{Channels: map[string]hardware.Channel{"sig_in": mock.NewChannel(1000)}}
	_, err = c.Open(d)
	assert.True(t, errors.Is(err, hwstream.ErrConfig))
}
