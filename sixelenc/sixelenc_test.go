package sixelenc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakuraviz/sakura/frame"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/sixelenc"
)

func TestEncodeRejectsEmptyFrame(t *testing.T) {
	t.Parallel()

	_, err := sixelenc.Encode(nil, 256, option.SixelQualityHigh)
	require.ErrorIs(t, err, sixelenc.ErrEmptyFrame)

	_, err = sixelenc.Encode(&frame.Frame{}, 256, option.SixelQualityHigh)
	require.ErrorIs(t, err, sixelenc.ErrEmptyFrame)
}

func TestEncodeProducesNonEmptyPayload(t *testing.T) {
	t.Parallel()

	f := frame.New(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			f.Set(x, y, byte(x*30), byte(y*30), byte((x+y)*15))
		}
	}

	payload, err := sixelenc.Encode(f, 32, option.SixelQualityLow)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}

func TestEncodeClampsPaletteSize(t *testing.T) {
	t.Parallel()

	f := frame.New(4, 4)

	_, err := sixelenc.Encode(f, 0, option.SixelQualityHigh)
	require.NoError(t, err)

	_, err = sixelenc.Encode(f, 9999, option.SixelQualityHigh)
	require.NoError(t, err)
}
