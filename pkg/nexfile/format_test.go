package nexfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{input: "nex", expected: FormatV1},
		{input: ".NEX", expected: FormatV1},
		{input: "v1", expected: FormatV1},
		{input: "nex5", expected: FormatV5},
		{input: " v5 ", expected: FormatV5},
		{input: "plx", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseFormat(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatV5, FormatForPath("/data/session.nex5"))
	assert.Equal(t, FormatV5, FormatForPath("SESSION.NEX5"))
	assert.Equal(t, FormatV1, FormatForPath("session.nex"))
	assert.Equal(t, FormatV1, FormatForPath("session"))
	assert.Equal(t, ".nex5", FormatV5.Extension())
}

func TestDetectFormat(t *testing.T) {
	_, err := DetectFormat([]byte{'N', 'E'})
	assert.True(t, errors.Is(err, ErrTruncatedData))

	_, err = DetectFormat([]byte{0, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrInvalidFormat))

	f, err := DetectFormat([]byte("NEX1"))
	require.NoError(t, err)
	assert.Equal(t, FormatV1, f)

	f, err = DetectFormat([]byte("NEX5"))
	require.NoError(t, err)
	assert.Equal(t, FormatV5, f)
}

func TestParseSampleEncoding(t *testing.T) {
	e, err := ParseSampleEncoding("int16")
	require.NoError(t, err)
	assert.Equal(t, SampleInt16, e)

	e, err = ParseSampleEncoding("")
	require.NoError(t, err)
	assert.Equal(t, SampleFloat32, e)
	assert.Equal(t, "float32", e.String())

	_, err = ParseSampleEncoding("double")
	assert.Error(t, err)
}
