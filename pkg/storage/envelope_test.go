package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_EncodeDecodeRoundTrip(t *testing.T) {
	storedAt := time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)

	testCases := []struct {
		name string
		file string
		data []byte
	}{
		{name: "named file", file: "session.nex5", data: []byte("NEX5 payload")},
		{name: "no name", file: "", data: []byte("NEX1 payload")},
		{name: "empty data", file: "empty.nex", data: []byte{}},
		{name: "binary data", file: "bin.nex", data: []byte{0x00, 0x01, 0xFF, 0xFE}},
		{name: "large data", file: "big.nex5", data: bytes.Repeat([]byte("v"), 10240)},
		{name: "unicode name", file: "séance 🧠.nex", data: []byte("x")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := newEnvelope(tc.file, tc.data, storedAt)
			require.NoError(t, err)

			encoded := e.encode()
			assert.Len(t, encoded, envelopeHeaderSize+len(tc.file)+len(tc.data))

			decoded, err := decodeEnvelope(encoded)
			require.NoError(t, err)
			require.NoError(t, decoded.validate())

			assert.Equal(t, tc.file, string(decoded.Name))
			assert.Equal(t, tc.data, decoded.Data)
			assert.Equal(t, e.CRC32, decoded.CRC32)
			assert.True(t, storedAt.Equal(decoded.storedAt()))
		})
	}
}

func TestEnvelope_Layout(t *testing.T) {
	e, err := newEnvelope("ab", []byte{9, 8, 7}, time.Unix(0, 42))
	require.NoError(t, err)
	encoded := e.encode()

	assert.Equal(t, e.CRC32, binary.LittleEndian.Uint32(encoded[0:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(encoded[4:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(encoded[8:]))
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(encoded[12:]))
	assert.Equal(t, []byte("ab"), encoded[20:22])
	assert.Equal(t, []byte{9, 8, 7}, encoded[22:])
}

func TestEnvelope_ValidateDetectsTampering(t *testing.T) {
	e, err := newEnvelope("session.nex", []byte("payload"), time.Now())
	require.NoError(t, err)

	for _, offset := range []int{0, 13, envelopeHeaderSize, envelopeHeaderSize + 11} {
		encoded := e.encode()
		encoded[offset] ^= 0x01

		decoded, err := decodeEnvelope(encoded)
		require.NoError(t, err)
		assert.True(t, errors.Is(decoded.validate(), ErrCorrupt), "flipped byte %d", offset)
	}
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	e, err := newEnvelope("session.nex", []byte("payload"), time.Now())
	require.NoError(t, err)
	encoded := e.encode()

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short header", data: encoded[:envelopeHeaderSize-1]},
		{name: "truncated data", data: encoded[:len(encoded)-1]},
		{name: "trailing bytes", data: append(append([]byte(nil), encoded...), 0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeEnvelope(tc.data)
			assert.True(t, errors.Is(err, ErrCorrupt))
		})
	}
}
