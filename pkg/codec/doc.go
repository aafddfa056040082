// Package codec provides the low-level binary layer of the .nex and .nex5
// recording formats.
//
// The package implements little-endian primitives and the four fixed-size
// headers shared by both file generations. Payload layout and the mapping to
// the in-memory data model live in package nexfile.
//
// # File Layout
//
// Both generations use the same overall structure:
//
//	[FileHeader][VarHeader x NumVars][payload of each variable][metadata (v5 only)]
//
// Header sizes:
//   - format-v1 (.nex): 544-byte file header, 208-byte variable headers
//   - format-v5 (.nex5): 356-byte file header, 244-byte variable headers
//
// Every variable header carries an absolute DataOffset pointing at its
// payload. Reserved regions are written as zeros and skipped on read.
//
// # Text Fields
//
// Names, comments, units and marker values are fixed-length byte fields.
// They are NUL-padded on write and cut at the first NUL on read. A string
// longer than its field is truncated at the last complete UTF-8 sequence.
//
// # Error Handling
//
// Decoding is bounds-checked: reading past the end of the buffer yields an
// error wrapping ErrTruncatedData instead of a short read. Header validation
// failures (wrong magic number, non-positive timestamp frequency) wrap
// ErrInvalidFormat. Use errors.Is to distinguish them:
//
//	h, err := codec.DecodeFileHeaderV5(codec.NewDecoder(data))
//	if errors.Is(err, codec.ErrInvalidFormat) {
//	    // not a .nex5 file
//	}
//
// # Thread Safety
//
// Encoder and Decoder are not safe for concurrent use. Header structs are
// plain values.
package codec
