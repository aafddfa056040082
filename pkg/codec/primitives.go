package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Encoder appends little-endian values to a growing byte buffer
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with the given initial capacity
func NewEncoder(capacity int) *Encoder {
	if capacity < 0 {
		capacity = 0
	}
	return &Encoder{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Bytes returns the encoded buffer
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) Int16(v int16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v))
}

func (e *Encoder) Int32(v int32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v))
}

func (e *Encoder) Uint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) Int64(v int64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v))
}

func (e *Encoder) Float32(v float32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *Encoder) Float64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

func (e *Encoder) Int16s(values []int16) {
	for _, v := range values {
		e.Int16(v)
	}
}

func (e *Encoder) Int32s(values []int32) {
	for _, v := range values {
		e.Int32(v)
	}
}

func (e *Encoder) Uint32s(values []uint32) {
	for _, v := range values {
		e.Uint32(v)
	}
}

func (e *Encoder) Int64s(values []int64) {
	for _, v := range values {
		e.Int64(v)
	}
}

func (e *Encoder) Float32s(values []float32) {
	for _, v := range values {
		e.Float32(v)
	}
}

// Write appends raw bytes. It implements io.Writer and never fails.
func (e *Encoder) Write(p []byte) (int, error) {
	e.buf = append(e.buf, p...)
	return len(p), nil
}

// Zero appends n zero bytes (reserved header regions)
func (e *Encoder) Zero(n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, 0)
	}
}

// String writes s as a fixed-length field of n bytes, NUL-padded.
// Longer strings are cut at the last complete UTF-8 sequence that fits.
func (e *Encoder) String(s string, n int) {
	s = TruncateUTF8(s, n)
	e.buf = append(e.buf, s...)
	e.Zero(n - len(s))
}

// PatchInt64 overwrites 8 bytes at an absolute position already written
func (e *Encoder) PatchInt64(at int, v int64) {
	binary.LittleEndian.PutUint64(e.buf[at:at+8], uint64(v))
}

// TruncateUTF8 cuts s to at most n bytes without splitting a rune
func TruncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Decoder reads little-endian values from an in-memory file image.
// The first out-of-range access records ErrTruncatedData; later reads
// return zero values and Err keeps reporting the first failure.
type Decoder struct {
	data []byte
	off  int64
	err  error
}

// NewDecoder creates a decoder positioned at the start of data
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Err returns the first error encountered
func (d *Decoder) Err() error {
	return d.err
}

// Offset returns the current read position
func (d *Decoder) Offset() int64 {
	return d.off
}

// Size returns the total number of bytes available
func (d *Decoder) Size() int64 {
	return int64(len(d.data))
}

// Remaining returns the number of unread bytes after the cursor
func (d *Decoder) Remaining() int64 {
	return int64(len(d.data)) - d.off
}

// Seek moves the cursor to an absolute offset
func (d *Decoder) Seek(offset int64) {
	if d.err != nil {
		return
	}
	if offset < 0 || offset > int64(len(d.data)) {
		d.err = fmt.Errorf("%w: offset %d outside file of %d bytes", ErrTruncatedData, offset, len(d.data))
		return
	}
	d.off = offset
}

// Skip advances the cursor by n bytes
func (d *Decoder) Skip(n int) {
	d.take(int64(n))
}

func (d *Decoder) take(n int64) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > d.Remaining() {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedData, n, d.off, d.Remaining())
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

// takeN reserves count elements of width bytes, guarding against overflow
func (d *Decoder) takeN(count int64, width int64) []byte {
	if d.err != nil {
		return nil
	}
	if count < 0 || count > d.Remaining()/width {
		d.err = fmt.Errorf("%w: need %d values of %d bytes at offset %d, have %d bytes",
			ErrTruncatedData, count, width, d.off, d.Remaining())
		return nil
	}
	return d.take(count * width)
}

func (d *Decoder) Int32() int32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (d *Decoder) Int64() int64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (d *Decoder) Float64() float64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// String reads a fixed-length text field of n bytes. The value ends at
// the first NUL; invalid UTF-8 sequences are replaced.
func (d *Decoder) String(n int) string {
	b := d.take(int64(n))
	if b == nil {
		return ""
	}
	return decodeText(b)
}

func decodeText(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// Strings reads count consecutive text fields of n bytes each
func (d *Decoder) Strings(count int64, n int) []string {
	if d.err != nil {
		return nil
	}
	if n <= 0 {
		if count < 0 {
			d.err = fmt.Errorf("%w: negative string count %d", ErrTruncatedData, count)
			return nil
		}
		return make([]string, count)
	}
	b := d.takeN(count, int64(n))
	if b == nil {
		return nil
	}
	out := make([]string, count)
	for i := range out {
		out[i] = decodeText(b[i*n : (i+1)*n])
	}
	return out
}

// Rest returns the unread bytes and moves the cursor to the end
func (d *Decoder) Rest() []byte {
	return d.take(d.Remaining())
}

func (d *Decoder) Int16s(count int64) []int16 {
	b := d.takeN(count, 2)
	if b == nil {
		return nil
	}
	out := make([]int16, count)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

func (d *Decoder) Int32s(count int64) []int32 {
	b := d.takeN(count, 4)
	if b == nil {
		return nil
	}
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func (d *Decoder) Uint32s(count int64) []uint32 {
	b := d.takeN(count, 4)
	if b == nil {
		return nil
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func (d *Decoder) Int64s(count int64) []int64 {
	b := d.takeN(count, 8)
	if b == nil {
		return nil
	}
	out := make([]int64, count)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

func (d *Decoder) Float32s(count int64) []float32 {
	b := d.takeN(count, 4)
	if b == nil {
		return nil
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
