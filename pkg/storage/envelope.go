package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"time"
)

// envelopeHeaderSize is CRC32(4) + NameSize(4) + DataSize(4) + StoredAt(8)
const envelopeHeaderSize = 20

// envelope frames an archived file image together with its original file
// name and the time it was stored.
// Layout: [CRC32(4)][NameSize(4)][DataSize(4)][StoredAt(8)][Name][Data]
type envelope struct {
	CRC32    uint32 // over everything after the CRC field
	NameSize uint32
	DataSize uint32
	StoredAt uint64 // Unix time in nanoseconds
	Name     []byte
	Data     []byte
}

func newEnvelope(name string, data []byte, storedAt time.Time) (*envelope, error) {
	if uint64(len(name)) > math.MaxUint32 || uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: name %d bytes, data %d bytes", ErrTooLarge, len(name), len(data))
	}
	e := &envelope{
		NameSize: uint32(len(name)),
		DataSize: uint32(len(data)),
		StoredAt: uint64(storedAt.UnixNano()),
		Name:     []byte(name),
		Data:     data,
	}
	e.CRC32 = e.checksum()
	return e, nil
}

// Size returns the encoded size
func (e *envelope) Size() int {
	return envelopeHeaderSize + len(e.Name) + len(e.Data)
}

func (e *envelope) encode() []byte {
	buf := make([]byte, e.Size())

	binary.LittleEndian.PutUint32(buf[0:], e.CRC32)
	binary.LittleEndian.PutUint32(buf[4:], e.NameSize)
	binary.LittleEndian.PutUint32(buf[8:], e.DataSize)
	binary.LittleEndian.PutUint64(buf[12:], e.StoredAt)
	copy(buf[envelopeHeaderSize:], e.Name)
	copy(buf[envelopeHeaderSize+len(e.Name):], e.Data)

	return buf
}

// decodeEnvelope parses an encoded envelope. Name and Data alias b.
func decodeEnvelope(b []byte) (*envelope, error) {
	if len(b) < envelopeHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for a record header", ErrCorrupt, len(b))
	}

	e := &envelope{
		CRC32:    binary.LittleEndian.Uint32(b[0:4]),
		NameSize: binary.LittleEndian.Uint32(b[4:8]),
		DataSize: binary.LittleEndian.Uint32(b[8:12]),
		StoredAt: binary.LittleEndian.Uint64(b[12:20]),
	}
	want := int64(envelopeHeaderSize) + int64(e.NameSize) + int64(e.DataSize)
	if int64(len(b)) != want {
		return nil, fmt.Errorf("%w: record is %d bytes, header describes %d", ErrCorrupt, len(b), want)
	}

	nameEnd := envelopeHeaderSize + int(e.NameSize)
	e.Name = b[envelopeHeaderSize:nameEnd]
	e.Data = b[nameEnd:]
	return e, nil
}

// validate checks the integrity of the envelope using CRC32
func (e *envelope) validate() error {
	if sum := e.checksum(); e.CRC32 != sum {
		return fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorrupt, e.CRC32, sum)
	}
	return nil
}

func (e *envelope) checksum() uint32 {
	var header [envelopeHeaderSize - 4]byte
	binary.LittleEndian.PutUint32(header[0:], e.NameSize)
	binary.LittleEndian.PutUint32(header[4:], e.DataSize)
	binary.LittleEndian.PutUint64(header[8:], e.StoredAt)

	crc := crc32.NewIEEE()
	crc.Write(header[:])
	crc.Write(e.Name)
	crc.Write(e.Data)
	return crc.Sum32()
}

func (e *envelope) storedAt() time.Time {
	return time.Unix(0, int64(e.StoredAt)).UTC()
}
