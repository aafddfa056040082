// Package storage keeps encoded recordings in a pebble database
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/nexkit/pkg/metrics"
	"github.com/ssargent/nexkit/pkg/nexfile"
	"github.com/ssargent/nexkit/pkg/recording"
)

// StorageError represents archive errors
type StorageError struct {
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}

// Errors
var (
	ErrNotFound  = &StorageError{"recording not found"}
	ErrInvalidID = &StorageError{"invalid recording id"}
	ErrCorrupt   = &StorageError{"corrupt archive record"}
	ErrTooLarge  = &StorageError{"recording too large"}
)

var (
	recordingPrefix = []byte("rec/")
	recordingEnd    = []byte("rec0") // '0' sorts right after '/'
)

// Entry describes one stored recording
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Format    string    `json:"format"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchiveConfig holds configuration for the archive
type ArchiveConfig struct {
	Reader  *nexfile.Reader  // validates uploads; default reader when nil
	Writer  *nexfile.Writer  // encodes sessions in PutSession; default writer when nil
	Logger  *zerolog.Logger  // nil disables logging
	Metrics *metrics.Metrics // nil disables metrics
}

// Archive stores complete .nex and .nex5 file images under time-sortable
// KSUID keys, each framed with its original file name and a checksum.
// It is safe for concurrent use.
type Archive struct {
	db      *pebble.DB
	reader  *nexfile.Reader
	writer  *nexfile.Writer
	logger  zerolog.Logger
	metrics *metrics.Metrics

	writeMu sync.Mutex
	count   atomic.Int64
}

// Open opens or creates an archive in dir
func Open(dir string, config ArchiveConfig) (*Archive, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", dir, err)
	}

	a := &Archive{
		db:      db,
		reader:  config.Reader,
		writer:  config.Writer,
		logger:  zerolog.Nop(),
		metrics: config.Metrics,
	}
	if a.reader == nil {
		a.reader = nexfile.NewReader(nexfile.ReaderConfig{Logger: config.Logger, Metrics: config.Metrics})
	}
	if a.writer == nil {
		a.writer = nexfile.NewWriter(nexfile.WriterConfig{Logger: config.Logger, Metrics: config.Metrics})
	}
	if config.Logger != nil {
		a.logger = config.Logger.With().Str("component", "archive").Logger()
	}

	entries, err := a.List()
	if err != nil {
		db.Close()
		return nil, err
	}
	a.count.Store(int64(len(entries)))
	a.metrics.SetArchiveRecordings(len(entries))
	a.logger.Info().Str("dir", dir).Int("recordings", len(entries)).Msg("archive opened")
	return a, nil
}

// ParseID parses the textual form of a recording id
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

func recordingKey(id ksuid.KSUID) []byte {
	return append(append([]byte{}, recordingPrefix...), id.String()...)
}

// Put stores a file image after checking that it decodes
func (a *Archive) Put(data []byte) (ksuid.KSUID, error) {
	return a.PutNamed("", data)
}

// PutNamed is Put that also records the original file name
func (a *Archive) PutNamed(name string, data []byte) (ksuid.KSUID, error) {
	if _, err := a.reader.Decode(data); err != nil {
		return ksuid.Nil, err
	}
	return a.put(name, data)
}

// PutSession encodes s with the archive's writer and stores the result
func (a *Archive) PutSession(s *recording.Session) (ksuid.KSUID, error) {
	data, err := a.writer.Encode(s)
	if err != nil {
		return ksuid.Nil, err
	}
	return a.put("", data)
}

func (a *Archive) put(name string, data []byte) (ksuid.KSUID, error) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	id := ksuid.New()
	e, err := newEnvelope(name, data, time.Now())
	if err != nil {
		return ksuid.Nil, err
	}
	if err := a.db.Set(recordingKey(id), e.encode(), pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store recording: %w", err)
	}
	a.metrics.SetArchiveRecordings(int(a.count.Add(1)))
	a.logger.Debug().Str("id", id.String()).Str("name", name).Int("bytes", len(data)).Msg("stored recording")
	return id, nil
}

// Raw returns a copy of the stored file image after verifying its checksum
func (a *Archive) Raw(id ksuid.KSUID) ([]byte, error) {
	value, closer, err := a.db.Get(recordingKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recording %s: %w", id, err)
	}
	defer closer.Close()

	e, err := decodeEnvelope(value)
	if err == nil {
		err = e.validate()
	}
	if err != nil {
		a.logger.Error().Err(err).Str("id", id.String()).Msg("corrupt recording")
		return nil, fmt.Errorf("recording %s: %w", id, err)
	}

	// value is only valid until closer.Close
	return append([]byte(nil), e.Data...), nil
}

// Get decodes the stored recording
func (a *Archive) Get(id ksuid.KSUID) (*recording.Session, error) {
	data, err := a.Raw(id)
	if err != nil {
		return nil, err
	}
	return a.reader.Decode(data)
}

// List returns every stored recording in id order, which follows creation time
func (a *Archive) List() ([]Entry, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: recordingPrefix, UpperBound: recordingEnd})
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer iter.Close()

	entries := []Entry{}
	for iter.First(); iter.Valid(); iter.Next() {
		idText := string(bytes.TrimPrefix(iter.Key(), recordingPrefix))
		id, err := ksuid.Parse(idText)
		if err != nil {
			a.logger.Warn().Str("key", string(iter.Key())).Msg("skipping malformed archive key")
			continue
		}
		e, err := decodeEnvelope(iter.Value())
		if err != nil {
			a.logger.Warn().Err(err).Str("id", idText).Msg("skipping corrupt archive record")
			continue
		}
		format := "unknown"
		if f, err := nexfile.DetectFormat(e.Data); err == nil {
			format = f.String()
		}
		entries = append(entries, Entry{
			ID:        id.String(),
			Name:      string(e.Name),
			Format:    format,
			SizeBytes: len(e.Data),
			CreatedAt: e.storedAt(),
		})
	}
	return entries, iter.Error()
}

// Delete removes a recording
func (a *Archive) Delete(id ksuid.KSUID) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	key := recordingKey(id)
	_, closer, err := a.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read recording %s: %w", id, err)
	}
	closer.Close()

	if err := a.db.Delete(key, pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete recording %s: %w", id, err)
	}
	a.metrics.SetArchiveRecordings(int(a.count.Add(-1)))
	a.logger.Debug().Str("id", id.String()).Msg("deleted recording")
	return nil
}

// Count returns the number of stored recordings
func (a *Archive) Count() int {
	return int(a.count.Load())
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}
