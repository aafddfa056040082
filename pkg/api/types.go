package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/nexkit/pkg/nexfile"
	"github.com/ssargent/nexkit/pkg/recording"
	"github.com/ssargent/nexkit/pkg/storage"
)

// DefaultMaxUploadBytes caps the size of an uploaded file image
const DefaultMaxUploadBytes = 512 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreatedResponse is returned when a recording is stored
type CreatedResponse struct {
	ID string `json:"id"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind           string
	Port           int
	MaxUploadBytes int64                // DefaultMaxUploadBytes when 0
	Writer         nexfile.WriterConfig // used by the file download route
}

// RecordingArchive is the storage the API serves recordings from.
// *storage.Archive implements it.
type RecordingArchive interface {
	PutNamed(name string, data []byte) (ksuid.KSUID, error)
	Raw(id ksuid.KSUID) ([]byte, error)
	Get(id ksuid.KSUID) (*recording.Session, error)
	List() ([]storage.Entry, error)
	Delete(id ksuid.KSUID) error
}

var _ RecordingArchive = (*storage.Archive)(nil)
