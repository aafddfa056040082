package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/nexkit/pkg/metrics"
	"github.com/ssargent/nexkit/pkg/nexfile"
	"github.com/ssargent/nexkit/pkg/recording"
	"github.com/ssargent/nexkit/pkg/storage"
)

// Server holds the API server state
type Server struct {
	archive RecordingArchive
	config  ServerConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewServer creates a new API server. A nil logger disables logging and
// a nil metrics records nothing.
func NewServer(archive RecordingArchive, config ServerConfig, m *metrics.Metrics, logger *zerolog.Logger) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		archive: archive,
		config:  config,
		metrics: m,
		logger:  zerolog.Nop(),
	}
	if logger != nil {
		s.logger = logger.With().Str("component", "api").Logger()
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleCreateRecording stores the uploaded .nex or .nex5 file image. The
// optional name query parameter keeps the original file name.
func (s *Server) handleCreateRecording(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		sendError(w, "Request body is empty", http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	id, err := s.archive.PutNamed(name, body)
	if err != nil {
		s.sendArchiveError(w, err)
		return
	}

	s.logger.Info().Str("id", id.String()).Str("name", name).Int("bytes", len(body)).Msg("recording stored")
	sendJSON(w, http.StatusCreated, CreatedResponse{ID: id.String()})
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	entries, err := s.archive.List()
	if err != nil {
		s.sendArchiveError(w, err)
		return
	}
	sendSuccess(w, entries)
}

// handleGetRecording returns a summary of the decoded recording
func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	id, ok := s.recordingID(w, r)
	if !ok {
		return
	}

	session, err := s.archive.Get(id)
	if err != nil {
		s.sendArchiveError(w, err)
		return
	}
	sendSuccess(w, recording.Summarize(session))
}

// handleGetRecordingFile downloads the recording. Without a format query
// the stored bytes are returned as uploaded; otherwise the recording is
// re-encoded in the requested format.
func (s *Server) handleGetRecordingFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.recordingID(w, r)
	if !ok {
		return
	}

	data, err := s.archive.Raw(id)
	if err != nil {
		s.sendArchiveError(w, err)
		return
	}
	stored, err := nexfile.DetectFormat(data)
	if err != nil {
		s.sendArchiveError(w, err)
		return
	}

	format := stored
	if q := r.URL.Query().Get("format"); q != "" {
		format, err = nexfile.ParseFormat(q)
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if format != stored {
		session, err := s.archive.Get(id)
		if err != nil {
			s.sendArchiveError(w, err)
			return
		}
		config := s.config.Writer
		config.Format = format
		data, err = nexfile.NewWriter(config).Encode(session)
		if err != nil {
			s.sendArchiveError(w, err)
			return
		}
		s.logger.Debug().Str("id", id.String()).Stringer("from", stored).Stringer("to", format).Msg("converted recording")
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id.String()+format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	id, ok := s.recordingID(w, r)
	if !ok {
		return
	}

	if err := s.archive.Delete(id); err != nil {
		s.sendArchiveError(w, err)
		return
	}
	s.logger.Info().Str("id", id.String()).Msg("recording deleted")
	w.WriteHeader(http.StatusNoContent)
}

// recordingID parses the {id} route parameter, answering 400 when it is malformed
func (s *Server) recordingID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func (s *Server) sendArchiveError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("archive operation failed")
	}
	sendError(w, err.Error(), status)
}

// statusForError maps archive and codec errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, nexfile.ErrOversize):
		return http.StatusUnprocessableEntity
	case errors.Is(err, nexfile.ErrInvalidFormat),
		errors.Is(err, nexfile.ErrTruncatedData),
		errors.Is(err, nexfile.ErrInvalidVariable),
		errors.Is(err, nexfile.ErrMetadataParse):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
