package codec

// NexError represents a codec error kind. Concrete errors wrap one of the
// sentinel values below so callers can match them with errors.Is.
type NexError struct {
	Message string
}

func (e *NexError) Error() string {
	return e.Message
}

// Errors
var (
	ErrInvalidFormat   = &NexError{"invalid file format"}
	ErrTruncatedData   = &NexError{"truncated data"}
	ErrOversize        = &NexError{"data exceeds format limits"}
	ErrMetadataParse   = &NexError{"metadata parse error"}
	ErrInvalidVariable = &NexError{"invalid variable"}
)
