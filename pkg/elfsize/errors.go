package elfsize

import "errors"

// Errors returned by Calculate, FromReader, Inspect and ReadByteRange.
// They are wrapped with context; match them with errors.Is.
var (
	ErrNotFound              = errors.New("file not found")
	ErrUnreadable            = errors.New("file not readable")
	ErrTruncated             = errors.New("truncated file")
	ErrUnsupportedEncoding   = errors.New("unsupported ELF data encoding")
	ErrUnsupportedClass      = errors.New("unsupported ELF class")
	ErrMalformedSectionTable = errors.New("malformed section header table")
)
