package elfsize

import (
	"errors"
	"fmt"
	"io"
)

// ReadByteRange returns length bytes of the file at path starting at offset.
// The buffer always has exactly length bytes; the part that lies beyond the
// end of the file is left zeroed.
func ReadByteRange(path string, offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("invalid byte range: offset %d, length %d", offset, length)
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	return buf, nil
}
