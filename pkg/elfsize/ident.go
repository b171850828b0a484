package elfsize

import (
	"debug/elf"
	"fmt"
	"io"
)

// ident is the decoded identification block.
type ident struct {
	class elf.Class
	data  elf.Data
}

// readIdent reads the first elf.EI_NIDENT bytes of r and validates the
// encoding and class markers, in that order.
func readIdent(r io.Reader) (ident, error) {
	var buf [elf.EI_NIDENT]byte
	if err := readFull(r, buf[:], "identification block"); err != nil {
		return ident{}, err
	}

	id := ident{
		class: elf.Class(buf[elf.EI_CLASS]),
		data:  elf.Data(buf[elf.EI_DATA]),
	}
	if id.data != elf.ELFDATA2LSB && id.data != elf.ELFDATA2MSB {
		return ident{}, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, buf[elf.EI_DATA])
	}
	if id.class != elf.ELFCLASS32 && id.class != elf.ELFCLASS64 {
		return ident{}, fmt.Errorf("%w: %d", ErrUnsupportedClass, buf[elf.EI_CLASS])
	}
	return id, nil
}

// readFull fills buf from r. A short read is reported as ErrTruncated, any
// other failure as ErrUnreadable.
func readFull(r io.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: reading %s: need %d bytes", ErrTruncated, what, len(buf))
		}
		return fmt.Errorf("%w: reading %s: %w", ErrUnreadable, what, err)
	}
	return nil
}
