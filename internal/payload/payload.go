// Package payload describes what is stored in a file after its ELF object,
// such as the squashfs image of a type 2 AppImage.
package payload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/CalebQ42/squashfs"

	"github.com/probonopd/elfsize/pkg/elfsize"
)

// Kind is the type of data found at the end of the ELF object.
type Kind string

const (
	None      Kind = "none"
	Squashfs  Kind = "squashfs"
	Unknown   Kind = "unknown"
	Truncated Kind = "truncated" // the file ends before the ELF object does
)

var squashfsMagic = []byte("hsqs")

// Payload describes the data appended to an ELF file.
type Payload struct {
	Path     string
	ElfSize  int64
	FileSize int64
	Offset   int64 // where the payload starts, equal to ElfSize
	Length   int64
	Kind     Kind
	Entries  []string // top-level entries of a squashfs payload
	Err      error    // set when a squashfs payload could not be read
}

// Inspect calculates the ELF size of the file at path and looks at what
// follows it.
func Inspect(path string) (*Payload, error) {
	size, err := elfsize.Calculate(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	p := &Payload{
		Path:     path,
		ElfSize:  size,
		FileSize: fi.Size(),
		Offset:   size,
		Kind:     None,
	}
	switch {
	case p.FileSize < size:
		p.Kind = Truncated
		return p, nil
	case p.FileSize == size:
		return p, nil
	}
	p.Length = p.FileSize - size

	magic := make([]byte, len(squashfsMagic))
	if _, err := f.ReadAt(magic, size); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if !bytes.Equal(magic, squashfsMagic) {
		p.Kind = Unknown
		return p, nil
	}

	p.Kind = Squashfs
	p.Entries, p.Err = listSquashfs(f, size)
	return p, nil
}

// listSquashfs returns the names in the root directory of the squashfs image
// starting at offset.
func listSquashfs(r io.ReaderAt, offset int64) (entries []string, err error) {
	// The squashfs reader panics on some corrupt images.
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("squashfs: %v", v)
		}
	}()

	rdr, err := squashfs.NewReaderAtOffset(r, offset)
	if err != nil {
		return nil, fmt.Errorf("squashfs: %w", err)
	}
	fsFil, err := rdr.Open(".")
	if err != nil {
		return nil, fmt.Errorf("squashfs: %w", err)
	}
	fil, ok := fsFil.(*squashfs.File)
	if !ok || !fil.IsDir() {
		return nil, errors.New("squashfs: root is not a directory")
	}
	children, err := fil.ReadDir(0)
	if err != nil {
		return nil, fmt.Errorf("squashfs: %w", err)
	}
	for _, child := range children {
		entries = append(entries, child.Name())
	}
	sort.Strings(entries)
	return entries, nil
}
