// Package elfsize calculates the size of the ELF object at the start of a
// file from its headers alone. Anything appended after that point, such as a
// signature or a squashfs image, is not counted.
//
// An ELF file ends either with its section header table or with the content
// of its last section, whichever is further into the file.
package elfsize

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/bits"
	"os"
)

// Layout is the header information the size calculation is based on.
type Layout struct {
	Class     elf.Class
	Data      elf.Data
	Shoff     uint64 // section header table file offset
	Shentsize uint64 // size of one section header
	Shnum     uint64 // number of section headers

	LastSectionOffset uint64 // sh_offset of section shnum-1
	LastSectionSize   uint64 // sh_size of section shnum-1

	SectionTableEnd uint64
	LastSectionEnd  uint64
	Size            int64
}

// Calculate returns the size of the ELF object stored in the file at path.
func Calculate(path string) (int64, error) {
	l, err := InspectFile(path)
	if err != nil {
		return 0, err
	}
	return l.Size, nil
}

// InspectFile opens path and runs Inspect on it.
func InspectFile(path string) (*Layout, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := Inspect(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// FromReader is like Calculate but works on an already opened file.
func FromReader(r io.ReadSeeker) (int64, error) {
	l, err := Inspect(r)
	if err != nil {
		return 0, err
	}
	return l.Size, nil
}

// Inspect reads the identification block, the ELF header and the last
// section header from r and returns the decoded values together with the
// resulting size. Only the start of the file and the last section header
// are read.
func Inspect(r io.ReadSeeker) (*Layout, error) {
	if err := seek(r, 0); err != nil {
		return nil, err
	}
	id, err := readIdent(r)
	if err != nil {
		return nil, err
	}

	order := newFileOrder(id.data)
	lay := layoutFor(id.class)

	// The identification block is the prefix of the ELF header.
	if err := seek(r, 0); err != nil {
		return nil, err
	}
	hdr, err := lay.readHeader(r, order)
	if err != nil {
		return nil, err
	}
	if hdr.shnum == 0 {
		return nil, fmt.Errorf("%w: no section headers", ErrMalformedSectionTable)
	}

	lastOff, ok := mulAdd(hdr.shentsize, hdr.shnum-1, hdr.shoff)
	if !ok {
		return nil, fmt.Errorf("%w: last section header offset overflows (shoff %d, shentsize %d, shnum %d)",
			ErrMalformedSectionTable, hdr.shoff, hdr.shentsize, hdr.shnum)
	}
	if lastOff > math.MaxInt64 {
		return nil, fmt.Errorf("%w: last section header offset %d exceeds the largest file offset",
			ErrMalformedSectionTable, lastOff)
	}
	if err := seek(r, int64(lastOff)); err != nil {
		return nil, err
	}
	sh, err := lay.readSectionHeader(r, order)
	if err != nil {
		return nil, err
	}

	return resolve(id, hdr, sh)
}

// resolve computes the end of the section header table and of the last
// section and picks the larger of the two.
func resolve(id ident, hdr fileHeader, sh sectionHeader) (*Layout, error) {
	shtEnd, ok := mulAdd(hdr.shentsize, hdr.shnum, hdr.shoff)
	if !ok {
		return nil, fmt.Errorf("%w: section header table end overflows", ErrMalformedSectionTable)
	}
	sectionEnd, carry := bits.Add64(sh.offset, sh.size, 0)
	if carry != 0 {
		return nil, fmt.Errorf("%w: last section end overflows (offset %d, size %d)",
			ErrMalformedSectionTable, sh.offset, sh.size)
	}

	end := max(shtEnd, sectionEnd)
	if end > math.MaxInt64 {
		return nil, fmt.Errorf("%w: size %d exceeds the largest file offset", ErrMalformedSectionTable, end)
	}

	return &Layout{
		Class:             id.class,
		Data:              id.data,
		Shoff:             hdr.shoff,
		Shentsize:         hdr.shentsize,
		Shnum:             hdr.shnum,
		LastSectionOffset: sh.offset,
		LastSectionSize:   sh.size,
		SectionTableEnd:   shtEnd,
		LastSectionEnd:    sectionEnd,
		Size:              int64(end),
	}, nil
}

// mulAdd returns a*b+c and false if the result does not fit in 64 bits.
func mulAdd(a, b, c uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	sum, carry := bits.Add64(lo, c, 0)
	return sum, carry == 0
}

func seek(r io.Seeker, offset int64) error {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to %d: %w", ErrUnreadable, offset, err)
	}
	return nil
}

// open opens path for reading and classifies the failure.
func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return f, nil
}
