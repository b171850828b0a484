package helpers

import (
	"debug/elf"
	"errors"
	"fmt"
	"math/bits"
	"os"

	"github.com/probonopd/elfsize/pkg/elfsize"
)

var (
	ErrSectionNotFound = errors.New("ELF section not found")
	ErrSectionNoData   = errors.New("ELF section occupies no space in the file")
)

// Sections that AppImage tooling writes into the runtime and that carry
// data which changes after the digest has been calculated.
var SignatureSections = []string{".sha256_sig", ".sig_key"}

// findSection returns the header of the named section and the size of the
// file it was found in.
func findSection(path string, name string) (elf.SectionHeader, int64, error) {
	r, err := os.Open(path)
	if err != nil {
		return elf.SectionHeader{}, 0, err
	}
	defer r.Close()

	fi, err := r.Stat()
	if err != nil {
		return elf.SectionHeader{}, 0, err
	}
	f, err := elf.NewFile(r)
	if err != nil {
		return elf.SectionHeader{}, 0, err
	}
	section := f.Section(name)
	if section == nil {
		return elf.SectionHeader{}, 0, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	return section.SectionHeader, fi.Size(), nil
}

// GetSectionOffsetAndLength returns the Offset and Length of an ELF section and error
func GetSectionOffsetAndLength(path string, name string) (uint64, uint64, error) {
	sh, _, err := findSection(path, name)
	if err != nil {
		return 0, 0, err
	}
	return sh.Offset, sh.Size, nil
}

// GetSectionData returns the contents of an ELF section and error
func GetSectionData(path string, name string) ([]byte, error) {
	sh, fileSize, err := findSection(path, name)
	if err != nil {
		return nil, err
	}
	if sh.Type == elf.SHT_NOBITS {
		return nil, fmt.Errorf("%w: %s", ErrSectionNoData, name)
	}
	// sh_size comes straight from the file; bound it before allocating.
	end, carry := bits.Add64(sh.Offset, sh.Size, 0)
	if carry != 0 || end > uint64(fileSize) {
		return nil, fmt.Errorf("%w: section %s (offset %d, size %d) extends past the end of the %d byte file",
			elfsize.ErrMalformedSectionTable, name, sh.Offset, sh.Size, fileSize)
	}
	return elfsize.ReadByteRange(path, int64(sh.Offset), int64(sh.Size))
}
