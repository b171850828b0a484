package elfsize

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io"
)

// fileHeader is the width- and byte-order-normalized part of an ELF header
// that locates the section header table.
type fileHeader struct {
	shoff     uint64
	shentsize uint64
	shnum     uint64
}

// sectionHeader is the normalized part of a section header locating the
// section's content in the file.
type sectionHeader struct {
	offset uint64
	size   uint64
}

// layout reads the class-specific on-disk structures and normalizes them.
type layout interface {
	readHeader(r io.Reader, o fileOrder) (fileHeader, error)
	readSectionHeader(r io.Reader, o fileOrder) (sectionHeader, error)
}

func layoutFor(class elf.Class) layout {
	if class == elf.ELFCLASS64 {
		return layout64{}
	}
	return layout32{}
}

// decode reads exactly binary.Size(v) bytes and decodes them in host byte
// order into v. The caller applies the file-to-host conversion afterwards.
func decode(r io.Reader, v any, what string) error {
	buf := make([]byte, binary.Size(v))
	if err := readFull(r, buf, what); err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), binary.NativeEndian, v)
}

type layout32 struct{}

func (layout32) readHeader(r io.Reader, o fileOrder) (fileHeader, error) {
	var hdr elf.Header32
	if err := decode(r, &hdr, "ELF header"); err != nil {
		return fileHeader{}, err
	}
	return fileHeader{
		shoff:     uint64(o.u32(hdr.Shoff)),
		shentsize: uint64(o.u16(hdr.Shentsize)),
		shnum:     uint64(o.u16(hdr.Shnum)),
	}, nil
}

func (layout32) readSectionHeader(r io.Reader, o fileOrder) (sectionHeader, error) {
	var sh elf.Section32
	if err := decode(r, &sh, "ELF section header"); err != nil {
		return sectionHeader{}, err
	}
	return sectionHeader{
		offset: uint64(o.u32(sh.Off)),
		size:   uint64(o.u32(sh.Size)),
	}, nil
}

type layout64 struct{}

func (layout64) readHeader(r io.Reader, o fileOrder) (fileHeader, error) {
	var hdr elf.Header64
	if err := decode(r, &hdr, "ELF header"); err != nil {
		return fileHeader{}, err
	}
	return fileHeader{
		shoff:     o.u64(hdr.Shoff),
		shentsize: uint64(o.u16(hdr.Shentsize)),
		shnum:     uint64(o.u16(hdr.Shnum)),
	}, nil
}

func (layout64) readSectionHeader(r io.Reader, o fileOrder) (sectionHeader, error) {
	var sh elf.Section64
	if err := decode(r, &sh, "ELF section header"); err != nil {
		return sectionHeader{}, err
	}
	return sectionHeader{
		offset: o.u64(sh.Off),
		size:   o.u64(sh.Size),
	}, nil
}
