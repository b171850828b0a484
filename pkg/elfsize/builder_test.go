package elfsize_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// image describes a synthetic ELF file. Only the fields the size
// calculation looks at are set; everything else stays zero.
type image struct {
	class     elf.Class
	data      elf.Data
	shoff     uint64
	shentsize uint16
	shnum     uint16
	secOffset uint64 // sh_offset of the last section header
	secSize   uint64 // sh_size of the last section header
	length    int    // total file length, 0 means "up to the end of the last header"
}

func (im image) order() binary.ByteOrder {
	if im.data == elf.ELFDATA2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (im image) bytes(t *testing.T) []byte {
	t.Helper()

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(im.class)
	ident[elf.EI_DATA] = byte(im.data)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var hdr, sh bytes.Buffer
	var err error
	if im.class == elf.ELFCLASS32 {
		err = binary.Write(&hdr, im.order(), elf.Header32{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Shoff:     uint32(im.shoff),
			Ehsize:    52,
			Shentsize: im.shentsize,
			Shnum:     im.shnum,
		})
		if err == nil {
			err = binary.Write(&sh, im.order(), elf.Section32{
				Off:  uint32(im.secOffset),
				Size: uint32(im.secSize),
			})
		}
	} else {
		err = binary.Write(&hdr, im.order(), elf.Header64{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Shoff:     im.shoff,
			Ehsize:    64,
			Shentsize: im.shentsize,
			Shnum:     im.shnum,
		})
		if err == nil {
			err = binary.Write(&sh, im.order(), elf.Section64{
				Off:  im.secOffset,
				Size: im.secSize,
			})
		}
	}
	if err != nil {
		t.Fatal(err)
	}

	// The last section header is only placed when it lands inside a
	// reasonably sized file; crafted overflow cases set length instead.
	n := hdr.Len()
	last := -1
	if im.shnum > 0 && im.shoff < 1<<20 {
		last = int(im.shoff) + int(im.shentsize)*(int(im.shnum)-1)
		n = max(n, last+sh.Len())
	}
	if im.length > 0 {
		n = im.length
	}

	buf := make([]byte, n)
	copy(buf, hdr.Bytes())
	if last >= 0 && last < n {
		copy(buf[last:], sh.Bytes())
	}
	return buf
}

func (im image) write(t *testing.T) string {
	t.Helper()
	return writeFile(t, im.bytes(t))
}

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.elf")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
