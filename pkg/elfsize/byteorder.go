package elfsize

import (
	"debug/elf"
	"math/bits"

	"golang.org/x/sys/cpu"
)

// hostData is the ELF data encoding matching the byte order of this machine.
func hostData() elf.Data {
	if cpu.IsBigEndian {
		return elf.ELFDATA2MSB
	}
	return elf.ELFDATA2LSB
}

func swap16(v uint16) uint16 { return bits.ReverseBytes16(v) }
func swap32(v uint32) uint32 { return bits.ReverseBytes32(v) }
func swap64(v uint64) uint64 { return bits.ReverseBytes64(v) }

// fileOrder converts values decoded in host byte order into the values the
// file actually stores. Conversion is the identity when the file was written
// with the host's encoding.
type fileOrder struct {
	swap bool
}

func newFileOrder(data elf.Data) fileOrder {
	return fileOrder{swap: data != hostData()}
}

func (o fileOrder) u16(v uint16) uint16 {
	if o.swap {
		return swap16(v)
	}
	return v
}

func (o fileOrder) u32(v uint32) uint32 {
	if o.swap {
		return swap32(v)
	}
	return v
}

func (o fileOrder) u64(v uint64) uint64 {
	if o.swap {
		return swap64(v)
	}
	return v
}
