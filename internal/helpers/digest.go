package helpers

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
	"log"
	"os"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/probonopd/elfsize/pkg/elfsize"
)

var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

// DigestAlgorithms lists the names accepted by NewHash.
var DigestAlgorithms = []string{"sha256", "sha512", "sha3-256", "blake2b-256"}

type ByteRange struct {
	Offset int64
	Length int64
}

// NewHash returns a new hash for the named algorithm.
func NewHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "", "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "sha3-256":
		return sha3.New256(), nil
	case "blake2b-256":
		return blake2b.New256(nil)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}

// CalculateDigestSkippingRanges hashes the first size bytes of r into h
// while assuming that the supplied byte ranges consist of '0x00's.
// Ranges are clipped to [0, size) and may be given in any order.
func CalculateDigestSkippingRanges(r io.ReaderAt, size int64, ranges []ByteRange, h hash.Hash) error {
	ranges = clipRanges(ranges, size)

	var pos int64
	for _, br := range ranges {
		if err := hashRange(r, h, pos, br.Offset-pos); err != nil {
			return err
		}
		hashDummyRange(h, br.Length)
		pos = br.Offset + br.Length
	}
	return hashRange(r, h, pos, size-pos)
}

// clipRanges sorts the ranges by offset, cuts them to [0, size) and merges
// overlapping ones.
func clipRanges(ranges []ByteRange, size int64) []ByteRange {
	var out []ByteRange
	for _, br := range ranges {
		start, end := max(br.Offset, 0), min(br.Offset+br.Length, size)
		if br.Length <= 0 || start >= end {
			continue
		}
		out = append(out, ByteRange{start, end - start})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Offset < out[j].Offset
	})

	merged := out[:0]
	for _, br := range out {
		if n := len(merged); n > 0 && br.Offset <= merged[n-1].Offset+merged[n-1].Length {
			last := &merged[n-1]
			last.Length = max(last.Offset+last.Length, br.Offset+br.Length) - last.Offset
			continue
		}
		merged = append(merged, br)
	}
	return merged
}

func hashRange(r io.ReaderAt, h hash.Hash, offset int64, length int64) error {
	if length <= 0 {
		return nil
	}
	n, err := io.Copy(h, io.NewSectionReader(r, offset, length))
	if err != nil {
		return err
	}
	if n != length {
		return fmt.Errorf("%w: hashed %d of %d bytes at offset %d", elfsize.ErrTruncated, n, length, offset)
	}
	return nil
}

var zeros [32 * 1024]byte

func hashDummyRange(h hash.Hash, length int64) {
	for length > 0 {
		n := min(length, int64(len(zeros)))
		h.Write(zeros[:n])
		length -= n
	}
}

// CalculateDigest returns the hex digest of the ELF part of the file at path,
// that is everything before the size reported by elfsize.Calculate.
// The sections named in skip are hashed as if they contained only '0x00's;
// sections the file does not have are ignored.
func CalculateDigest(path string, algorithm string, skip []string) (string, error) {
	h, err := NewHash(algorithm)
	if err != nil {
		return "", err
	}
	size, err := elfsize.Calculate(path)
	if err != nil {
		return "", err
	}

	var ranges []ByteRange
	for _, s := range skip {
		offset, length, err := GetSectionOffsetAndLength(path, s)
		if err != nil {
			if !errors.Is(err, ErrSectionNotFound) {
				return "", err
			}
			continue
		}
		if length == 0 {
			continue
		}
		log.Println("digest: assuming section", s, "offset", offset, "length", length, "to contain only '0x00's")
		ranges = append(ranges, ByteRange{int64(offset), int64(length)})
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := CalculateDigestSkippingRanges(f, size, ranges, h); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
