// Package dump reads and writes JIT code dumps: an 8-byte header followed by
// a sequence of (pc, size, bytes) code blocks, all little-endian.
package dump

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-restruct/restruct"
)

// Magic identifies a JIT code dump.
const Magic uint32 = 0xab773acf

const (
	headerSize      = 8
	blockHeaderSize = 16
)

var (
	ErrInvalidHeader           = errors.New("invalid dump header")
	ErrInvalidMagic            = errors.New("invalid dump magic")
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")
	ErrTruncatedBlock          = errors.New("truncated block")
)

// Arch is the architecture recorded in a dump header.
type Arch uint32

const (
	ArchAArch64 Arch = 1
	ArchX64     Arch = 2
)

func (a Arch) String() string {
	switch a {
	case ArchAArch64:
		return "aarch64"
	case ArchX64:
		return "x64"
	}
	return fmt.Sprintf("arch(%d)", uint32(a))
}

// Valid reports whether a is one of the supported architectures.
func (a Arch) Valid() bool {
	return a == ArchAArch64 || a == ArchX64
}

// Header is the fixed container header.
type Header struct {
	Magic uint32
	Arch  uint32
}

// Architecture returns the typed architecture field.
func (h Header) Architecture() Arch {
	return Arch(h.Arch)
}

// Validate checks the magic and architecture fields.
func (h Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if !h.Architecture().Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedArchitecture, h.Arch)
	}
	return nil
}

// BlockHeader precedes the code bytes of every block.
type BlockHeader struct {
	PC   uint64
	Size uint64
}

// Block is one contiguous run of generated code captured at PC.
type Block struct {
	PC   uint64
	Code []byte
}

// Size returns the number of code bytes.
func (b Block) Size() uint64 {
	return uint64(len(b.Code))
}

// TruncatedBlockError reports a block whose payload ended early.
type TruncatedBlockError struct {
	PC        uint64
	Size      uint64
	Available uint64
}

func (e *TruncatedBlockError) Error() string {
	return fmt.Sprintf("block %x is truncated", e.PC)
}

func (e *TruncatedBlockError) Unwrap() error {
	return ErrTruncatedBlock
}

func unpack(data []byte, v any) error {
	return restruct.Unpack(data, binary.LittleEndian, v)
}

func pack(v any) ([]byte, error) {
	return restruct.Pack(binary.LittleEndian, v)
}
